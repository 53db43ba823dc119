package stores

import (
	"errors"
	"reflect"
	"testing"
)

func testRecord(filename string) FileRecord {
	return FileRecord{
		Filename:    filename,
		Filetype:    ".txt",
		Description: "soil acidity notes",
		VectorIDs:   []string{"v1", "v2", "v3"},
		Content:     "Lime raises soil pH.",
		Bytes:       []byte("Lime raises soil pH."),
	}
}

func TestAddFile_RoundTripPreservesVectorIDOrder(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AddFile(testRecord("soil.txt")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	got, err := store.GetFileByName("soil.txt")
	if err != nil {
		t.Fatalf("GetFileByName failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a record, got nil")
	}
	if !reflect.DeepEqual(*got, testRecord("soil.txt")) {
		t.Errorf("Round trip mismatch: got %+v", *got)
	}
}

func TestAddFile_DuplicateFilenameFailsAndKeepsOriginal(t *testing.T) {
	store := newTestStore(t)

	original := testRecord("soil.txt")
	if _, err := store.AddFile(original); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	dup := testRecord("soil.txt")
	dup.Description = "overwrite attempt"
	if _, err := store.AddFile(dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	got, err := store.GetFileByName("soil.txt")
	if err != nil {
		t.Fatalf("GetFileByName failed: %v", err)
	}
	if got.Description != original.Description {
		t.Errorf("Existing record was modified: got description %q", got.Description)
	}
}

func TestGetFileByName_AbsentIsNilNotError(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetFileByName("missing.txt")
	if err != nil {
		t.Fatalf("Expected no error for absent file, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil record, got %+v", *got)
	}
}

func TestDeleteFile(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AddFile(testRecord("soil.txt")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	count, err := store.DeleteFile("soil.txt")
	if err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected delete count 1, got %d", count)
	}

	got, err := store.GetFileByName("soil.txt")
	if err != nil {
		t.Fatalf("GetFileByName failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected file to be gone, got %+v", *got)
	}
}

func TestDeleteFile_MissingIsNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.DeleteFile("missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAll_ThenGetAllIsEmpty(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AddFile(testRecord("a.txt")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if _, err := store.AddFile(testRecord("b.txt")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	count, err := store.DeleteAll()
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected delete count 2, got %d", count)
	}

	records, err := store.GetAllFiles()
	if err != nil {
		t.Fatalf("GetAllFiles failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records after DeleteAll, got %d", len(records))
	}
}

func TestInsertMany(t *testing.T) {
	store := newTestStore(t)

	batch := []FileRecord{testRecord("a.txt"), testRecord("b.txt"), testRecord("c.txt")}
	if err := store.InsertMany(batch); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	records, err := store.GetAllFiles()
	if err != nil {
		t.Fatalf("GetAllFiles failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}
}

func TestInsertMany_DuplicateRollsBackWholeBatch(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AddFile(testRecord("b.txt")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	batch := []FileRecord{testRecord("a.txt"), testRecord("b.txt"), testRecord("c.txt")}
	if err := store.InsertMany(batch); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	records, err := store.GetAllFiles()
	if err != nil {
		t.Fatalf("GetAllFiles failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected only the pre-existing record after rollback, got %d records", len(records))
	}
}

func TestUpdateFile_PartialUpdateLeavesOtherFieldsAlone(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.AddFile(testRecord("soil.txt")); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	desc := "updated description"
	ids := []string{"v9"}
	count, err := store.UpdateFile("soil.txt", FileUpdate{Description: &desc, VectorIDs: &ids})
	if err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected update count 1, got %d", count)
	}

	got, err := store.GetFileByName("soil.txt")
	if err != nil {
		t.Fatalf("GetFileByName failed: %v", err)
	}
	if got.Description != desc {
		t.Errorf("Expected description %q, got %q", desc, got.Description)
	}
	if !reflect.DeepEqual(got.VectorIDs, ids) {
		t.Errorf("Expected vector IDs %v, got %v", ids, got.VectorIDs)
	}
	if got.Content != testRecord("soil.txt").Content {
		t.Errorf("Content should be untouched, got %q", got.Content)
	}
}

func TestUpdateFile_MissingFilenameReturnsZero(t *testing.T) {
	store := newTestStore(t)

	desc := "whatever"
	count, err := store.UpdateFile("missing.txt", FileUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected update count 0 for missing file, got %d", count)
	}
}
