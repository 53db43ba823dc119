package stores

import (
	"encoding/json"
	"fmt"
	"sync"
)

// fileToRecord converts a database row into the store-agnostic record shape.
func fileToRecord(file File) (FileRecord, error) {
	var vectorIDs []string
	if file.VectorIDsJSON != "" {
		if err := json.Unmarshal([]byte(file.VectorIDsJSON), &vectorIDs); err != nil {
			return FileRecord{}, fmt.Errorf("failed to unmarshal vector IDs for %s: %w", file.Filename, err)
		}
	}

	return FileRecord{
		Filename:    file.Filename,
		Filetype:    file.Filetype,
		Description: file.Description,
		VectorIDs:   vectorIDs,
		Content:     file.Content,
		Bytes:       file.Bytes,
	}, nil
}

// recordToFile converts a record into its database row. Vector IDs are stored
// as a JSON array so chunk order survives the round trip.
func recordToFile(record FileRecord) (File, error) {
	vectorIDs := record.VectorIDs
	if vectorIDs == nil {
		vectorIDs = []string{}
	}

	idsJSON, err := json.Marshal(vectorIDs)
	if err != nil {
		return File{}, fmt.Errorf("failed to marshal vector IDs for %s: %w", record.Filename, err)
	}

	return File{
		Filename:      record.Filename,
		Filetype:      record.Filetype,
		Description:   record.Description,
		VectorIDsJSON: string(idsJSON),
		Content:       record.Content,
		Bytes:         record.Bytes,
	}, nil
}

// updateColumns maps a FileUpdate onto the column set for a gorm Updates call.
// Only non-nil fields are included, so untouched columns keep their values.
func updateColumns(changes FileUpdate) (map[string]interface{}, error) {
	columns := make(map[string]interface{})
	if changes.Filetype != nil {
		columns["filetype"] = *changes.Filetype
	}
	if changes.Description != nil {
		columns["description"] = *changes.Description
	}
	if changes.VectorIDs != nil {
		idsJSON, err := json.Marshal(*changes.VectorIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal vector IDs update: %w", err)
		}
		columns["vector_ids_json"] = string(idsJSON)
	}
	if changes.Content != nil {
		columns["content"] = *changes.Content
	}
	if changes.Bytes != nil {
		columns["bytes"] = *changes.Bytes
	}
	return columns, nil
}

// namespaceLocks serializes appends per namespace so two concurrent turns for
// the same conversation cannot compute the same next sequence number from a
// stale read. Independent namespaces proceed in parallel.
type namespaceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newNamespaceLocks() *namespaceLocks {
	return &namespaceLocks{locks: make(map[string]*sync.Mutex)}
}

func (n *namespaceLocks) lock(namespace string) *sync.Mutex {
	n.mu.Lock()
	l, ok := n.locks[namespace]
	if !ok {
		l = &sync.Mutex{}
		n.locks[namespace] = l
	}
	n.mu.Unlock()
	l.Lock()
	return l
}
