package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.ogg")
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestTranscribeSendsMultipartAndReturnsText(t *testing.T) {
	var gotModel, gotFilename, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		if files := r.MultipartForm.File["file"]; len(files) == 1 {
			gotFilename = files[0].Filename
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello from voice"})
	}))
	defer server.Close()

	tr := NewWhisperTranscriber("test-key")
	tr.BaseURL = server.URL

	text, err := tr.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "hello from voice" {
		t.Errorf("expected transcribed text, got %q", text)
	}
	if gotModel != "whisper-1" {
		t.Errorf("expected default model whisper-1, got %q", gotModel)
	}
	if gotFilename != "voice.ogg" {
		t.Errorf("expected uploaded filename voice.ogg, got %q", gotFilename)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad audio"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	tr := NewWhisperTranscriber("test-key")
	tr.BaseURL = server.URL

	if _, err := tr.Transcribe(context.Background(), writeAudioFixture(t)); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	tr := NewWhisperTranscriber("test-key")
	if _, err := tr.Transcribe(context.Background(), "/nonexistent/audio.ogg"); err == nil {
		t.Fatal("expected error for missing audio file")
	}
}
