package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Desarso/agrichat/sessions"
	"github.com/Desarso/agrichat/stores"
)

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type voiceChatResponse struct {
	Transcript string `json:"transcript"`
	Response   string `json:"response"`
}

type fileResponse struct {
	Filename    string   `json:"filename"`
	Filetype    string   `json:"filetype"`
	Description string   `json:"description"`
	VectorIDs   []string `json:"vector_ids"`
}

type fileUpdateRequest struct {
	Description *string `json:"description"`
	Filetype    *string `json:"filetype"`
}

func toFileResponse(r stores.FileRecord) fileResponse {
	return fileResponse{
		Filename:    r.Filename,
		Filetype:    r.Filetype,
		Description: r.Description,
		VectorIDs:   r.VectorIDs,
	}
}

// handleChat runs one full turn for the namespace. Model and retrieval
// failures are logged and answered with the generic apology so the caller
// never sees internal details.
func (s *Server) handleChat(c *gin.Context) {
	namespace := c.Param("namespace")

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := s.Responder.GenerateResponse(c.Request.Context(), namespace, req.Message)
	if err != nil {
		log.Error().Err(err).Str("namespace", namespace).Msg("Chat turn failed")
		c.JSON(http.StatusOK, chatResponse{Response: sessions.ApologyMessage})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Response: answer})
}

// handleVoiceChat accepts an audio upload, transcribes it and then runs a
// regular chat turn with the transcript.
func (s *Server) handleVoiceChat(c *gin.Context) {
	namespace := c.Param("namespace")

	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing audio file: " + err.Error()})
		return
	}

	tmpPath := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(upload.Filename))
	if err := c.SaveUploadedFile(upload, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload: " + err.Error()})
		return
	}
	defer os.Remove(tmpPath)

	transcript, err := s.Transcriber.Transcribe(c.Request.Context(), tmpPath)
	if err != nil {
		log.Error().Err(err).Str("namespace", namespace).Msg("Transcription failed")
		c.JSON(http.StatusOK, voiceChatResponse{Response: sessions.ApologyMessage})
		return
	}

	answer, err := s.Responder.GenerateResponse(c.Request.Context(), namespace, transcript)
	if err != nil {
		log.Error().Err(err).Str("namespace", namespace).Msg("Voice chat turn failed")
		c.JSON(http.StatusOK, voiceChatResponse{Transcript: transcript, Response: sessions.ApologyMessage})
		return
	}

	c.JSON(http.StatusOK, voiceChatResponse{Transcript: transcript, Response: answer})
}

// handleWebSocketChat upgrades the connection and hands it to a chat session.
func (s *Server) handleWebSocketChat(c *gin.Context) {
	namespace := c.Param("namespace")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	session := sessions.NewChatSession(namespace, conn, s.Responder)
	if err := session.Run(c.Request.Context()); err != nil {
		log.Error().Err(err).Str("session_id", session.SessionID).Msg("WebSocket session ended with error")
	}
}

// handleUploadFile ingests a document: chunks it, embeds the chunks into the
// vector store and records the file with its vector IDs in the registry.
func (s *Server) handleUploadFile(c *gin.Context) {
	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file: " + err.Error()})
		return
	}
	description := c.PostForm("description")

	filename := filepath.Base(upload.Filename)
	if existing, err := s.Store.GetFileByName(filename); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "file already exists: " + filename})
		return
	}

	tmpPath := filepath.Join(os.TempDir(), uuid.NewString()+"_"+filename)
	if err := c.SaveUploadedFile(upload, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload: " + err.Error()})
		return
	}
	defer os.Remove(tmpPath)

	contents, vectorIDs, raw, err := s.Knowledge.LoadAndIngestFile(c.Request.Context(), tmpPath, map[string]any{
		"filename": filename,
	})
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Ingest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest file: " + err.Error()})
		return
	}

	record := stores.FileRecord{
		Filename:    filename,
		Filetype:    strings.TrimPrefix(filepath.Ext(filename), "."),
		Description: description,
		VectorIDs:   vectorIDs,
		Content:     contents,
		Bytes:       raw,
	}
	saved, err := s.Store.AddFile(record)
	if err != nil {
		// The registry insert lost a race, roll the vectors back so the
		// collection does not accumulate orphans.
		if derr := s.Knowledge.DeleteVectors(c.Request.Context(), vectorIDs); derr != nil {
			log.Warn().Err(derr).Str("filename", filename).Msg("Failed to clean up vectors after registry conflict")
		}
		if errors.Is(err, stores.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "file already exists: " + filename})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toFileResponse(saved))
}

func (s *Server) handleListFiles(c *gin.Context) {
	records, err := s.Store.GetAllFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]fileResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toFileResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}

func (s *Server) handleGetFile(c *gin.Context) {
	filename := c.Param("filename")

	record, err := s.Store.GetFileByName(filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + filename})
		return
	}
	c.JSON(http.StatusOK, toFileResponse(*record))
}

func (s *Server) handleUpdateFile(c *gin.Context) {
	filename := c.Param("filename")

	var req fileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changes := stores.FileUpdate{
		Description: req.Description,
		Filetype:    req.Filetype,
	}
	updated, err := s.Store.UpdateFile(filename, changes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if updated == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + filename})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// handleDeleteFile removes the registry row and the file's vectors from the
// collection.
func (s *Server) handleDeleteFile(c *gin.Context) {
	filename := c.Param("filename")

	record, err := s.Store.GetFileByName(filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + filename})
		return
	}

	if err := s.Knowledge.DeleteVectors(c.Request.Context(), record.VectorIDs); err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("Failed to delete vectors, registry row kept")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete vectors: " + err.Error()})
		return
	}

	deleted, err := s.Store.DeleteFile(filename)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + filename})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// handleDeleteAllFiles wipes the registry and drops the whole vector
// collection.
func (s *Server) handleDeleteAllFiles(c *gin.Context) {
	if err := s.Knowledge.DeleteCollection(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to drop collection: " + err.Error()})
		return
	}

	deleted, err := s.Store.DeleteAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
