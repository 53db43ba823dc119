package stores

import (
	"gorm.io/gorm"
)

// ChatMessage is one persisted conversation turn: the human message and the
// assistant reply that answered it, stored together.
// Sequence numbers form a gap-free ascending run per namespace, starting at 0.
type ChatMessage struct {
	gorm.Model
	Namespace      string `gorm:"index:idx_namespace_sequence,unique;not null"`
	SequenceNumber int    `gorm:"index:idx_namespace_sequence,unique;not null"`
	HumanMessage   string `gorm:"type:text;not null"`
	AIMessage      string `gorm:"type:text;not null"`
}

// File is the database row for an ingested source document.
// VectorIDsJSON stores the JSON marshaled array of vector store IDs for this
// file's chunks, in chunk order.
type File struct {
	gorm.Model
	Filename      string `gorm:"uniqueIndex;not null"`
	Filetype      string
	Description   string
	VectorIDsJSON string `gorm:"type:json"`
	Content       string `gorm:"type:text"`
	Bytes         []byte
}

// ChatPair is one (human, assistant) turn as returned to callers, oldest first.
type ChatPair struct {
	Human string
	AI    string
}

// FileRecord is the store-agnostic view of a File row.
type FileRecord struct {
	Filename    string
	Filetype    string
	Description string
	VectorIDs   []string
	Content     string
	Bytes       []byte
}

// FileUpdate enumerates the fields a partial update may change. Nil fields are
// left untouched.
type FileUpdate struct {
	Filetype    *string
	Description *string
	VectorIDs   *[]string
	Content     *string
	Bytes       *[]byte
}

// ChatStore is the append-only conversation log.
type ChatStore interface {
	// AddMessage appends one full turn. The sequence number is computed from
	// the current maximum for the namespace at append time.
	AddMessage(namespace, humanMessage, aiMessage string) error
	// RetrieveAllMessages returns every turn for the namespace ordered by
	// sequence number ascending. An unknown namespace yields an empty slice.
	RetrieveAllMessages(namespace string) ([]ChatPair, error)
}

// FileStore is the filename-unique registry of ingested documents.
type FileStore interface {
	AddFile(record FileRecord) (FileRecord, error)
	GetFileByName(filename string) (*FileRecord, error)
	DeleteFile(filename string) (int64, error)
	DeleteAll() (int64, error)
	GetAllFiles() ([]FileRecord, error)
	InsertMany(records []FileRecord) error
	UpdateFile(filename string, changes FileUpdate) (int64, error)
}

// Store combines both stores plus connection management, the way a single
// database backend exposes them.
type Store interface {
	ChatStore
	FileStore

	Connect() error
	Close() error
	Ping() error
}

// StoreConfig holds configuration for database stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "sqlite", "postgres"
	Connection string            `json:"connection"` // file path or DSN
	Options    map[string]string `json:"options"`    // additional options
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}
