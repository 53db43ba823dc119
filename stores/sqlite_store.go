package stores

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements Store for SQLite databases
type SQLiteStore struct {
	db    *gorm.DB
	path  string
	locks *namespaceLocks
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(config *StoreConfig) (*SQLiteStore, error) {
	if config.Type != "sqlite" {
		return nil, fmt.Errorf("invalid store type for SQLite store: %s", config.Type)
	}

	store := &SQLiteStore{
		path:  config.Connection,
		locks: newNamespaceLocks(),
	}

	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	return store, nil
}

// NewSQLiteStoreSimple creates a new SQLite store with just a file path
func NewSQLiteStoreSimple(dbPath string) (*SQLiteStore, error) {
	config := NewStoreConfig("sqlite", dbPath)
	return NewSQLiteStore(config)
}

// Connect establishes a connection to the SQLite database
func (s *SQLiteStore) Connect() error {
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	s.db = db

	// Auto-migrate the schema
	if err := s.db.AutoMigrate(&ChatMessage{}, &File{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *SQLiteStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// AddMessage appends one (human, assistant) turn to the namespace's log.
// The next sequence number is 1 + the current maximum, read inside the same
// transaction that inserts the row; appends for a namespace are serialized.
func (s *SQLiteStore) AddMessage(namespace, humanMessage, aiMessage string) error {
	if s.db == nil {
		return storageErr("add message", fmt.Errorf("database connection is nil"))
	}

	l := s.locks.lock(namespace)
	defer l.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		if err := tx.Model(&ChatMessage{}).
			Where("namespace = ?", namespace).
			Select("COALESCE(MAX(sequence_number), -1)").
			Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("failed to read max sequence number: %w", err)
		}

		msg := ChatMessage{
			Namespace:      namespace,
			SequenceNumber: maxSeq + 1,
			HumanMessage:   humanMessage,
			AIMessage:      aiMessage,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to create chat message: %w", err)
		}
		return nil
	})
	if err != nil {
		return storageErr("add message", err)
	}
	return nil
}

// RetrieveAllMessages returns every turn for the namespace ordered by sequence
// number ascending. An unknown namespace yields an empty slice, not an error.
func (s *SQLiteStore) RetrieveAllMessages(namespace string) ([]ChatPair, error) {
	if s.db == nil {
		return nil, storageErr("retrieve messages", fmt.Errorf("database connection is nil"))
	}

	var msgs []ChatMessage
	if err := s.db.Where("namespace = ?", namespace).
		Order("sequence_number ASC").
		Find(&msgs).Error; err != nil {
		return nil, storageErr("retrieve messages", fmt.Errorf("failed to fetch chat messages: %w", err))
	}

	pairs := make([]ChatPair, len(msgs))
	for i, m := range msgs {
		pairs[i] = ChatPair{Human: m.HumanMessage, AI: m.AIMessage}
	}
	return pairs, nil
}

// AddFile inserts a new file record. The filename must not already exist; the
// unique index is the final arbiter, so concurrent inserts of the same name
// cannot both succeed.
func (s *SQLiteStore) AddFile(record FileRecord) (FileRecord, error) {
	if s.db == nil {
		return FileRecord{}, storageErr("add file", fmt.Errorf("database connection is nil"))
	}

	var count int64
	if err := s.db.Model(&File{}).Where("filename = ?", record.Filename).Count(&count).Error; err != nil {
		return FileRecord{}, storageErr("add file", fmt.Errorf("failed to check for existing file: %w", err))
	}
	if count > 0 {
		return FileRecord{}, ErrDuplicate
	}

	file, err := recordToFile(record)
	if err != nil {
		return FileRecord{}, storageErr("add file", err)
	}

	if err := s.db.Create(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return FileRecord{}, ErrDuplicate
		}
		return FileRecord{}, storageErr("add file", fmt.Errorf("failed to create file record: %w", err))
	}

	return fileToRecord(file)
}

// GetFileByName returns the record for the filename, or nil when absent.
// Absence is a normal outcome, not an error.
func (s *SQLiteStore) GetFileByName(filename string) (*FileRecord, error) {
	if s.db == nil {
		return nil, storageErr("get file", fmt.Errorf("database connection is nil"))
	}

	var file File
	err := s.db.Where("filename = ?", filename).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get file", fmt.Errorf("failed to fetch file record: %w", err))
	}

	record, err := fileToRecord(file)
	if err != nil {
		return nil, storageErr("get file", err)
	}
	return &record, nil
}

// DeleteFile removes the record for the filename and returns the number of
// rows removed. A missing filename is ErrNotFound.
func (s *SQLiteStore) DeleteFile(filename string) (int64, error) {
	if s.db == nil {
		return 0, storageErr("delete file", fmt.Errorf("database connection is nil"))
	}

	var count int64
	if err := s.db.Model(&File{}).Where("filename = ?", filename).Count(&count).Error; err != nil {
		return 0, storageErr("delete file", fmt.Errorf("failed to check for existing file: %w", err))
	}
	if count == 0 {
		return 0, ErrNotFound
	}

	res := s.db.Unscoped().Where("filename = ?", filename).Delete(&File{})
	if res.Error != nil {
		return 0, storageErr("delete file", fmt.Errorf("failed to delete file record: %w", res.Error))
	}
	return res.RowsAffected, nil
}

// DeleteAll removes every file record and returns the number removed.
func (s *SQLiteStore) DeleteAll() (int64, error) {
	if s.db == nil {
		return 0, storageErr("delete all files", fmt.Errorf("database connection is nil"))
	}

	res := s.db.Unscoped().Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&File{})
	if res.Error != nil {
		return 0, storageErr("delete all files", fmt.Errorf("failed to delete file records: %w", res.Error))
	}
	return res.RowsAffected, nil
}

// GetAllFiles returns every file record in the store's natural iteration order.
func (s *SQLiteStore) GetAllFiles() ([]FileRecord, error) {
	if s.db == nil {
		return nil, storageErr("get all files", fmt.Errorf("database connection is nil"))
	}

	var files []File
	if err := s.db.Find(&files).Error; err != nil {
		return nil, storageErr("get all files", fmt.Errorf("failed to fetch file records: %w", err))
	}

	records := make([]FileRecord, 0, len(files))
	for _, f := range files {
		record, err := fileToRecord(f)
		if err != nil {
			log.Warn().Str("filename", f.Filename).Err(err).Msg("Skipping file with corrupt vector ID column")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// InsertMany bulk inserts records in a single transaction. If any filename in
// the batch already exists (or repeats within the batch), the whole batch is
// rolled back and ErrDuplicate returned.
func (s *SQLiteStore) InsertMany(records []FileRecord) error {
	if s.db == nil {
		return storageErr("insert many files", fmt.Errorf("database connection is nil"))
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			file, err := recordToFile(record)
			if err != nil {
				return err
			}
			if err := tx.Create(&file).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicate
				}
				return fmt.Errorf("failed to create file record %s: %w", record.Filename, err)
			}
		}
		return nil
	})
	if errors.Is(err, ErrDuplicate) {
		return ErrDuplicate
	}
	if err != nil {
		return storageErr("insert many files", err)
	}
	return nil
}

// UpdateFile applies a partial update to the named record and returns the
// number of rows matched (0 when the filename does not exist).
func (s *SQLiteStore) UpdateFile(filename string, changes FileUpdate) (int64, error) {
	if s.db == nil {
		return 0, storageErr("update file", fmt.Errorf("database connection is nil"))
	}

	columns, err := updateColumns(changes)
	if err != nil {
		return 0, storageErr("update file", err)
	}
	if len(columns) == 0 {
		var count int64
		if err := s.db.Model(&File{}).Where("filename = ?", filename).Count(&count).Error; err != nil {
			return 0, storageErr("update file", fmt.Errorf("failed to check for existing file: %w", err))
		}
		return count, nil
	}

	res := s.db.Model(&File{}).Where("filename = ?", filename).Updates(columns)
	if res.Error != nil {
		return 0, storageErr("update file", fmt.Errorf("failed to update file record: %w", res.Error))
	}
	return res.RowsAffected, nil
}
