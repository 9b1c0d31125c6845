package database

import (
	"database/sql"
	"fmt"
)

// fileRepository handles database operations for managed files
type fileRepository struct {
	db *DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *DB) FileRepository {
	return &fileRepository{db: db}
}

// Load returns the file record, or nil when it does not exist
func (r *fileRepository) Load(id int64) (*File, error) {
	file := &File{ID: id}
	err := r.db.QueryRow(`
		SELECT uri, filename, mime_type, size FROM files WHERE id = ?
	`, id).Scan(&file.URI, &file.Filename, &file.MimeType, &file.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file %d: %w", id, err)
	}
	return file, nil
}

func (r *fileRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

// Create registers a file. Registering an already known URI returns the
// existing record's ID.
func (r *fileRepository) Create(file *File) error {
	err := r.db.QueryRow(`
		INSERT INTO files (uri, filename, mime_type, size)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (uri) DO UPDATE SET
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			size = excluded.size
		RETURNING id
	`, file.URI, file.Filename, file.MimeType, file.Size).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to save file %s: %w", file.URI, err)
	}
	return nil
}
