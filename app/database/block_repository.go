package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// blockRepository handles database operations for content blocks
type blockRepository struct {
	db *DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *DB) BlockRepository {
	return &blockRepository{db: db}
}

// LatestRevisions finds the blocks of blockType owning any of revisionIDs and
// returns each block once, at its latest revision, in the order the
// referenced revisions were given.
func (r *blockRepository) LatestRevisions(revisionIDs []int64, blockType string) ([]RevisionRef, error) {
	if len(revisionIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(revisionIDs)), ",")
	args := make([]any, 0, len(revisionIDs)+1)
	for _, id := range revisionIDs {
		args = append(args, id)
	}
	args = append(args, blockType)

	rows, err := r.db.Query(`
		SELECT br.revision_id, b.id, b.revision_id
		FROM block_revisions br
		JOIN blocks b ON b.id = br.block_id
		WHERE br.revision_id IN (`+placeholders+`) AND b.type = ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query block revisions: %w", err)
	}
	defer rows.Close()

	byReference := make(map[int64]RevisionRef)
	for rows.Next() {
		var referenced int64
		var ref RevisionRef
		if err := rows.Scan(&referenced, &ref.BlockID, &ref.RevisionID); err != nil {
			return nil, fmt.Errorf("failed to scan block revision: %w", err)
		}
		byReference[referenced] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var refs []RevisionRef
	for _, id := range revisionIDs {
		ref, ok := byReference[id]
		if !ok || seen[ref.BlockID] {
			continue
		}
		seen[ref.BlockID] = true
		refs = append(refs, ref)
	}

	return refs, nil
}

// LoadRevision returns the block as stored at revisionID, or nil when the revision does not exist
func (r *blockRepository) LoadRevision(revisionID int64) (*Block, error) {
	block := &Block{RevisionID: revisionID, Translations: map[string]*BlockTranslation{}}

	err := r.db.QueryRow(`
		SELECT b.id, b.type, b.default_langcode, b.translatable
		FROM block_revisions br
		JOIN blocks b ON b.id = br.block_id
		WHERE br.revision_id = ?
	`, revisionID).Scan(&block.ID, &block.Type, &block.DefaultLangcode, &block.Translatable)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load block revision %d: %w", revisionID, err)
	}

	rows, err := r.db.Query(`
		SELECT langcode, type, background_fid
		FROM block_revision_translations
		WHERE revision_id = ?
	`, revisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load block translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr BlockTranslation
		var fid sql.NullInt64
		if err := rows.Scan(&tr.Langcode, &tr.Type, &fid); err != nil {
			return nil, fmt.Errorf("failed to scan block translation: %w", err)
		}
		if fid.Valid {
			v := fid.Int64
			tr.BackgroundFileID = &v
		}
		block.Translations[tr.Langcode] = &tr
	}

	return block, rows.Err()
}

// Create inserts a block with a single revision holding its translations.
// Creating a block with an ID already set adds a new revision to it.
func (r *blockRepository) Create(block *Block) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := block.ID
	if id == 0 {
		res, err := tx.Exec(`
			INSERT INTO blocks (type, default_langcode, translatable) VALUES (?, ?, ?)
		`, block.Type, block.DefaultLangcode, block.Translatable)
		if err != nil {
			return fmt.Errorf("failed to insert block: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read block id: %w", err)
		}
	}

	res, err := tx.Exec(`INSERT INTO block_revisions (block_id) VALUES (?)`, id)
	if err != nil {
		return fmt.Errorf("failed to insert block revision: %w", err)
	}
	revisionID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read block revision id: %w", err)
	}

	for lc, tr := range block.Translations {
		blockType := tr.Type
		if blockType == "" {
			blockType = block.Type
		}
		if _, err := tx.Exec(`
			INSERT INTO block_revision_translations (revision_id, langcode, type, background_fid)
			VALUES (?, ?, ?, ?)
		`, revisionID, lc, blockType, nullableID(tr.BackgroundFileID)); err != nil {
			return fmt.Errorf("failed to insert block translation: %w", err)
		}
	}

	if _, err := tx.Exec(`UPDATE blocks SET revision_id = ? WHERE id = ?`, revisionID, id); err != nil {
		return fmt.Errorf("failed to update block revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit block: %w", err)
	}

	block.ID = id
	block.RevisionID = revisionID
	return nil
}
