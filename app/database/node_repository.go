package database

import (
	"database/sql"
	"fmt"
)

// nodeRepository handles database operations for nodes
type nodeRepository struct {
	db *DB
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(db *DB) NodeRepository {
	return &nodeRepository{db: db}
}

func (r *nodeRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

func (r *nodeRepository) CountByType(nodeType string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE type = ?`, nodeType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

// ListIDsAfter returns up to limit node IDs of a type greater than afterID,
// in ascending ID order
func (r *nodeRepository) ListIDsAfter(nodeType string, afterID int64, limit int) ([]int64, error) {
	rows, err := r.db.Query(`
		SELECT id FROM nodes
		WHERE type = ? AND id > ?
		ORDER BY id ASC
		LIMIT ?
	`, nodeType, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan node id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Load returns the node with its translations and sections, or nil when it does not exist
func (r *nodeRepository) Load(id int64) (*Node, error) {
	node := &Node{ID: id, Translations: map[string]*NodeTranslation{}}

	err := r.db.QueryRow(`
		SELECT type, default_langcode, revision_id FROM nodes WHERE id = ?
	`, id).Scan(&node.Type, &node.DefaultLangcode, &node.RevisionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load node %d: %w", id, err)
	}

	rows, err := r.db.Query(`
		SELECT langcode, title, thumbnail_fid, computed_image, computed_image_format
		FROM node_translations
		WHERE node_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations of node %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr NodeTranslation
		var fid sql.NullInt64
		if err := rows.Scan(&tr.Langcode, &tr.Title, &fid, &tr.ComputedImage.Value, &tr.ComputedImage.Format); err != nil {
			return nil, fmt.Errorf("failed to scan node translation: %w", err)
		}
		if fid.Valid {
			v := fid.Int64
			tr.ThumbnailFileID = &v
		}
		node.Translations[tr.Langcode] = &tr
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sections, err := r.db.Query(`
		SELECT block_id, block_revision_id FROM node_sections
		WHERE node_id = ?
		ORDER BY delta ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load sections of node %d: %w", id, err)
	}
	defer sections.Close()

	for sections.Next() {
		var ref SectionRef
		if err := sections.Scan(&ref.BlockID, &ref.RevisionID); err != nil {
			return nil, fmt.Errorf("failed to scan node section: %w", err)
		}
		node.Sections = append(node.Sections, ref)
	}

	return node, sections.Err()
}

// Create inserts a node with all its translations and sections and records
// an initial revision. The node's ID and RevisionID are set on success.
func (r *nodeRepository) Create(node *Node) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO nodes (type, default_langcode) VALUES (?, ?)
	`, node.Type, node.DefaultLangcode)
	if err != nil {
		return fmt.Errorf("failed to insert node: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read node id: %w", err)
	}

	for delta, ref := range node.Sections {
		if _, err := tx.Exec(`
			INSERT INTO node_sections (node_id, delta, block_id, block_revision_id)
			VALUES (?, ?, ?, ?)
		`, id, delta, ref.BlockID, ref.RevisionID); err != nil {
			return fmt.Errorf("failed to insert node section: %w", err)
		}
	}

	var revisionID int64
	for _, lc := range node.Langcodes() {
		tr := node.Translations[lc]
		tr.Langcode = lc
		if err := upsertTranslation(tx, id, tr); err != nil {
			return err
		}
		if revisionID, err = insertRevision(tx, id, tr); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE nodes SET revision_id = ? WHERE id = ?`, revisionID, id); err != nil {
		return fmt.Errorf("failed to update node revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit node: %w", err)
	}

	node.ID = id
	node.RevisionID = revisionID
	return nil
}

// SaveTranslation persists a single translation of an existing node
func (r *nodeRepository) SaveTranslation(node *Node, langcode string, opts SaveOptions) error {
	tr := node.Translation(langcode)
	if tr == nil {
		return fmt.Errorf("node %d has no %q translation", node.ID, langcode)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertTranslation(tx, node.ID, tr); err != nil {
		return err
	}

	revisionID := node.RevisionID
	if opts.NewRevision {
		if revisionID, err = insertRevision(tx, node.ID, tr); err != nil {
			return err
		}
	}

	res, err := tx.Exec(`
		UPDATE nodes SET revision_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, revisionID, node.ID)
	if err != nil {
		return fmt.Errorf("failed to update node %d: %w", node.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("node %d does not exist", node.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit node translation: %w", err)
	}

	node.RevisionID = revisionID
	return nil
}

func upsertTranslation(tx *sql.Tx, nodeID int64, tr *NodeTranslation) error {
	_, err := tx.Exec(`
		INSERT INTO node_translations (node_id, langcode, title, thumbnail_fid, computed_image, computed_image_format)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (node_id, langcode) DO UPDATE SET
			title = excluded.title,
			thumbnail_fid = excluded.thumbnail_fid,
			computed_image = excluded.computed_image,
			computed_image_format = excluded.computed_image_format,
			updated_at = CURRENT_TIMESTAMP
	`, nodeID, tr.Langcode, tr.Title, nullableID(tr.ThumbnailFileID), tr.ComputedImage.Value, tr.ComputedImage.Format)
	if err != nil {
		return fmt.Errorf("failed to save %s translation of node %d: %w", tr.Langcode, nodeID, err)
	}
	return nil
}

func insertRevision(tx *sql.Tx, nodeID int64, tr *NodeTranslation) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO node_revisions (node_id, langcode, title, thumbnail_fid, computed_image, computed_image_format)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nodeID, tr.Langcode, tr.Title, nullableID(tr.ThumbnailFileID), tr.ComputedImage.Value, tr.ComputedImage.Format)
	if err != nil {
		return 0, fmt.Errorf("failed to insert revision of node %d: %w", nodeID, err)
	}
	return res.LastInsertId()
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
