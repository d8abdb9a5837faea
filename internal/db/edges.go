package db

import (
	"context"
	"database/sql"

	"github.com/dori/teamboard/internal/model"
)

// edgeSet holds the assignments and attachments of one entity kind
type edgeSet struct {
	users       map[string][]string
	groups      map[string][]string
	attachments map[string][]model.Attachment
}

func saveEdges(ctx context.Context, tx *sql.Tx, kind model.EntityKind, id string, userIDs, groupIDs []string, atts []model.Attachment) error {
	for i, uid := range userIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO assignments (entity_type, entity_id, target_type, target_id, position)
			VALUES (?, ?, ?, ?, ?)
		`, kind, id, model.TargetUser, uid, i); err != nil {
			return err
		}
	}
	for i, gid := range groupIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO assignments (entity_type, entity_id, target_type, target_id, position)
			VALUES (?, ?, ?, ?, ?)
		`, kind, id, model.TargetGroup, gid, i); err != nil {
			return err
		}
	}
	for i, a := range atts {
		uploaded := a.UploadedAt
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO attachments (entity_type, entity_id, position, name, path, size, mime_type, uploaded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, kind, id, i, a.Name, a.Path, a.Size, nullable(a.MIMEType), formatTime(&uploaded)); err != nil {
			return err
		}
	}
	return nil
}

func clearEdges(ctx context.Context, tx *sql.Tx, kind model.EntityKind) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE entity_type = ?`, kind); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE entity_type = ?`, kind)
	return err
}

// loadEdges reads every edge of kind. It must not run while another
// result set is open: the pool has a single connection.
func (db *DB) loadEdges(ctx context.Context, kind model.EntityKind) (edgeSet, error) {
	set := edgeSet{
		users:       make(map[string][]string),
		groups:      make(map[string][]string),
		attachments: make(map[string][]model.Attachment),
	}

	rows, err := db.QueryContext(ctx, `
		SELECT entity_id, target_type, target_id
		FROM assignments
		WHERE entity_type = ?
		ORDER BY entity_id, target_type, position
	`, kind)
	if err != nil {
		return set, err
	}
	for rows.Next() {
		var entityID, targetType, targetID string
		if err := rows.Scan(&entityID, &targetType, &targetID); err != nil {
			rows.Close()
			return set, err
		}
		switch model.TargetKind(targetType) {
		case model.TargetUser:
			set.users[entityID] = append(set.users[entityID], targetID)
		case model.TargetGroup:
			set.groups[entityID] = append(set.groups[entityID], targetID)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return set, err
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `
		SELECT entity_id, name, path, size, mime_type, uploaded_at
		FROM attachments
		WHERE entity_type = ?
		ORDER BY entity_id, position
	`, kind)
	if err != nil {
		return set, err
	}
	defer rows.Close()
	for rows.Next() {
		var entityID string
		var a model.Attachment
		var mime, uploaded *string
		if err := rows.Scan(&entityID, &a.Name, &a.Path, &a.Size, &mime, &uploaded); err != nil {
			return set, err
		}
		if mime != nil {
			a.MIMEType = *mime
		}
		a.UploadedAt = timeValue(uploaded)
		set.attachments[entityID] = append(set.attachments[entityID], a)
	}
	return set, rows.Err()
}

// GetEdges returns the direct assignments recorded for one task or project
func (db *DB) GetEdges(ctx context.Context, kind model.EntityKind, id string) ([]model.Edge, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT target_type, target_id
		FROM assignments
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY target_type DESC, position
	`, kind, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		e := model.Edge{EntityKind: kind, EntityID: id}
		var target string
		if err := rows.Scan(&target, &e.TargetID); err != nil {
			return nil, err
		}
		e.TargetKind = model.TargetKind(target)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
