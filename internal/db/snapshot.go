package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dori/teamboard/internal/store"
)

// SaveSnapshot writes every loaded section of snap in one transaction.
// Sections that never loaded keep whatever the cache held before.
func (db *DB) SaveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, sec := range store.AllSections {
			st := snap.State(sec)
			if !st.Loaded || st.Cached {
				continue
			}
			if err := saveSection(ctx, tx, snap, sec); err != nil {
				return fmt.Errorf("failed to save %s: %w", sec, err)
			}
			at := st.At
			if at.IsZero() {
				at = time.Now()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sections (name, saved_at) VALUES (?, ?)
				ON CONFLICT(name) DO UPDATE SET saved_at = excluded.saved_at
			`, string(sec), formatTime(&at)); err != nil {
				return fmt.Errorf("failed to stamp %s: %w", sec, err)
			}
		}
		return nil
	})
}

func saveSection(ctx context.Context, tx *sql.Tx, snap *store.Snapshot, sec store.Section) error {
	switch sec {
	case store.SectionUsers:
		return saveUsers(ctx, tx, snap.Users)
	case store.SectionGroups:
		return saveGroups(ctx, tx, snap.Groups)
	case store.SectionMemberships:
		return saveMemberships(ctx, tx, snap.Memberships)
	case store.SectionTasks:
		return saveTasks(ctx, tx, snap.Tasks)
	case store.SectionProjects:
		return saveProjects(ctx, tx, snap.Projects)
	}
	return fmt.Errorf("unknown section %q", sec)
}

// SavedSections returns when each cached section was last written
func (db *DB) SavedSections(ctx context.Context) (map[store.Section]time.Time, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, saved_at FROM sections`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := make(map[store.Section]time.Time)
	for rows.Next() {
		var name string
		var at *string
		if err := rows.Scan(&name, &at); err != nil {
			return nil, err
		}
		sec, err := store.ParseSection(name)
		if err != nil {
			continue
		}
		saved[sec] = timeValue(at)
	}
	return saved, rows.Err()
}

// LoadSnapshot reads back every section the cache holds
func (db *DB) LoadSnapshot(ctx context.Context) (store.Cached, error) {
	saved, err := db.SavedSections(ctx)
	if err != nil {
		return store.Cached{}, fmt.Errorf("failed to read cache sections: %w", err)
	}

	c := store.Cached{Sections: saved}
	for sec := range saved {
		switch sec {
		case store.SectionUsers:
			c.Users, err = db.GetUsers(ctx)
		case store.SectionGroups:
			c.Groups, err = db.GetGroups(ctx)
		case store.SectionMemberships:
			c.Memberships, err = db.GetMemberships(ctx)
		case store.SectionTasks:
			c.Tasks, err = db.GetTasks(ctx)
		case store.SectionProjects:
			c.Projects, err = db.GetProjects(ctx)
		}
		if err != nil {
			return store.Cached{}, fmt.Errorf("failed to load cached %s: %w", sec, err)
		}
	}
	return c, nil
}
