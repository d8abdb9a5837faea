package db

import (
	"context"
	"database/sql"

	"github.com/dori/teamboard/internal/model"
)

func saveUsers(ctx context.Context, tx *sql.Tx, users []model.User) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (id, email, name, role, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range users {
		created := u.CreatedAt
		if _, err := stmt.ExecContext(ctx, u.ID, u.Email, u.Name, string(u.Role), formatTime(&created)); err != nil {
			return err
		}
	}
	return nil
}

// GetUsers returns the cached users ordered by name
func (db *DB) GetUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, email, name, role, created_at FROM users ORDER BY COALESCE(NULLIF(name, ''), email), id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var role string
		var created *string
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &role, &created); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		u.CreatedAt = timeValue(created)
		users = append(users, u)
	}
	return users, rows.Err()
}

func saveGroups(ctx context.Context, tx *sql.Tx, groups []model.Group) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM "groups"`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO "groups" (id, name, description, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range groups {
		created := g.CreatedAt
		if _, err := stmt.ExecContext(ctx, g.ID, g.Name, nullable(g.Description), formatTime(&created)); err != nil {
			return err
		}
	}
	return nil
}

// GetGroups returns the cached groups ordered by name
func (db *DB) GetGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, description, created_at FROM "groups" ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var g model.Group
		var description, created *string
		if err := rows.Scan(&g.ID, &g.Name, &description, &created); err != nil {
			return nil, err
		}
		if description != nil {
			g.Description = *description
		}
		g.CreatedAt = timeValue(created)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func saveMemberships(ctx context.Context, tx *sql.Tx, ms []model.Membership) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM memberships`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO memberships (group_id, user_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, m.GroupID, m.UserID); err != nil {
			return err
		}
	}
	return nil
}

// GetMemberships returns every cached membership
func (db *DB) GetMemberships(ctx context.Context) ([]model.Membership, error) {
	rows, err := db.QueryContext(ctx, `SELECT group_id, user_id FROM memberships ORDER BY group_id, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ms []model.Membership
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.GroupID, &m.UserID); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
