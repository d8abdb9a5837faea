package db

import (
	"context"
	"database/sql"

	"github.com/dori/teamboard/internal/model"
)

func saveProjects(ctx context.Context, tx *sql.Tx, projects []model.Project) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return err
	}
	if err := clearEdges(ctx, tx, model.EntityProject); err != nil {
		return err
	}

	for _, p := range projects {
		created, updated := p.CreatedAt, p.UpdatedAt
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO projects (id, title, description, status, start_date, end_date,
			                                 progress, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Title, nullable(p.Description), p.Status, formatTime(p.StartDate), formatTime(p.EndDate),
			p.Progress, formatTime(&created), formatTime(&updated))
		if err != nil {
			return err
		}
		if err := saveEdges(ctx, tx, model.EntityProject, p.ID, p.DirectUserIDs, p.GroupIDs, p.Attachments); err != nil {
			return err
		}
	}
	return nil
}

// GetProjects returns the cached projects with their assignments folded back in
func (db *DB) GetProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, status, start_date, end_date,
		       progress, created_at, updated_at
		FROM projects
		ORDER BY title, id
	`)
	if err != nil {
		return nil, err
	}

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var description, start, end, created, updated *string
		if err := rows.Scan(&p.ID, &p.Title, &description, &p.Status, &start, &end,
			&p.Progress, &created, &updated); err != nil {
			rows.Close()
			return nil, err
		}
		if description != nil {
			p.Description = *description
		}
		p.StartDate = parseTime(start)
		p.EndDate = parseTime(end)
		p.CreatedAt = timeValue(created)
		p.UpdatedAt = timeValue(updated)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	edges, err := db.loadEdges(ctx, model.EntityProject)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		id := projects[i].ID
		projects[i].DirectUserIDs = edges.users[id]
		projects[i].GroupIDs = edges.groups[id]
		projects[i].Attachments = edges.attachments[id]
	}
	return projects, nil
}
