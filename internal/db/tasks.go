package db

import (
	"context"
	"database/sql"

	"github.com/dori/teamboard/internal/model"
)

func saveTasks(ctx context.Context, tx *sql.Tx, tasks []model.Task) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	if err := clearEdges(ctx, tx, model.EntityTask); err != nil {
		return err
	}

	for _, t := range tasks {
		created, updated := t.CreatedAt, t.UpdatedAt
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO tasks (id, title, description, status, priority, deadline,
			                              progress, project_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Title, nullable(t.Description), t.Status, t.Priority, formatTime(t.Deadline),
			t.Progress, t.ProjectID, formatTime(&created), formatTime(&updated))
		if err != nil {
			return err
		}
		if err := saveEdges(ctx, tx, model.EntityTask, t.ID, t.DirectUserIDs, t.GroupIDs, t.Attachments); err != nil {
			return err
		}
	}
	return nil
}

// GetTasks returns the cached tasks with their assignments folded back in
func (db *DB) GetTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, status, priority, deadline,
		       progress, project_id, created_at, updated_at
		FROM tasks
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	// rows are closed; the edge queries need the connection
	edges, err := db.loadEdges(ctx, model.EntityTask)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		id := tasks[i].ID
		tasks[i].DirectUserIDs = edges.users[id]
		tasks[i].GroupIDs = edges.groups[id]
		tasks[i].Attachments = edges.attachments[id]
	}
	return tasks, nil
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var description, deadline, created, updated *string
		err := rows.Scan(
			&t.ID, &t.Title, &description, &t.Status, &t.Priority, &deadline,
			&t.Progress, &t.ProjectID, &created, &updated,
		)
		if err != nil {
			return nil, err
		}
		if description != nil {
			t.Description = *description
		}
		t.Deadline = parseTime(deadline)
		t.CreatedAt = timeValue(created)
		t.UpdatedAt = timeValue(updated)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
