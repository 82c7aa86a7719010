package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTask scans a single row into a model.Task.
// The row must contain columns in the order defined by taskColumns.
func scanTask(row scannable) (*model.Task, error) {
	t, _, err := scanTaskRow(row, false)
	return t, err
}

// scanTaskWithTotal scans a row that has a leading total_count column
// followed by the standard task columns. Used by queryListTasks with
// COUNT(*) OVER().
func scanTaskWithTotal(row scannable) (*model.Task, int, error) {
	return scanTaskRow(row, true)
}

func scanTaskRow(row scannable, withTotal bool) (*model.Task, int, error) {
	var (
		t           model.Task
		total       int
		description sql.NullString
		createdBy   sql.NullString
	)

	dest := []any{&t.ID, &t.Title, &description, &t.Status, &t.CreatedAt, &createdBy, &t.UpdatedAt}
	if withTotal {
		dest = append([]any{&total}, dest...)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}

	t.Description = description.String
	t.CreatedBy = createdBy.String
	return &t, total, nil
}

// scanDependency scans a single row into a model.Dependency.
func scanDependency(row scannable) (*model.Dependency, error) {
	var d model.Dependency
	var createdBy sql.NullString
	err := row.Scan(
		&d.TaskID,
		&d.DependsOnID,
		&d.CreatedAt,
		&createdBy,
	)
	if err != nil {
		return nil, err
	}
	d.CreatedBy = createdBy.String
	return &d, nil
}

// scanDependencies scans multiple rows into a slice of model.Dependency pointers.
func scanDependencies(rows *sql.Rows) ([]*model.Dependency, error) {
	var deps []*model.Dependency
	for rows.Next() {
		d, err := scanDependency(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deps, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.TaskID, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
