package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/taskdeps/internal/model"
	"github.com/alfredjeanlab/taskdeps/internal/store"
)

// taskColumns is the column list used for SELECT statements on the tasks table.
const taskColumns = `id, title, description, status, created_at, created_by, updated_at`

const depColumns = `task_id, depends_on_id, created_at, created_by`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func queryCreateTask(ctx context.Context, db executor, t *model.Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, created_at, created_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		t.CreatedAt,
		nullString(t.CreatedBy),
		t.UpdatedAt,
	)
	return mapError(err)
}

func queryGetTask(ctx context.Context, db executor, id string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	deps, err := queryGetDependencies(ctx, db, id)
	if err != nil {
		return nil, err
	}
	t.Dependencies = dependsOnIDs(deps)

	return t, nil
}

func queryListTasks(ctx context.Context, db executor, filter model.TaskFilter) ([]*model.Task, int, error) {
	var args []any

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + taskColumns + " FROM tasks ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT $1"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	var total int
	for rows.Next() {
		t, n, err := scanTaskWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tasks: %w", err)
		}
		total = n
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan tasks: %w", err)
	}

	return tasks, total, nil
}

// queryUpdateTask never touches status, so a field edit cannot overwrite a
// status written by a concurrent propagation.
func queryUpdateTask(ctx context.Context, db executor, t *model.Task) error {
	var status string
	err := db.QueryRowContext(ctx, `
		UPDATE tasks SET
			title = $2,
			description = $3,
			updated_at = NOW()
		WHERE id = $1
		RETURNING status, updated_at`,
		t.ID,
		t.Title,
		t.Description,
	).Scan(&status, &t.UpdatedAt)
	if err != nil {
		return err
	}
	t.Status = model.Status(status)
	return nil
}

func querySetTaskStatus(ctx context.Context, db executor, id string, status model.Status) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET status = $2, updated_at = NOW()
		WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryDeleteTask(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryAddDependency(ctx context.Context, db executor, dep *model.Dependency) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO deps (task_id, depends_on_id, created_at, created_by)
		VALUES ($1, $2, $3, $4)`,
		dep.TaskID,
		dep.DependsOnID,
		dep.CreatedAt,
		nullString(dep.CreatedBy),
	)
	return mapError(err)
}

func queryRemoveDependency(ctx context.Context, db executor, taskID, dependsOnID string) error {
	res, err := db.ExecContext(ctx, `
		DELETE FROM deps
		WHERE task_id = $1 AND depends_on_id = $2`,
		taskID, dependsOnID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func queryGetDependencies(ctx context.Context, db executor, taskID string) ([]*model.Dependency, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+depColumns+`
		FROM deps
		WHERE task_id = $1
		ORDER BY depends_on_id`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func queryGetDependents(ctx context.Context, db executor, taskID string) ([]*model.Dependency, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+depColumns+`
		FROM deps
		WHERE depends_on_id = $1
		ORDER BY task_id`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func queryListDependencies(ctx context.Context, db executor) ([]*model.Dependency, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+depColumns+` FROM deps ORDER BY task_id, depends_on_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, task_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.TaskID, nullString(e.Actor), []byte(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, taskID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, task_id, actor, payload, created_at
		FROM events
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func queryGetGraph(ctx context.Context, db executor, limit int) (*model.GraphResponse, error) {
	if limit <= 0 {
		limit = 500
	}

	tasks, _, err := queryListTasks(ctx, db, model.TaskFilter{
		Limit: limit,
		Sort:  "-updated_at",
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list tasks: %w", err)
	}

	byID := make(map[string]*model.Task, len(tasks))
	for _, t := range tasks {
		t.Dependencies = []string{}
		byID[t.ID] = t
	}

	// Fetch all dependencies in one query (not per-task N+1).
	deps, err := queryListDependencies(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("graph: fetch deps: %w", err)
	}

	edges := []*model.GraphEdge{}
	for _, d := range deps {
		src, srcOK := byID[d.TaskID]
		if srcOK {
			src.Dependencies = append(src.Dependencies, d.DependsOnID)
		}
		// Only include edges where both endpoints are in the node set.
		if _, tgtOK := byID[d.DependsOnID]; srcOK && tgtOK {
			edges = append(edges, &model.GraphEdge{Source: d.TaskID, Target: d.DependsOnID})
		}
	}

	stats, err := queryGetStats(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}

	if tasks == nil {
		tasks = []*model.Task{}
	}

	return &model.GraphResponse{
		Nodes: tasks,
		Edges: edges,
		Stats: stats,
	}, nil
}

func queryGetStats(ctx context.Context, db executor) (*model.GraphStats, error) {
	stats := &model.GraphStats{}
	err := db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM tasks`).Scan(
		&stats.TotalPending,
		&stats.TotalInProgress,
		&stats.TotalBlocked,
		&stats.TotalCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"created_at": true, "updated_at": true, "title": true, "status": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// requireAffected turns a zero-row write into sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// mapError translates driver errors the callers care about.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

func dependsOnIDs(deps []*model.Dependency) []string {
	ids := make([]string, len(deps))
	for i, d := range deps {
		ids[i] = d.DependsOnID
	}
	return ids
}
