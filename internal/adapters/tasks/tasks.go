// Package tasks implements the bulk adapter for the task service backed by
// Postgres. Supported actions: complete, archive and delete (soft).
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/temmy762/jarvis/internal/domain"
)

const (
	DomainName = "tasks"

	ActionComplete = "complete"
	ActionArchive  = "archive"
	ActionDelete   = "delete"

	queryTimeout = 5 * time.Second
)

// Adapter implements domain.Adapter over the tasks table.
//
// Batches are fetched with LIMIT/OFFSET ordered by (created_at, id), which
// keeps offsets stable against new tasks arriving at the head. Tasks deleted
// or re-labelled between batches can still cause items to be skipped or seen
// twice; that is the documented best-effort pagination of the adapter
// contract, and execution reports such items as failed rather than hiding
// them.
type Adapter struct {
	db     *sql.DB
	tracer trace.Tracer
}

func New(db *sql.DB) *Adapter {
	return &Adapter{
		db:     db,
		tracer: otel.Tracer("tasks-adapter"),
	}
}

func (a *Adapter) Name() string { return DomainName }

// Prepare validates raw parameters and resolves the optional project name to
// its ID. No task rows are read or written here.
func (a *Adapter) Prepare(ctx context.Context, params map[string]string) (domain.PreparedBulkContext, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "tasks.Prepare")
	defer span.End()

	action := params["action"]
	switch action {
	case ActionComplete, ActionArchive, ActionDelete:
	default:
		return domain.PreparedBulkContext{}, fmt.Errorf(
			"%w: action must be one of complete, archive, delete; got %q",
			domain.ErrInvalidParams, action)
	}

	queryParams := map[string]string{}
	for _, key := range []string{"status", "tag", "owner"} {
		if v := strings.TrimSpace(params[key]); v != "" {
			queryParams[key] = v
		}
	}

	if project := strings.TrimSpace(params["project"]); project != "" {
		projectID, err := a.resolveProjectID(ctx, project)
		if err != nil {
			span.RecordError(err)
			return domain.PreparedBulkContext{}, err
		}
		queryParams["project_id"] = projectID
		queryParams["project"] = project
	}

	if len(queryParams) == 0 {
		return domain.PreparedBulkContext{}, fmt.Errorf(
			"%w: at least one of status, tag, owner or project is required",
			domain.ErrInvalidParams)
	}

	span.SetAttributes(attribute.String("tasks.action", action))

	return domain.PreparedBulkContext{
		Domain:       DomainName,
		Action:       action,
		QueryParams:  queryParams,
		ActionParams: map[string]string{},
	}, nil
}

func (a *Adapter) resolveProjectID(ctx context.Context, name string) (string, error) {
	var id string
	err := a.db.QueryRowContext(ctx,
		`SELECT id FROM projects WHERE lower(name) = lower($1)`, name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: project %q not found", domain.ErrInvalidParams, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve project %q: %w", name, err)
	}
	return id, nil
}

func (a *Adapter) TotalCount(ctx context.Context, pctx domain.PreparedBulkContext) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "tasks.TotalCount")
	defer span.End()

	where, args := buildWhereClause(pctx)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE %s`, where)

	var count int
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: %v", domain.ErrCountFailed, err)
	}

	span.SetAttributes(attribute.Int("tasks.count", count))
	return count, nil
}

func (a *Adapter) NextBatch(ctx context.Context, pctx domain.PreparedBulkContext, batchSize, offset int) ([]domain.BulkItem, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "tasks.NextBatch")
	defer span.End()

	where, args := buildWhereClause(pctx)
	query := fmt.Sprintf(`
		SELECT id, title
		FROM tasks
		WHERE %s
		ORDER BY created_at, id
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, batchSize, offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer rows.Close()

	items := make([]domain.BulkItem, 0, batchSize)
	for rows.Next() {
		var item domain.BulkItem
		if err := rows.Scan(&item.ID, &item.DisplayName); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	span.SetAttributes(attribute.Int("tasks.batch", len(items)))
	return items, nil
}

// ExecuteBatch applies the action with a single UPDATE over the whole batch.
// Items the statement did not touch (deleted or changed since the fetch) come
// back as failed results; a statement-level error is a batch-wide fault and
// means nothing was processed.
func (a *Adapter) ExecuteBatch(ctx context.Context, items []domain.BulkItem, pctx domain.PreparedBulkContext) ([]domain.BulkResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, "tasks.ExecuteBatch")
	defer span.End()

	span.SetAttributes(
		attribute.String("tasks.action", pctx.Action),
		attribute.Int("tasks.batch_size", len(items)),
	)

	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	now := time.Now().UTC()
	var query string
	switch pctx.Action {
	case ActionComplete:
		query = `
			UPDATE tasks
			SET status = 'completed', completed_at = $1, updated_at = $1
			WHERE id = ANY($2) AND deleted_at IS NULL
			RETURNING id
		`
	case ActionArchive:
		query = `
			UPDATE tasks
			SET status = 'archived', updated_at = $1
			WHERE id = ANY($2) AND deleted_at IS NULL
			RETURNING id
		`
	case ActionDelete:
		query = `
			UPDATE tasks
			SET deleted_at = $1, updated_at = $1
			WHERE id = ANY($2) AND deleted_at IS NULL
			RETURNING id
		`
	default:
		return nil, fmt.Errorf("%w: unsupported tasks action %q", domain.ErrExecuteFailed, pctx.Action)
	}

	rows, err := a.db.QueryContext(ctx, query, now, pq.Array(ids))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrExecuteFailed, err)
	}
	defer rows.Close()

	updated := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: %v", domain.ErrExecuteFailed, err)
		}
		updated[id] = true
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrExecuteFailed, err)
	}

	results := make([]domain.BulkResult, len(items))
	for i, item := range items {
		if updated[item.ID] {
			results[i] = domain.BulkResult{ItemID: item.ID, Success: true}
		} else {
			results[i] = domain.BulkResult{
				ItemID:  item.ID,
				Success: false,
				Error:   "task no longer exists or was already processed",
			}
		}
	}
	return results, nil
}

func buildWhereClause(pctx domain.PreparedBulkContext) (string, []any) {
	conditions := []string{"deleted_at IS NULL"}
	args := []any{}
	argCount := 0

	if status, ok := pctx.QueryParams["status"]; ok {
		argCount++
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, status)
	}
	if tag, ok := pctx.QueryParams["tag"]; ok {
		argCount++
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argCount))
		args = append(args, tag)
	}
	if owner, ok := pctx.QueryParams["owner"]; ok {
		argCount++
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argCount))
		args = append(args, owner)
	}
	if projectID, ok := pctx.QueryParams["project_id"]; ok {
		argCount++
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argCount))
		args = append(args, projectID)
	}

	return strings.Join(conditions, " AND "), args
}
