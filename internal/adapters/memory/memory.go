// Package memory provides a deterministic in-memory bulk adapter. It backs
// the demo domain in development configurations and gives tests an adapter
// with injectable failures and full visibility into what was executed.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/temmy762/jarvis/internal/domain"
)

// Item is a record in the in-memory collection.
type Item struct {
	ID   string
	Name string
	Tag  string
}

// Adapter implements domain.Adapter over a fixed slice of items. Actions
// mark items rather than removing them, so offsets stay stable across
// batches.
type Adapter struct {
	name string

	mu      sync.Mutex
	items   []Item
	applied map[string]string // item ID -> action applied

	// Failure injection for tests and demos.
	FailItems  map[string]string // item ID -> error message (per-item failure)
	CountErr   error
	FetchErr   error
	ExecuteErr error
}

const (
	ActionTag     = "tag"
	ActionArchive = "archive"
)

// New builds an adapter named name over the given items.
func New(name string, items []Item) *Adapter {
	return &Adapter{
		name:    name,
		items:   append([]Item(nil), items...),
		applied: map[string]string{},
	}
}

func (a *Adapter) Name() string { return a.name }

// Prepare validates the action and builds the opaque context. The optional
// tag parameter narrows the matching set.
func (a *Adapter) Prepare(_ context.Context, params map[string]string) (domain.PreparedBulkContext, error) {
	action := params["action"]
	if action != ActionTag && action != ActionArchive {
		return domain.PreparedBulkContext{}, fmt.Errorf("%w: action must be %q or %q, got %q",
			domain.ErrInvalidParams, ActionTag, ActionArchive, action)
	}

	queryParams := map[string]string{}
	if tag := params["tag"]; tag != "" {
		queryParams["tag"] = tag
	}

	actionParams := map[string]string{}
	if action == ActionTag {
		label := params["label"]
		if label == "" {
			return domain.PreparedBulkContext{}, fmt.Errorf("%w: label is required for action %q",
				domain.ErrInvalidParams, ActionTag)
		}
		actionParams["label"] = label
	}

	return domain.PreparedBulkContext{
		Domain:       a.name,
		Action:       action,
		QueryParams:  queryParams,
		ActionParams: actionParams,
	}, nil
}

func (a *Adapter) TotalCount(_ context.Context, pctx domain.PreparedBulkContext) (int, error) {
	if a.CountErr != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCountFailed, a.CountErr)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.matching(pctx)), nil
}

func (a *Adapter) NextBatch(_ context.Context, pctx domain.PreparedBulkContext, batchSize, offset int) ([]domain.BulkItem, error) {
	if a.FetchErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, a.FetchErr)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	matching := a.matching(pctx)
	if offset >= len(matching) {
		return nil, nil
	}
	end := offset + batchSize
	if end > len(matching) {
		end = len(matching)
	}

	batch := make([]domain.BulkItem, 0, end-offset)
	for _, it := range matching[offset:end] {
		batch = append(batch, domain.BulkItem{ID: it.ID, DisplayName: it.Name})
	}
	return batch, nil
}

func (a *Adapter) ExecuteBatch(_ context.Context, items []domain.BulkItem, pctx domain.PreparedBulkContext) ([]domain.BulkResult, error) {
	if a.ExecuteErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExecuteFailed, a.ExecuteErr)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]domain.BulkResult, 0, len(items))
	for _, item := range items {
		if msg, ok := a.FailItems[item.ID]; ok {
			results = append(results, domain.BulkResult{ItemID: item.ID, Success: false, Error: msg})
			continue
		}
		a.applied[item.ID] = pctx.Action
		results = append(results, domain.BulkResult{ItemID: item.ID, Success: true})
	}
	return results, nil
}

// Applied returns the IDs of items an action was executed on, sorted.
func (a *Adapter) Applied() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.applied))
	for id := range a.applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (a *Adapter) matching(pctx domain.PreparedBulkContext) []Item {
	tag := pctx.QueryParams["tag"]
	out := make([]Item, 0, len(a.items))
	for _, it := range a.items {
		if tag != "" && it.Tag != tag {
			continue
		}
		out = append(out, it)
	}
	return out
}
