package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/temmy762/jarvis/internal/domain"
)

var fixture = []Item{
	{ID: "n1", Name: "Groceries", Tag: "home"},
	{ID: "n2", Name: "Standup notes", Tag: "work"},
	{ID: "n3", Name: "Retro notes", Tag: "work"},
	{ID: "n4", Name: "Packing list", Tag: "home"},
	{ID: "n5", Name: "1:1 notes", Tag: "work"},
}

func TestPrepare(t *testing.T) {
	a := New("notes", fixture)

	tests := []struct {
		name    string
		params  map[string]string
		wantErr bool
	}{
		{"archive", map[string]string{"action": "archive"}, false},
		{"archive with tag", map[string]string{"action": "archive", "tag": "work"}, false},
		{"tag with label", map[string]string{"action": "tag", "label": "done"}, false},
		{"tag without label", map[string]string{"action": "tag"}, true},
		{"unknown action", map[string]string{"action": "shred"}, true},
		{"no action", map[string]string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pctx, err := a.Prepare(context.Background(), tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Prepare() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidParams) {
					t.Errorf("expected ErrInvalidParams, got %v", err)
				}
				return
			}
			if pctx.Domain != "notes" {
				t.Errorf("context domain = %q, want notes", pctx.Domain)
			}
		})
	}
}

func TestTotalCountFiltersByTag(t *testing.T) {
	a := New("notes", fixture)

	pctx, err := a.Prepare(context.Background(), map[string]string{"action": "archive", "tag": "work"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	total, err := a.TotalCount(context.Background(), pctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestNextBatchPaging(t *testing.T) {
	a := New("notes", fixture)
	pctx, err := a.Prepare(context.Background(), map[string]string{"action": "archive"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	tests := []struct {
		offset, size int
		wantIDs      []string
	}{
		{0, 2, []string{"n1", "n2"}},
		{2, 2, []string{"n3", "n4"}},
		{4, 2, []string{"n5"}},
		{5, 2, nil},
		{0, 10, []string{"n1", "n2", "n3", "n4", "n5"}},
	}

	for _, tt := range tests {
		batch, err := a.NextBatch(context.Background(), pctx, tt.size, tt.offset)
		if err != nil {
			t.Fatalf("NextBatch(%d, %d): %v", tt.size, tt.offset, err)
		}
		ids := make([]string, 0, len(batch))
		for _, it := range batch {
			ids = append(ids, it.ID)
		}
		if len(ids) == 0 {
			ids = nil
		}
		if !reflect.DeepEqual(ids, tt.wantIDs) {
			t.Errorf("NextBatch(size=%d, offset=%d) = %v, want %v", tt.size, tt.offset, ids, tt.wantIDs)
		}
	}
}

func TestExecuteBatchRecordsAndFails(t *testing.T) {
	a := New("notes", fixture)
	a.FailItems = map[string]string{"n2": "locked"}

	pctx, err := a.Prepare(context.Background(), map[string]string{"action": "archive"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	items := []domain.BulkItem{{ID: "n1"}, {ID: "n2"}, {ID: "n3"}}

	results, err := a.ExecuteBatch(context.Background(), items, pctx)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(results) != len(items) {
		t.Fatalf("got %d results for %d items", len(results), len(items))
	}
	if results[0].Success != true || results[1].Success != false || results[2].Success != true {
		t.Errorf("unexpected results: %+v", results)
	}
	if results[1].Error != "locked" {
		t.Errorf("failure message = %q, want locked", results[1].Error)
	}
	if got := a.Applied(); !reflect.DeepEqual(got, []string{"n1", "n3"}) {
		t.Errorf("Applied() = %v, want [n1 n3]", got)
	}
}

func TestInjectedFaults(t *testing.T) {
	a := New("notes", fixture)
	a.CountErr = errors.New("count down")
	a.FetchErr = errors.New("fetch down")
	a.ExecuteErr = errors.New("execute down")

	pctx := domain.PreparedBulkContext{Domain: "notes", Action: "archive"}

	if _, err := a.TotalCount(context.Background(), pctx); !errors.Is(err, domain.ErrCountFailed) {
		t.Errorf("count: expected ErrCountFailed, got %v", err)
	}
	if _, err := a.NextBatch(context.Background(), pctx, 5, 0); !errors.Is(err, domain.ErrFetchFailed) {
		t.Errorf("fetch: expected ErrFetchFailed, got %v", err)
	}
	if _, err := a.ExecuteBatch(context.Background(), nil, pctx); !errors.Is(err, domain.ErrExecuteFailed) {
		t.Errorf("execute: expected ErrExecuteFailed, got %v", err)
	}
}
