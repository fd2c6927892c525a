package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/temmy762/jarvis/internal/adapters/memory"
	"github.com/temmy762/jarvis/pkg/auth"
)

func newTestHandler(t *testing.T, adapter *memory.Adapter) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, adapter)
	mux := http.NewServeMux()
	NewHandler(svc, zap.NewNop()).Register(mux)

	// Stand-in for the auth middleware: every request runs as actor-1.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.ContextWithActor(r.Context(), &auth.ActorContext{
			ActorID: "actor-1",
			Roles:   []string{"user"},
		})
		mux.ServeHTTP(w, r.WithContext(ctx))
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStartEndpoint(t *testing.T) {
	h := newTestHandler(t, memory.New("notes", notesItems(12)))

	rec := doJSON(t, h, http.MethodPost, "/v1/bulk/start",
		`{"domain":"notes","params":{"action":"archive"},"batch_size":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Message, "12 items") {
		t.Errorf("expected a confirmation prompt, got %q", resp.Message)
	}
}

func TestStartEndpointValidation(t *testing.T) {
	h := newTestHandler(t, memory.New("notes", notesItems(12)))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing domain", `{"params":{"action":"archive"}}`, http.StatusBadRequest},
		{"bad json", `{nope`, http.StatusBadRequest},
		{"unknown domain", `{"domain":"calendar","params":{"action":"archive"}}`, http.StatusBadRequest},
		{"bad action", `{"domain":"notes","params":{"action":"explode"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/v1/bulk/start", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestStartEndpointConflictOnSecondSession(t *testing.T) {
	h := newTestHandler(t, memory.New("notes", notesItems(12)))
	body := `{"domain":"notes","params":{"action":"archive"},"batch_size":5}`

	if rec := doJSON(t, h, http.MethodPost, "/v1/bulk/start", body); rec.Code != http.StatusOK {
		t.Fatalf("first start: status = %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/v1/bulk/start", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("second start: status = %d, want 409", rec.Code)
	}
}

func TestTurnEndpointDrivesOperation(t *testing.T) {
	adapter := memory.New("notes", notesItems(12))
	h := newTestHandler(t, adapter)

	doJSON(t, h, http.MethodPost, "/v1/bulk/start",
		`{"domain":"notes","params":{"action":"archive"},"batch_size":5}`)

	rec := doJSON(t, h, http.MethodPost, "/v1/bulk/turn", `{"message":"continue"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("turn: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var reply TurnReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if !reply.Handled {
		t.Error("turn should be handled while a session is active")
	}
	if got := len(adapter.Applied()); got != 5 {
		t.Errorf("adapter executed on %d items, want 5", got)
	}
}

func TestTurnEndpointRetryableFault(t *testing.T) {
	adapter := memory.New("notes", notesItems(12))
	h := newTestHandler(t, adapter)

	doJSON(t, h, http.MethodPost, "/v1/bulk/start",
		`{"domain":"notes","params":{"action":"archive"},"batch_size":5}`)

	// A wholesale batch fault surfaces as a retry notice, not a 5xx: the
	// session survives and the same turn can be repeated.
	adapter.ExecuteErr = errors.New("backend down")
	rec := doJSON(t, h, http.MethodPost, "/v1/bulk/turn", `{"message":"continue"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("turn: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "nothing was changed") {
		t.Errorf("expected a retry notice, got %s", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := newTestHandler(t, memory.New("notes", notesItems(12)))

	rec := doJSON(t, h, http.MethodGet, "/v1/bulk/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No bulk operation") {
		t.Errorf("expected idle status, got %s", rec.Body.String())
	}
}

func TestDomainsEndpoint(t *testing.T) {
	h := newTestHandler(t, memory.New("notes", nil))

	rec := doJSON(t, h, http.MethodGet, "/v1/bulk/domains", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp["domains"]) != 1 || resp["domains"][0] != "notes" {
		t.Errorf("domains = %v, want [notes]", resp["domains"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, memory.New("notes", nil))

	rec := doJSON(t, h, http.MethodGet, "/v1/bulk/start", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Errorf("Allow = %q, want POST", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t, memory.New("notes", nil))

	rec := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}
