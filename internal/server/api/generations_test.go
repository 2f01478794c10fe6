package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func serve(h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seedGenerations(t *testing.T, s *store.Store, n int) []uuid.UUID {
	t.Helper()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < n; i++ {
		id := uuid.New()
		if _, err := s.Generations().Create(id, []byte("png-"+id.String()), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("failed to create generation: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestGenerationHandler_List(t *testing.T) {
	s := newTestStore(t)
	ids := seedGenerations(t, s, 3)
	handler := NewGenerationHandler(s)

	rec := serve(handler, http.MethodGet, "/api/generations?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp listGenerationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Generations) != 2 {
		t.Fatalf("len = %d, want 2", len(resp.Generations))
	}
	if resp.Generations[0].ID != ids[2] {
		t.Errorf("first = %s, want newest %s", resp.Generations[0].ID, ids[2])
	}
}

func TestGenerationHandler_ListEmpty(t *testing.T) {
	rec := serve(NewGenerationHandler(newTestStore(t)), http.MethodGet, "/api/generations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"generations\":[]}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestGenerationHandler_BadLimit(t *testing.T) {
	rec := serve(NewGenerationHandler(newTestStore(t)), http.MethodGet, "/api/generations?limit=-3", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGenerationHandler_Get(t *testing.T) {
	s := newTestStore(t)
	ids := seedGenerations(t, s, 1)
	handler := NewGenerationHandler(s)

	rec := serve(handler, http.MethodGet, "/api/generations/"+ids[0].String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var g store.Generation
	if err := json.NewDecoder(rec.Body).Decode(&g); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if g.ID != ids[0] || g.Status != store.StatusPending {
		t.Errorf("generation = %+v", g)
	}
}

func TestGenerationHandler_Snapshot(t *testing.T) {
	s := newTestStore(t)
	ids := seedGenerations(t, s, 1)

	rec := serve(NewGenerationHandler(s), http.MethodGet, "/api/generations/"+ids[0].String()+"/snapshot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if got := rec.Body.String(); got != "png-"+ids[0].String() {
		t.Errorf("body = %q", got)
	}
}

func TestGenerationHandler_Errors(t *testing.T) {
	handler := NewGenerationHandler(newTestStore(t))
	missing := uuid.New().String()

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"unknown id", http.MethodGet, "/api/generations/" + missing, http.StatusNotFound},
		{"unknown snapshot", http.MethodGet, "/api/generations/" + missing + "/snapshot", http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/generations/not-a-uuid", http.StatusBadRequest},
		{"post", http.MethodPost, "/api/generations", http.StatusMethodNotAllowed},
		{"delete", http.MethodDelete, "/api/generations/" + missing, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(handler, tt.method, tt.target, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("expected a JSON error body, got %v", err)
			}
		})
	}
}

func TestGenerationHandler_Exports(t *testing.T) {
	s := newTestStore(t)
	ids := seedGenerations(t, s, 1)
	if _, err := s.Generations().AddExport(ids[0], "ai", "/tmp/x.png", time.Now()); err != nil {
		t.Fatalf("failed to add export: %v", err)
	}

	rec := serve(NewGenerationHandler(s), http.MethodGet, "/api/generations/exports", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp listExportsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Exports) != 1 || resp.Exports[0].View != "ai" {
		t.Errorf("exports = %+v", resp.Exports)
	}
}
