package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitelog/internal/core"
	"sitelog/internal/persistence/memory"
	"sitelog/internal/services"
)

func newTestServer(t *testing.T, opts Options) (*Server, *services.Logbook) {
	t.Helper()
	lb := services.NewLogbook(memory.New(), services.Options{})
	require.NoError(t, lb.Load(context.Background()))
	srv := NewServer(":0", lb, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, lb
}

func do(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCategoryRoutes(t *testing.T) {
	srv, lb := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.CategoryNode](t, rr), 7)

	rr = do(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": "绿化"})
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": "绿化"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": core.AllCategories})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/categories/"+url.PathEscape("绿化")+"/subcategories", map[string]string{"name": "乔木"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{"乔木"}, decode[core.CategoryNode](t, rr).SubCategories)

	rr = do(t, srv, http.MethodDelete, "/api/categories/"+url.PathEscape("绿化")+"/subcategories/"+url.PathEscape("乔木"), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, lb.SubCategoriesOf("绿化"))

	rr = do(t, srv, http.MethodDelete, "/api/categories/"+url.PathEscape("绿化"), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/categories/"+url.PathEscape("绿化"), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/categories", "{bad")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/locations", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.LocationPresets, decode[[]string](t, rr))
}

func TestEntryLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	q := "?date=2024-01-01&category=" + url.QueryEscape("道路工程")

	rr := do(t, srv, http.MethodPost, "/api/entries"+q, map[string]any{"amount": 120, "description": "沥青摊铺"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[core.Entry](t, rr)
	assert.Equal(t, "道路工程", created.Category)
	assert.Equal(t, "上面层", created.SubCategory)
	assert.Equal(t, 120.0, created.Amount)

	rr = do(t, srv, http.MethodGet, "/api/entries/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, srv, http.MethodPatch, "/api/entries/"+created.ID, map[string]any{"field": "category", "value": "标牌"})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[core.Entry](t, rr)
	assert.Equal(t, "立杆", updated.SubCategory)

	rr = do(t, srv, http.MethodPatch, "/api/entries/"+created.ID, map[string]any{"field": "amount", "value": -3})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodPatch, "/api/entries/"+created.ID, map[string]any{"field": "id", "value": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	bad := updated
	bad.Status = "bogus"
	rr = do(t, srv, http.MethodPut, "/api/entries/"+created.ID, bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	bad = updated
	bad.Amount = -5
	rr = do(t, srv, http.MethodPut, "/api/entries/"+created.ID, bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	updated.Notes = "整体替换"
	rr = do(t, srv, http.MethodPut, "/api/entries/"+created.ID, updated)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/entries?date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[core.ViewResult](t, rr)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "整体替换", view.Entries[0].Notes)
	assert.Equal(t, 120.0, view.Stats.Total)

	rr = do(t, srv, http.MethodGet, "/api/entries?date=2024-01-02", nil)
	assert.Empty(t, decode[core.ViewResult](t, rr).Entries)

	rr = do(t, srv, http.MethodDelete, "/api/entries/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, srv, http.MethodDelete, "/api/entries/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// saveFailingStore loads like an empty store and fails every save.
type saveFailingStore struct{ *memory.Store }

func (saveFailingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestCreateEntryReportsIDWhenSaveFails(t *testing.T) {
	lb := services.NewLogbook(saveFailingStore{memory.New()}, services.Options{})
	require.NoError(t, lb.Load(context.Background()))
	srv := NewServer(":0", lb, Options{})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := do(t, srv, http.MethodPost, "/api/entries?date=2024-01-01", map[string]any{"notes": "x"})
	require.Equal(t, http.StatusBadGateway, rr.Code)
	body := decode[errorBody](t, rr)
	require.NotEmpty(t, body.ID)

	e, err := lb.Entry(body.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", e.Notes)
}

func TestViewRejectsBadQuery(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/api/entries?date=yesterday", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/api/entries?sort=colour", nil).Code)
}

func TestExportImport(t *testing.T) {
	srv, lb := newTestServer(t, Options{ExportFormat: "cbor"})
	ctx := context.Background()
	_, err := lb.CreateEntry(ctx, core.SelectDay(core.NewDate(2024, 1, 1)), core.SetAmount{Amount: 9})
	require.NoError(t, err)
	before := lb.Snapshot()

	rr := do(t, srv, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/cbor", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".cbor")
	exported := rr.Body.Bytes()

	_, err = lb.ReplaceEntries(ctx, nil)
	require.NoError(t, err)

	rr = do(t, srv, http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]int{"imported": 1}, decode[map[string]int](t, rr))
	assert.Equal(t, before, lb.Snapshot())

	rr = do(t, srv, http.MethodPost, "/api/import?format=json", "not a document")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, before, lb.Snapshot())

	rr = do(t, srv, http.MethodGet, "/api/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalysisWithoutAnalyzer(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/analysis", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, services.AnalysisIdle, decode[services.AnalysisState](t, rr).Status)

	rr = do(t, srv, http.MethodPost, "/api/analysis?date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, services.AnalysisError, decode[services.AnalysisState](t, rr).Status)
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv, _ := newTestServer(t, Options{RequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		rr := do(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": string(rune('A' + i))})
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": "C"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/categories", nil).Code)
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.allow("1.2.3.4"))

	now = now.Add(11 * time.Minute)
	assert.Equal(t, 2, rl.cleanupStaleEntries())
}

func TestErrorStatus(t *testing.T) {
	cases := map[error]int{
		core.ErrNotFound:         http.StatusNotFound,
		core.ErrDuplicateKey:     http.StatusConflict,
		core.ErrInvalidAmount:    http.StatusUnprocessableEntity,
		core.ErrUnknownField:     http.StatusUnprocessableEntity,
		core.ErrFormat:           http.StatusBadRequest,
		core.ErrAdapterFailure:   http.StatusBadGateway,
		context.DeadlineExceeded: http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, errorStatus(err), err.Error())
	}
}
