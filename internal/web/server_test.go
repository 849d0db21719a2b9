package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/exportsync/internal/config"
	"github.com/JonMunkholm/exportsync/internal/core"
	_ "github.com/JonMunkholm/exportsync/internal/core/tables"
	"github.com/JonMunkholm/exportsync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, pinger Pinger) (*Server, *store.Opener) {
	t.Helper()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "Proizvodnja.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("RN;Kol\nStrana;1\nA1;10\nA3;7\n"), 0o600))

	sources := []core.SourceSpec{
		{
			Name:      "timeline",
			Path:      csvPath,
			Format:    core.FormatDelimited,
			Layout:    "flat",
			Table:     "production_timeline",
			Policy:    core.PolicyReplace,
			Delimiter: ';',
			Discard:   []core.SentinelRule{{Equals: []string{"Strana"}}},
		},
		{
			Name:      "missing",
			Path:      filepath.Join(dir, "Nema.csv"),
			Format:    core.FormatDelimited,
			Layout:    "flat",
			Table:     "missing",
			Policy:    core.PolicyReplace,
			Delimiter: ';',
		},
	}

	opener, err := store.NewOpener(store.Options{Driver: "sqlite", DefaultDSN: filepath.Join(dir, "out.db")})
	require.NoError(t, err)
	t.Cleanup(opener.Close)

	svc, err := core.NewService(opener, sources, core.ServiceOptions{})
	require.NoError(t, err)

	if pinger == nil {
		pinger = opener
	}
	return NewServer(svc, pinger, config.ServerConfig{}), opener
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Sources)
	assert.Equal(t, core.DefaultMaxConcurrentRuns, resp.Runs.MaxConcurrent)
	assert.Contains(t, resp.Layouts, "grouped")
}

func TestHealth_DestinationDown(t *testing.T) {
	s, _ := newTestServer(t, stubPinger{err: errors.New("dial tcp: connect: connection refused")})

	rec := do(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "unavailable", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DB001", resp.Error.Code)
}

func TestListLayouts(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/layouts")
	require.Equal(t, http.StatusOK, rec.Code)

	infos := decode[[]core.LayoutInfo](t, rec)
	keys := make([]string, len(infos))
	for i, info := range infos {
		keys[i] = info.Key
	}
	assert.Equal(t, []string{"flat", "grouped", "keyvalue"}, keys)
}

func TestRunSource(t *testing.T) {
	s, opener := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/sources/timeline/runs")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[core.Outcome](t, rec)
	assert.Equal(t, core.StatusSucceeded, out.Status)
	assert.Equal(t, core.TriggerHTTP, out.Trigger)
	assert.EqualValues(t, 2, out.Written)
	assert.Equal(t, 1, out.Stats.Discarded[core.ReasonSentinel])

	st, err := opener.Open(context.Background(), "")
	require.NoError(t, err)
	defer st.Close()
	var n int
	require.NoError(t, st.(*store.SQLite).DB().Get(&n, `SELECT COUNT(*) FROM "production_timeline"`))
	assert.Equal(t, 2, n)

	rec = do(t, s, http.MethodGet, "/api/sources/timeline")
	require.Equal(t, http.StatusOK, rec.Code)
	src := decode[SourceResponse](t, rec)
	require.NotNil(t, src.LastRun)
	assert.Equal(t, out.RunID, src.LastRun.RunID)
}

func TestRunSource_FailureIsOutcome(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/sources/missing/runs")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	out := decode[core.Outcome](t, rec)
	assert.Equal(t, core.StatusSourceNotFound, out.Status)
	assert.Equal(t, "SRC001", out.Code)
}

func TestRunSource_UnknownName(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for _, target := range []string{"/api/sources/nope/runs", "/api/sources/nope"} {
		method := http.MethodPost
		if target == "/api/sources/nope" {
			method = http.MethodGet
		}
		rec := do(t, s, method, target)
		require.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "RUN002", decode[ErrorResponse](t, rec).Code)
	}
}

func TestRunAllAndHistory(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[RunAllResponse](t, rec)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, "timeline", resp.Outcomes[0].Source)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	rec = do(t, s, http.MethodGet, "/api/runs?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[[]core.Outcome](t, rec)
	require.Len(t, recent, 1)
	assert.Equal(t, "missing", recent[0].Source)

	rec = do(t, s, http.MethodGet, "/api/sources")
	sources := decode[[]SourceResponse](t, rec)
	require.Len(t, sources, 2)
	assert.Equal(t, "timeline", sources[0].Name)
	require.NotNil(t, sources[1].LastRun)
	assert.Equal(t, core.StatusSourceNotFound, sources[1].LastRun.Status)
}

func TestOutcomeStatus(t *testing.T) {
	tests := []struct {
		name string
		out  core.Outcome
		want int
	}{
		{"succeeded", core.Outcome{Status: core.StatusSucceeded}, http.StatusOK},
		{"header", core.Outcome{Status: core.StatusHeaderNotFound}, http.StatusUnprocessableEntity},
		{"missing column", core.Outcome{Status: core.StatusFailed, Code: "SRC005"}, http.StatusUnprocessableEntity},
		{"saturated", core.Outcome{Status: core.StatusFailed, Code: "RUN001"}, http.StatusServiceUnavailable},
		{"database", core.Outcome{Status: core.StatusFailed, Code: "DB004"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeStatus(tt.out))
		})
	}
}
