package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/exportsync/internal/core"
	"github.com/JonMunkholm/exportsync/internal/logging"
	"github.com/go-chi/chi/v5"
)

// defaultRunsLimit is the number of outcomes listed when no limit is given.
const defaultRunsLimit = 20

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status  string                `json:"status"`
	Runs    core.RunLimiterStatus `json:"runs"`
	Layouts []string              `json:"layouts"`
	Sources int                   `json:"sources"`
	Error   *ErrorResponse        `json:"error,omitempty"`
}

// SourceResponse describes one configured source and its last run.
type SourceResponse struct {
	Name        string        `json:"name"`
	Path        string        `json:"path"`
	Format      core.Format   `json:"format"`
	Layout      string        `json:"layout"`
	Table       string        `json:"table"`
	Destination string        `json:"destination,omitempty"`
	Policy      string        `json:"policy"`
	LastRun     *core.Outcome `json:"lastRun,omitempty"`
}

// RunAllResponse is the body of a run of every source.
type RunAllResponse struct {
	Outcomes  []core.Outcome `json:"outcomes"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// handleHealth reports the run limiter and, when configured, probes the
// default destination.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Runs:    s.service.Limiter().Status(),
		Layouts: core.Keys(),
		Sources: len(s.service.Sources()),
	}

	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			msg := core.MapError(err)
			logging.FromContext(r.Context()).Warn("health check failed", "error", err, "code", msg.Code)
			resp.Status = "unavailable"
			resp.Error = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListLayouts returns the registered layouts.
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	infos := make([]core.LayoutInfo, len(defs))
	for i, d := range defs {
		infos[i] = d.Info
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleListSources returns every configured source in declaration order.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	specs := s.service.Sources()
	resp := make([]SourceResponse, len(specs))
	for i, spec := range specs {
		resp[i] = s.sourceResponse(spec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetSource returns one configured source.
func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	spec, ok := s.service.Source(name)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownSource, name), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.sourceResponse(spec))
}

// handleRunSource runs one source and answers with its outcome once the run
// has finished.
func (s *Server) handleRunSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	outcome, err := s.service.RunByName(r.Context(), name)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	status := outcomeStatus(outcome)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
	writeJSON(w, status, outcome)
}

// retryAfter is suggested to clients rejected by the run limiter.
const retryAfter = 30 * time.Second

// handleRunAll runs every source in declaration order. The response is 200
// even when some sources failed; each outcome carries its own status.
func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	outcomes := s.service.RunAll(r.Context())

	resp := RunAllResponse{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.OK() {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListRuns returns recent outcomes, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultRunsLimit)
	writeJSON(w, http.StatusOK, s.service.History(limit))
}

func (s *Server) sourceResponse(spec core.SourceSpec) SourceResponse {
	resp := SourceResponse{
		Name:        spec.Name,
		Path:        spec.Path,
		Format:      spec.Format,
		Layout:      spec.Layout,
		Table:       spec.Table,
		Destination: spec.Destination,
		Policy:      string(spec.Policy),
	}
	if last, ok := s.service.LastOutcome(spec.Name); ok {
		resp.LastRun = &last
	}
	return resp
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
