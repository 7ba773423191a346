package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/tower/pkg/adapters/file"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/report"
	"github.com/aretw0/tower/pkg/runner"
)

// SolveRequest selects a column by name or carries an inline definition.
type SolveRequest struct {
	Name       string          `json:"name,omitempty"`
	Definition json.RawMessage `json:"definition,omitempty"`
	Solver     string          `json:"solver,omitempty"`
}

// CompareRequest is a SolveRequest over several strategies. No solvers means all of them.
type CompareRequest struct {
	Name       string          `json:"name,omitempty"`
	Definition json.RawMessage `json:"definition,omitempty"`
	Solvers    []string        `json:"solvers,omitempty"`
}

// CompareResponse lists every outcome and the fastest converged strategy.
type CompareResponse struct {
	Column      string              `json:"column"`
	Comparisons []runner.Comparison `json:"comparisons"`
	Best        *domain.SolverType  `json:"best,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errBadRequest = errors.New("bad request")

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDefinitionNotFound), errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrNoStages),
		errors.Is(err, domain.ErrNoFeeds),
		errors.Is(err, domain.ErrFeedStageOutOfRange),
		errors.Is(err, domain.ErrComponentMismatch),
		errors.Is(err, domain.ErrUnknownComponent),
		errors.Is(err, domain.ErrUnknownSolver):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLockAcquire):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.Logger.Warn("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// column resolves the request's column. An inline definition wins over a name.
func (s *Server) column(name string, definition json.RawMessage) (*column.Column, error) {
	if len(definition) > 0 {
		doc, err := file.Parse(definition, ".json")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return s.Engine.Build(doc)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name or definition is required", errBadRequest)
	}
	return s.Engine.Column(name)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// ListColumns handles GET /columns.
func (s *Server) ListColumns(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.Definitions()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"columns": names})
}

// GetTopology handles GET /columns/{name}/topology with a Mermaid flowchart.
func (s *Server) GetTopology(w http.ResponseWriter, r *http.Request) {
	col, err := s.Engine.Column(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(report.Topology(col, nil)))
}

// Solve handles POST /solve. A non-converged solve is still a 200: see its diagnostics.
func (s *Server) Solve(w http.ResponseWriter, r *http.Request) {
	var body SolveRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	col, err := s.column(body.Name, body.Definition)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kind := col.Config().Solver
	if body.Solver != "" {
		if kind, err = domain.ParseSolverType(body.Solver); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	res, err := s.Engine.Solve(r.Context(), col, kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/runs/"+res.Diagnostics.RunID)
	s.writeJSON(w, http.StatusOK, res)
}

// Compare handles POST /compare.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	kinds := make([]domain.SolverType, 0, len(body.Solvers))
	for _, name := range body.Solvers {
		kind, err := domain.ParseSolverType(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		kinds = append(kinds, kind)
	}
	col, err := s.column(body.Name, body.Definition)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	comparisons, err := s.Engine.Compare(r.Context(), col, kinds...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := CompareResponse{Column: col.Name(), Comparisons: comparisons}
	if best, ok := runner.Best(comparisons); ok {
		resp.Best = &best.Solver
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Runs(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*domain.Result, bool) {
	res, err := s.Engine.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return res, true
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.loadRun(w, r); ok {
		s.writeJSON(w, http.StatusOK, res)
	}
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteRun(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetReport handles GET /runs/{id}/report with a Markdown summary.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(report.Markdown(res)))
}

// GetChart handles GET /runs/{id}/chart with an interactive convergence chart.
func (s *Server) GetChart(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.ConvergenceChart(res, w); err != nil {
		s.Logger.Error("chart render failed", "run_id", res.Diagnostics.RunID, "err", err)
	}
}

// GetProfile handles GET /runs/{id}/profile. format is svg (default) or png;
// kind is temperature (default) or flows.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	contentType := map[string]string{"": "image/svg+xml", "svg": "image/svg+xml", "png": "image/png"}[format]
	if contentType == "" {
		s.fail(w, r, fmt.Errorf("%w: unsupported format %q", errBadRequest, format))
		return
	}
	if format == "" {
		format = "svg"
	}
	plot := report.PlotProfile
	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "temperature":
	case "flows":
		plot = report.PlotFlows
	default:
		s.fail(w, r, fmt.Errorf("%w: unsupported profile %q", errBadRequest, kind))
		return
	}

	res, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", contentType)
	if err := plot(res, w, format); err != nil {
		s.Logger.Error("profile render failed", "run_id", res.Diagnostics.RunID, "err", err)
	}
}
