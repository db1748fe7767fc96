// Package httpapi is the request-handling boundary of the wizard: it turns
// HTTP requests into wizard calls and carries out the resulting actions.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/petrijr/stepform/internal/persistence"
	"github.com/petrijr/stepform/internal/wizard"
	"github.com/petrijr/stepform/pkg/api"
)

// maxFormBytes bounds a posted step.
const maxFormBytes = 1 << 20

// Options configure a Server.
type Options struct {
	Wizards   []*wizard.Controller
	Parents   persistence.ParentStore
	JWTSecret string
	Logger    *slog.Logger
	// Metrics, when set, is served at /admin/metrics.
	Metrics *api.BasicMetrics
}

// Server serves one or more wizards over HTTP.
type Server struct {
	wizards map[string]*wizard.Controller
	order   []string
	parents persistence.ParentStore
	secret  string
	logger  *slog.Logger
	metrics *api.BasicMetrics
}

// NewServer returns a Server for opts.
func NewServer(opts Options) *Server {
	s := &Server{
		wizards: make(map[string]*wizard.Controller, len(opts.Wizards)),
		parents: opts.Parents,
		secret:  opts.JWTSecret,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, c := range opts.Wizards {
		if _, dup := s.wizards[c.ID()]; !dup {
			s.order = append(s.order, c.ID())
		}
		s.wizards[c.ID()] = c
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/wizards/{wizardID}", s.render)
	r.Post("/wizards/{wizardID}", s.submit)
	r.Get("/parents/{parentID}", s.parent)
	r.Get("/parents/{parentID}/wizards/{wizardID}", s.render)
	r.Post("/parents/{parentID}/wizards/{wizardID}", s.submit)

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireRole(s.secret, RoleAdmin))

		r.Get("/submissions", s.listSubmissions)
		r.Get("/submissions/{id}", s.getSubmission)
		r.Put("/submissions/{id}/fields", s.editFields)
		r.Post("/submissions/{id}/archive", s.archive)
		if s.metrics != nil {
			r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, s.metrics.Snapshot())
			})
		}
	})

	return r
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*wizard.Controller, bool) {
	c, ok := s.wizards[chi.URLParam(r, "wizardID")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown wizard")
	}
	return c, ok
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	out, err := c.Render(r.Context(), requestContext(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	rc := requestContext(r)
	next, err := c.Submit(r.Context(), rc)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	switch next.Kind {
	case api.ActionRedirect:
		http.Redirect(w, r, next.URL, http.StatusSeeOther)
	case api.ActionRender:
		writeJSON(w, http.StatusOK, next.Output)
	default:
		// Not this wizard's form: show the page as a GET would.
		out, err := c.Render(r.Context(), rc)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type parentResponse struct {
	ID               string `json:"id"`
	RecentSubmission string `json:"recent_submission"`
	LastCompletedAt  string `json:"last_completed_at"`
}

func (s *Server) parent(w http.ResponseWriter, r *http.Request) {
	if s.parents == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	p, err := s.parents.GetParent(r.Context(), chi.URLParam(r, "parentID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parentResponse{
		ID:               p.ID,
		RecentSubmission: p.RecentSubmission,
		LastCompletedAt:  formatTime(p.LastCompletedAt),
	})
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := api.SubmissionListOptions{
		Status:         api.Status(q.Get("status")),
		OnlyIncomplete: q.Get("incomplete") == "1",
	}

	ids := s.order
	if wid := q.Get("wizard"); wid != "" {
		if _, ok := s.wizards[wid]; !ok {
			writeError(w, http.StatusNotFound, "unknown wizard")
			return
		}
		ids = []string{wid}
	}

	out := make([]submissionResponse, 0)
	for _, id := range ids {
		subs, err := s.wizards[id].List(r.Context(), opts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		for _, sub := range subs {
			out = append(out, toSubmissionResponse(sub))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": out,
		"total":       len(out),
	})
}

// lookup finds the wizard owning a submission.
func (s *Server) lookup(r *http.Request, id string) (*wizard.Controller, *api.Submission, error) {
	for _, wid := range s.order {
		c := s.wizards[wid]
		sub, err := c.Get(r.Context(), id)
		if errors.Is(err, persistence.ErrSubmissionNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return c, sub, nil
	}
	return nil, nil, persistence.ErrSubmissionNotFound
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	_, sub, err := s.lookup(r, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

func (s *Server) editFields(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields map[string]string `json:"fields"`
	}
	if err := readJSON(w, r, &req); err != nil || len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, _, err := s.lookup(r, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sub, err := c.EditFields(r.Context(), chi.URLParam(r, "id"), req.Fields)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "submission_edited",
		"submission_id", sub.ID,
		"admin", ClaimsFrom(r.Context()).Subject,
		"fields", len(req.Fields),
	)
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.lookup(r, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sub, err := c.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "submission_archived",
		"submission_id", sub.ID,
		"admin", ClaimsFrom(r.Context()).Subject,
	)
	writeJSON(w, http.StatusOK, toSubmissionResponse(sub))
}
