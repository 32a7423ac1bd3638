package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flyersmith/pkg/buildinfo"
	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/preview"
	"github.com/matzehuels/flyersmith/pkg/refine"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// defaultListLimit bounds GET /flyers.
const defaultListLimit = 20

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// CreateResponse is the body returned by POST /flyers.
type CreateResponse struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary"`
	Failed   bool     `json:"failed,omitempty"`
	Images   int      `json:"images"`
	Rounds   int      `json:"rounds"`
	Accepted bool     `json:"accepted"`
	Warnings []string `json:"warnings,omitempty"`
	HTML     string   `json:"html"`
	Links    Links    `json:"links"`
}

// Links points at the routes serving a stored flyer.
type Links struct {
	Self    string `json:"self,omitempty"`
	HTML    string `json:"html,omitempty"`
	Preview string `json:"preview,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if opts.Rounds == 0 {
		opts.Rounds = s.cfg.Rounds
	}
	opts.LegibilityCap = opts.LegibilityCap || s.cfg.LegibilityCap
	opts.OutputDir = s.cfg.OutputDir
	opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	default:
		s.writeError(w, errors.New(errors.ErrCodeRateLimited, "too many flyers in progress, retry later"))
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		// The client went away or the server is shutting down.
		s.logger.Warn("run aborted", "error", err)
		return
	}

	rec := res.Record(opts.Prompt)
	links := Links{}
	if s.store != nil {
		if err := s.store.Save(r.Context(), rec); err != nil {
			s.logger.Error("cannot archive flyer", "id", res.ID, "error", err)
		} else {
			links = flyerLinks(res.ID)
		}
	}

	writeJSON(w, http.StatusCreated, CreateResponse{
		ID:       res.ID,
		Summary:  res.Summary,
		Failed:   res.Failed,
		Images:   len(res.Assets),
		Rounds:   len(res.Rounds),
		Accepted: refine.Accepted(res.Rounds),
		Warnings: res.Warnings,
		HTML:     rec.Document(),
		Links:    links,
	})
}

func flyerLinks(id string) Links {
	self := "/flyers/" + id
	return Links{Self: self, HTML: self + "/html", Preview: self + "/preview"}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.store.(store.Lister)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "listing is not supported by this store"))
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	recs, err := lister.Recent(r.Context(), int64(limit))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	writeHTML(w, rec.Document())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.load(w, r)
	if !ok {
		return
	}
	html, err := preview.MaterializeString(rec.Document(),
		preview.WithFS(s.assetFS()),
		preview.WithLogger(s.logger))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "stored document is unreadable"))
		return
	}
	writeHTML(w, html)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateFlyerID(id); err != nil {
		s.writeError(w, err)
		return nil, false
	}
	if s.store == nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "flyer %s not found", id))
		return nil, false
	}
	rec, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return rec, true
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeEmptyPrompt, errors.ErrCodeInvalidID, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUpstream, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
