// Package report serves the read-only web report over a scored dataset.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimscore/internal/metrics"
	"github.com/gyeh/claimscore/internal/model"
	"github.com/gyeh/claimscore/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"bucket": model.Bucket,
	"money": func(v float64) string {
		return "$" + strconv.FormatFloat(v, 'f', 2, 64)
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.DateOnly)
	},
}

// Server renders the summary and listing pages and their JSON equivalents.
type Server struct {
	store   store.Store
	log     zerolog.Logger
	index   *template.Template
	claims  *template.Template
	timeout time.Duration
}

// New parses the embedded templates and binds them to st.
func New(st store.Store, log zerolog.Logger) (*Server, error) {
	index, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, err
	}
	claims, err := template.New("claims.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/claims.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		store:   st,
		log:     log,
		index:   index,
		claims:  claims,
		timeout: 30 * time.Second,
	}, nil
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", s.handleIndex)
	r.Get("/claims", s.handleClaims)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleAPISummary)
		r.Get("/claims", s.handleAPIClaims)
	})

	return r
}

// requestLogger logs one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withSession acquires a store session for the duration of fn.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(store.Session) error) {
	sess, err := s.store.Session(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer sess.Close()
	if err := fn(sess); err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

type indexView struct {
	Title   string
	Summary *model.DatasetSummary
	Run     *model.RunInfo
}

type claimsView struct {
	Title   string
	Page    *model.ClaimPage
	PrevURL string
	NextURL string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess store.Session) error {
		sum, err := sess.Summary(r.Context())
		if err != nil {
			return err
		}
		run, err := latestRun(r, sess)
		if err != nil {
			return err
		}
		return render(w, s.index, indexView{Title: "Claims summary", Summary: sum, Run: run})
	})
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	q, page := listParams(r)
	s.withSession(w, r, func(sess store.Session) error {
		p, err := sess.Search(r.Context(), q, page)
		if err != nil {
			return err
		}
		return render(w, s.claims, claimsView{
			Title:   "Claims by fraud score",
			Page:    p,
			PrevURL: pageURL(p.Query, p.Page-1),
			NextURL: pageURL(p.Query, p.Page+1),
		})
	})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess store.Session) error {
		sum, err := sess.Summary(r.Context())
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, sum)
		return nil
	})
}

func (s *Server) handleAPIClaims(w http.ResponseWriter, r *http.Request) {
	q, page := listParams(r)
	s.withSession(w, r, func(sess store.Session) error {
		p, err := sess.Search(r.Context(), q, page)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, p)
		return nil
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Session(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	sess.Close()
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// latestRun returns nil before the first run has been written.
func latestRun(r *http.Request, sess store.Session) (*model.RunInfo, error) {
	run, err := sess.LatestRun(r.Context())
	if errors.Is(err, store.ErrNoRuns) {
		return nil, nil
	}
	return run, err
}

// listParams reads q and page. A missing or malformed page means page 1.
func listParams(r *http.Request) (string, int) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return q, page
}

func pageURL(q string, page int) string {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	v.Set("page", strconv.Itoa(page))
	return "/claims?" + v.Encode()
}

func render(w http.ResponseWriter, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
