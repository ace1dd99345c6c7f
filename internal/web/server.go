// Package web serves the browser surface: a single page with a text slot,
// a speak button, microphone capture, and file upload, plus the JSON-free
// form endpoints behind them. Synthesized audio is embedded into the page as
// a base64 data URI so the reply plays without a second round trip.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxkit/voicepad/internal/config"
	"github.com/voxkit/voicepad/internal/health"
	"github.com/voxkit/voicepad/internal/observe"
	"github.com/voxkit/voicepad/internal/orchestrator"
	"github.com/voxkit/voicepad/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// sessionCookie is the cookie carrying the opaque session ID.
const sessionCookie = "voicepad_session"

// defaultMaxUploadBytes caps uploaded audio files when the config leaves the
// limit unset.
const defaultMaxUploadBytes = 16 << 20

// Server is the HTTP surface of voicepad.
type Server struct {
	orch     *orchestrator.Orchestrator
	sessions *session.Manager
	metrics  *observe.Metrics
	tmpl     *template.Template

	recorder       config.RecorderMode
	maxUploadBytes int64
}

// Config assembles a [Server].
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Sessions     *session.Manager

	// Metrics drives the HTTP middleware. When nil the package defaults are
	// used.
	Metrics *observe.Metrics

	// Recorder selects the capture UI. Defaults to [config.RecorderBrowser].
	Recorder config.RecorderMode

	// MaxUploadBytes caps uploaded audio files. Defaults to 16 MiB.
	MaxUploadBytes int64
}

// New creates a [Server]. It parses the embedded templates once; a template
// error here is a programming mistake and is returned rather than deferred to
// the first request.
func New(cfg Config) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	recorder := cfg.Recorder
	if recorder == "" {
		recorder = config.RecorderBrowser
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Server{
		orch:           cfg.Orchestrator,
		sessions:       cfg.Sessions,
		metrics:        m,
		tmpl:           tmpl,
		recorder:       recorder,
		maxUploadBytes: maxUpload,
	}, nil
}

// Handler returns the full route table wrapped in the observability
// middleware. Health and metrics endpoints sit outside the middleware so
// probes do not pollute request metrics.
func (s *Server) Handler(checkers ...health.Checker) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /speak", s.handleSpeak)
	mux.HandleFunc("POST /transcribe", s.handleTranscribe)
	mux.HandleFunc("GET /ws/capture", s.handleCapture)

	root := http.NewServeMux()
	root.Handle("/", observe.Middleware(s.metrics)(mux))
	health.New(checkers...).Register(root)
	root.Handle("GET /metrics", promhttp.Handler())
	return root
}

// sessionFor resolves the request's session from its cookie, creating one
// (and setting the cookie) when absent or expired.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess := s.sessions.GetOrCreate(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
	}
	return sess
}

// render writes the page template. Template execution failures at this point
// can only be partial writes, so they are logged rather than surfaced.
func (s *Server) render(w http.ResponseWriter, r *http.Request, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		observe.Logger(r.Context()).Error("render failed", "err", err)
	}
}
