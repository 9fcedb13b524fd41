// Package server renders the shrine site and proxies the backend API.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Its-donkey/shrine-live/internal/ui/i18n"
	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
	"github.com/Its-donkey/shrine-live/internal/ui/prayer"
	"github.com/Its-donkey/shrine-live/logging"
)

// Options configures the UI server. Nil collaborators get working defaults.
// Without Prayers every submit is reported as failed.
type Options struct {
	Listen       string
	APIBase      string
	SiteName     string
	TemplatesDir string
	AssetsDir    string
	Location     *time.Location
	ClearOnLapse bool

	Catalog  *i18n.Catalog
	Feed     *livestream.Feed
	Renderer *livestream.Renderer
	Prayers  *prayer.Controller
	Logger   *logging.Logger

	// Ready reports backend readiness for /healthz. Nil means always ready.
	Ready func(ctx context.Context) error
}

type server struct {
	siteName     string
	assetsDir    string
	apiBase      *url.URL
	location     *time.Location
	clearOnLapse bool
	currentYear  int
	templates    map[string]*template.Template
	catalog      *i18n.Catalog
	feed         *livestream.Feed
	renderer     *livestream.Renderer
	prayers      *prayer.Controller
	logger       *logging.Logger
	ready        func(ctx context.Context) error
}

// New builds the site handler.
func New(opts Options) (http.Handler, error) {
	srv, err := newServer(opts)
	if err != nil {
		return nil, err
	}
	return srv.routes(), nil
}

func newServer(opts Options) (*server, error) {
	opts = applyDefaults(opts)

	tmpl, err := loadTemplates(opts.TemplatesDir)
	if err != nil {
		return nil, err
	}

	var apiBase *url.URL
	if base := strings.TrimSpace(opts.APIBase); base != "" {
		apiBase, err = url.Parse(base)
		if err != nil || apiBase.Scheme == "" || apiBase.Host == "" {
			return nil, fmt.Errorf("invalid api url %q", opts.APIBase)
		}
	}

	assetsPath, err := filepath.Abs(opts.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve assets dir: %w", err)
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer, err = livestream.NewRenderer()
		if err != nil {
			return nil, err
		}
	}

	return &server{
		siteName:     opts.SiteName,
		assetsDir:    assetsPath,
		apiBase:      apiBase,
		location:     opts.Location,
		clearOnLapse: opts.ClearOnLapse,
		currentYear:  time.Now().Year(),
		templates:    tmpl,
		catalog:      opts.Catalog,
		feed:         opts.Feed,
		renderer:     renderer,
		prayers:      opts.Prayers,
		logger:       opts.Logger,
		ready:        opts.Ready,
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.NewHTTPLogger(s.logger, 0).Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/livestream", s.handleLivestream)
	r.Get("/prayer-request", s.handlePrayerForm)
	r.Post("/prayer-request", s.handlePrayerSubmit)
	r.Post("/prayer-request/reset", s.handlePrayerReset)
	r.Get("/healthz", s.handleHealth)
	r.Get("/livestream/notification", s.handleNotificationFragment)

	r.Handle("/styles.css", s.assetHandler("styles.css", "text/css"))
	r.Handle("/wasm_exec.js", s.assetHandler("wasm_exec.js", "application/javascript"))
	r.Handle("/main.wasm", s.assetHandler("main.wasm", "application/wasm"))
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if s.apiBase != nil {
		r.Handle("/api/*", apiProxyHandler(s.apiBase, s.logger))
	}
	return r
}

// Run serves the site on opts.Listen until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	handler, err := New(opts)
	if err != nil {
		return err
	}
	opts = applyDefaults(opts)

	server := &http.Server{
		Addr:              opts.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	opts.Logger.Info("http", "serving shrine ui", map[string]any{
		"listen": opts.Listen,
		"site":   opts.SiteName,
		"api":    opts.APIBase,
	})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func applyDefaults(opts Options) Options {
	if strings.TrimSpace(opts.Listen) == "" {
		opts.Listen = "127.0.0.1:8080"
	}
	if strings.TrimSpace(opts.SiteName) == "" {
		opts.SiteName = "Shrine"
	}
	if strings.TrimSpace(opts.AssetsDir) == "" {
		opts.AssetsDir = "web"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Catalog == nil {
		opts.Catalog = i18n.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Prayers == nil {
		opts.Prayers = prayer.NewController(nil, opts.Logger)
	}
	return opts
}

func (s *server) assetHandler(name, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.assetsDir, name)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		http.ServeFile(w, r, path)
	})
}
