// Package httpapi exposes the services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/filestore"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/dmitrijs2005/pagekeeper/internal/server/services"
)

type PageService interface {
	List(ctx context.Context) ([]*models.Page, error)
	Get(ctx context.Context, id string) (*models.Page, error)
	GetByName(ctx context.Context, name string) (*models.Page, error)
	Create(ctx context.Context, in services.PageInput) (*models.Page, error)
	Update(ctx context.Context, id string, in services.PageInput) (*models.Page, error)
	UpdateField(ctx context.Context, id, path string, value any) (*models.Page, error)
	UploadToField(ctx context.Context, id, path string, upload filestore.Upload) (*models.Page, models.UploadedFile, error)
	Delete(ctx context.Context, id string) (*models.Page, error)
}

type FormService interface {
	List(ctx context.Context) ([]*models.Form, error)
	Get(ctx context.Context, id string) (*models.Form, error)
	GetByName(ctx context.Context, name string) (*models.Form, error)
	Create(ctx context.Context, in services.FormInput) (*models.Form, error)
	Update(ctx context.Context, id string, in services.FormInput) (*models.Form, error)
	UpdateField(ctx context.Context, id, field string, value any) (*models.Form, error)
	Delete(ctx context.Context, id string) (*models.Form, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(token string) (string, error)
	Me(ctx context.Context, id string) (*models.Admin, error)
}

type SiteService interface {
	List(ctx context.Context, rel string) ([]models.FileEntry, error)
	Read(ctx context.Context, rel string) (*services.SiteFile, error)
	Write(ctx context.Context, rel, content string) error
	Status(ctx context.Context) services.SiteStatus
}

// FileSaver stores files that are not attached to a page.
type FileSaver interface {
	Save(ctx context.Context, uploads []filestore.Upload) ([]models.UploadedFile, error)
}

// Services bundles the handlers' collaborators.
type Services struct {
	Pages   PageService
	Forms   FormService
	Auth    AuthService
	Site    SiteService
	Uploads FileSaver
}

// Settings configures the HTTP server.
type Settings struct {
	Address            string
	MaxUploadBytes     int64
	LocalUploadDir     string // served at /uploads/ when set
	LoginRatePerMinute int
	LoginRateBurst     int
	ShutdownTimeout    time.Duration
	DatabaseDriver     string // reported on the dashboard
}

type Server struct {
	settings Settings
	router   chi.Router
	logger   logging.Logger

	pages   PageService
	forms   FormService
	auth    AuthService
	site    SiteService
	uploads FileSaver

	loginLimiter *ipRateLimiter

	started time.Time
	now     func() time.Time
}

func NewServer(st Settings, svc Services, l logging.Logger) *Server {
	s := &Server{
		settings:     st,
		logger:       l.With("module", "http_server"),
		pages:        svc.Pages,
		forms:        svc.Forms,
		auth:         svc.Auth,
		site:         svc.Site,
		uploads:      svc.Uploads,
		loginLimiter: newIPRateLimiter(st.LoginRatePerMinute, st.LoginRateBurst),
		now:          func() time.Time { return time.Now().UTC() },
	}
	s.started = s.now()
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(SecurityHeaders)

	r.Get("/health", s.handleHealth)
	r.With(s.loginLimiter.middleware(s)).Post("/api/auth/login", s.handleLogin)
	r.With(s.requireAdmin).Get("/api/auth/me", s.handleMe)
	r.With(s.requireAdmin).Post("/api/auth/logout", s.handleLogout)

	r.Route("/api/pages", func(r chi.Router) {
		r.Get("/", s.handleListPages)
		r.Get("/name/{name}", s.handleGetPageByName)
		r.Get("/{id}", s.handleGetPage)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/", s.handleCreatePage)
			r.Put("/{id}", s.handleUpdatePage)
			r.Patch("/{id}/field", s.handleUpdatePageField)
			r.Post("/{id}/upload", s.handleUploadToPage)
			r.Delete("/{id}", s.handleDeletePage)
		})
	})

	r.Route("/api/forms", func(r chi.Router) {
		r.Post("/", s.handleCreateForm)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/", s.handleListForms)
			r.Get("/name/{name}", s.handleGetFormByName)
			r.Get("/{id}", s.handleGetForm)
			r.Put("/{id}", s.handleUpdateForm)
			r.Patch("/{id}/field", s.handleUpdateFormField)
			r.Delete("/{id}", s.handleDeleteForm)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/api/admin/dashboard", s.handleDashboard)
		r.Post("/api/uploads", s.handleUpload)
		r.Get("/api/site/files", s.handleListSiteFiles)
		r.Get("/api/site/file", s.handleReadSiteFile)
		r.Put("/api/site/file", s.handleWriteSiteFile)
	})

	if s.settings.LocalUploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(s.settings.LocalUploadDir)))))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Message: "route not found", Error: "not found"})
	})

	s.router = r
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.settings.Address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		timeout := s.settings.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
