// Package devserver is an in-memory stand-in for the dormitory backend and
// its authorization server, for local development and tests.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config configures a Server
type Config struct {
	Addr       string
	Secret     []byte
	SessionTTL time.Duration
	// CORSOrigins lists browser origins allowed to call the server with
	// credentials. Empty disables CORS.
	CORSOrigins []string
	// FakeStudents adds generated students to the seeded roster
	FakeStudents int
	// Now replaces time.Now
	Now func() time.Time
}

// Server serves the REST surface the client talks to
type Server struct {
	cfg      Config
	store    *Store
	sessions *sessions
	log      *zap.Logger
	metrics  *Metrics
	registry *prometheus.Registry
	validate *validator.Validate
	engine   *gin.Engine
}

// New creates a server with a freshly seeded store
func New(cfg Config, log *zap.Logger) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		store:    NewStore(cfg.Now),
		sessions: newSessions(cfg.Secret, cfg.SessionTTL, cfg.Now),
		log:      log,
		metrics:  newMetrics(reg),
		registry: reg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if cfg.FakeStudents > 0 {
		s.store.AddFakeStudents(cfg.FakeStudents, uint64(cfg.Now().UnixNano()))
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store returns the backing store
func (s *Server) Store() *Store {
	return s.store
}

// RevokeAll invalidates every session issued so far
func (s *Server) RevokeAll() {
	s.log.Info("Revoking all sessions")
	s.sessions.revokeAll()
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.log))
	r.Use(s.metricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/uploads/"})))
	if len(s.cfg.CORSOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = s.cfg.CORSOrigins
		config.AllowCredentials = true
		config.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
		config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
		config.ExposeHeaders = []string{"X-Request-ID"}
		r.Use(cors.New(config))
	}

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.GET("/login", s.handleLogin)
		authGroup.GET("/callback", s.handleCallback)
		authGroup.POST("/logout", s.handleLogout)
	}

	// Presigned uploads authorize themselves
	r.PUT("/uploads/*key", s.handleUpload)

	// Development helpers
	r.POST("/dev/revoke-sessions", func(c *gin.Context) {
		s.RevokeAll()
		c.Status(http.StatusNoContent)
	})

	api := r.Group("/")
	api.Use(s.requireSession())
	{
		api.GET("/rooms", s.handleListRooms)
		api.GET("/students", s.handleListStudents)

		api.GET("/rollcalls", s.handleListRollcalls)
		api.POST("/rollcalls", s.handleUpsertRollcall)

		api.GET("/notices", s.handleListNotices)
		api.POST("/notices", s.handlePostNotice)

		api.GET("/parcels", s.handleListParcels)
		api.POST("/parcels/:id/pickup", s.handlePickUpParcel)

		api.GET("/inquiries", s.handleListInquiries)
		api.POST("/inquiries/:id/answer", s.handleAnswerInquiry)

		api.GET("/overnight-stays", s.handleListOvernightStays)
		api.POST("/overnight-stays/:id/approve", s.handleDecideOvernightStay(true))
		api.POST("/overnight-stays/:id/reject", s.handleDecideOvernightStay(false))

		api.POST("/bills/presign", s.handlePresignBill)
		api.POST("/bills", s.handleRegisterBill)
	}

	return r
}

// Run serves on cfg.Addr until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Dev server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
