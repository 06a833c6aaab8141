package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/apikey"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/auth"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	apierrors "github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/errors"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/middleware"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/proxy"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/requestlog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/scraper"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/settings"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

// APIServer represents the main API server
type APIServer struct {
	config      *config.Config
	router      *gin.Engine
	store       store.Store
	keys        *apikey.Service
	settings    *settings.Service
	requests    *requestlog.Logger
	downloads   *proxy.Service
	authService *auth.Service
	media       *mediaHandler
	logger      zerolog.Logger
}

// NewAPIServer creates a new API server instance on top of st
func NewAPIServer(cfg *config.Config, st store.Store) (*APIServer, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidators()

	authService, err := auth.NewService(&cfg.Admin)
	if err != nil {
		return nil, err
	}

	router := gin.New()

	// Add middleware in order
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	requests := requestlog.New(st)
	breakers := proxy.NewCircuitBreakerManager(proxy.CircuitBreakerConfigFrom(&cfg.CircuitBreaker))

	srv := &APIServer{
		config:      cfg,
		router:      router,
		store:       st,
		keys:        apikey.NewService(st),
		settings:    settings.NewService(st),
		requests:    requests,
		downloads:   proxy.NewService(scraper.NewClient(&cfg.Upstream), breakers),
		authService: authService,
		media:       newMediaHandler(proxy.NewMediaProxy(&cfg.Proxy), requests),
		logger:      logging.NewLogger("api"),
	}

	srv.setupRoutes()
	return srv, nil
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

// Drain waits for pending request and download log writes
func (s *APIServer) Drain() {
	s.requests.Wait()
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	s.router.GET("/health", healthHandler("api", s.config.Store.Driver, s.store, s.logger))

	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/download", s.handleDownload)
		api.POST("/download", s.handleDownload)
		api.POST("/generate-key", s.handleGenerateKey)
		api.POST("/verify-password", s.handleVerifyPassword)
		api.GET("/proxy/download", s.media.handle)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(s.authService))
	{
		admin.GET("/settings", s.handleGetSettings)
		admin.PUT("/settings", s.handleUpdateSettings)

		admin.GET("/keys", s.handleListKeys)
		admin.DELETE("/keys", s.handleDeleteAllKeys)
		admin.GET("/keys/:key", s.handleGetKey)
		admin.PATCH("/keys/:key", s.handleUpdateKey)
		admin.DELETE("/keys/:key", s.handleDeleteKey)
		admin.GET("/keys/:key/usage", s.handleKeyUsage)

		admin.GET("/requests", s.handleListRequests)
		admin.DELETE("/requests", s.handleDeleteRequests)
		admin.GET("/downloads", s.handleListDownloads)

		admin.POST("/init-database", s.handleInitDatabase)
		admin.GET("/circuit-breakers", s.handleCircuitBreakers)
	}
}

// handleStatus reports which parts of the service are switched on
func (s *APIServer) handleStatus(c *gin.Context) {
	cur, err := s.settings.Get(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load settings")
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"websiteEnabled": cur.WebsiteEnabled,
		"apiEnabled":     cur.APIEnabled,
	})
}

// respondError sends a standardized error response
func respondError(c *gin.Context, err *apierrors.APIError) {
	c.JSON(err.HTTPStatus, apierrors.NewErrorResponse(err, middleware.GetRequestIDFromContext(c)))
}
