package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/middleware"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/proxy"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/requestlog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

// ProxyServer serves only the media proxy, so it can run on its own port
// behind a CDN while the API server handles everything else
type ProxyServer struct {
	config   *config.Config
	router   *gin.Engine
	store    store.Store
	requests *requestlog.Logger
	media    *mediaHandler
}

// NewProxyServer creates a new proxy server instance. Downloads are logged
// to st.
func NewProxyServer(cfg *config.Config, st store.Store) *ProxyServer {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	requests := requestlog.New(st)
	srv := &ProxyServer{
		config:   cfg,
		router:   router,
		store:    st,
		requests: requests,
		media:    newMediaHandler(proxy.NewMediaProxy(&cfg.Proxy), requests),
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *ProxyServer) Router() http.Handler {
	return s.router
}

// Drain waits for pending download log writes
func (s *ProxyServer) Drain() {
	s.requests.Wait()
}

func (s *ProxyServer) setupRoutes() {
	s.router.GET("/health", healthHandler("proxy", s.config.Store.Driver, s.store, logging.NewLogger("proxy")))
	s.router.GET(proxy.DownloadPath, s.media.handle)
}
