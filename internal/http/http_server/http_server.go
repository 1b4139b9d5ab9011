package http_server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"roomchatgo/internal/config"
	"roomchatgo/internal/http/statushandler"
	"roomchatgo/internal/metrics"
	"roomchatgo/internal/ws"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type httpServer struct {
	cfg      *config.Config
	srv      *http.Server
	wsSrv    *ws.WsServer
	rooms    statushandler.RoomLister
	gatherer prometheus.Gatherer
	ctx      context.Context
}

func NewHttpServer(ctx context.Context, cfg *config.Config, wsSrv *ws.WsServer, rooms statushandler.RoomLister, gatherer prometheus.Gatherer) *httpServer {
	h := &httpServer{
		cfg:      cfg,
		wsSrv:    wsSrv,
		rooms:    rooms,
		gatherer: gatherer,
		ctx:      ctx,
	}
	h.srv = &http.Server{
		Handler:           h.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return h
}

func (h *httpServer) routes() http.Handler {
	routerEngine := gin.New()
	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	// Demo client
	routerEngine.Static("/static", h.cfg.StaticDir)
	routerEngine.StaticFile("/", filepath.Join(h.cfg.StaticDir, "index.html"))

	// websocket endpoint
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// REST API
	statushandler.New(h.cfg.AppName, h.rooms).Register(routerEngine)
	routerEngine.GET("/metrics", gin.WrapH(metrics.Handler(h.gatherer)))

	c := cors.New(cors.Options{
		AllowedOrigins:   h.cfg.CorsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(routerEngine)
}

// Start listens on the configured address and serves until Dispose.
func (h *httpServer) Start() error {
	ln, err := net.Listen("tcp", h.cfg.ListenAddr())
	if err != nil {
		return err
	}
	zap.L().Info("http_listen", zap.String("addr", ln.Addr().String()))

	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Dispose gracefully shuts the HTTP server down, waiting at most
// SHUTDOWN_TIMEOUT for in-flight requests. Hijacked websocket connections are
// not tracked here; the ws server closes those.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), h.cfg.ShutdownTimeout)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}
	return nil
}
