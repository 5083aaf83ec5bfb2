// Package restserver exposes the tissue model over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/zhl16/internal/constants"
	"github.com/chrissnell/zhl16/internal/storage"
	"github.com/chrissnell/zhl16/pkg/profile"
	"github.com/chrissnell/zhl16/pkg/responseformat"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Config holds the REST server settings
type Config struct {
	ListenAddr string
	Port       int
	// BranchConcurrency bounds how many branches of one request run at once
	BranchConcurrency int
}

// Controller represents the REST server controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	config    Config
	Server    http.Server
	store     storage.TimelineStore
	runner    *profile.Runner
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
}

// NewController creates a new REST server controller. store may be nil, in
// which case runs are computed but not kept.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg Config, store storage.TimelineStore, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if cfg.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		cfg.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if cfg.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		cfg.Port = 8080
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid REST server port %d", cfg.Port)
	}

	if cfg.BranchConcurrency <= 0 {
		cfg.BranchConcurrency = 4
	}

	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		config:    cfg,
		store:     store,
		runner:    profile.NewRunner(logger.Named("runner")),
		formatter: responseformat.NewFormatter(),
		logger:    logger,
	}

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", cfg.ListenAddr, cfg.Port)
	ctrl.Server.Handler = ctrl.Router()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server and stops it when the controller context ends
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Router configures the HTTP router with all endpoints
func (c *Controller) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.loggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/models", c.getModels).Methods(http.MethodGet)
	api.HandleFunc("/profiles", c.postProfile).Methods(http.MethodPost)
	api.HandleFunc("/branches", c.postBranches).Methods(http.MethodPost)
	api.HandleFunc("/runs", c.getRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", c.getRun).Methods(http.MethodGet)
	api.HandleFunc("/convert", c.getConvert).Methods(http.MethodGet)

	router.HandleFunc("/version", func(w http.ResponseWriter, req *http.Request) {
		c.formatter.WriteResponse(w, req, http.StatusOK, map[string]string{
			"name":    constants.AppName,
			"version": constants.Version,
		})
	}).Methods(http.MethodGet)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		c.logger.Debugw("http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", req.RemoteAddr,
		)
	})
}
