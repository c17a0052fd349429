package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modelseed/kbutil/internal/application/standardize"
	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/internal/infrastructure/modelio"
)

// ReportStore is where rendered reports are archived; nil disables
// archiving.
type ReportStore interface {
	PutReport(ctx context.Context, modelID string, stamp time.Time, html []byte) (string, error)
	GetReport(ctx context.Context, key string) ([]byte, error)
	ListReports(ctx context.Context, modelID string) ([]string, error)
}

// Server exposes the standardization pipeline over HTTP.
type Server struct {
	engine  *gin.Engine
	svc     *standardize.Service
	builder *Builder
	store   ReportStore
	cfg     config.ServerConfig
	log     logging.Logger
}

// NewServer wires routes. registry may be nil to skip the metrics endpoint;
// store may be nil to skip archiving.
func NewServer(svc *standardize.Service, store ReportStore, registry *prometheus.Registry, cfg config.ServerConfig, log logging.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:  engine,
		svc:     svc,
		builder: NewBuilder(),
		store:   store,
		cfg:     cfg,
		log:     log,
	}

	engine.GET("/healthz", s.handleHealth)
	if registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/v1")
	api.POST("/standardize", s.handleStandardize)
	api.POST("/compare", s.handleCompare)
	if store != nil {
		api.GET("/reports/:model", s.handleListReports)
		api.GET("/reports/:model/*key", s.handleGetReport)
	}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("report server listening", logging.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type standardizeResponse struct {
	ModelID   string                 `json:"model_id"`
	Stats     standardize.MatchStats `json:"stats"`
	ReportKey string                 `json:"report_key,omitempty"`
	Model     json.RawMessage        `json:"model,omitempty"`
}

func (s *Server) handleStandardize(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	model, err := modelio.ParseModel(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.svc.Standardize(c.Request.Context(), model)
	if err != nil {
		s.log.Warn("standardization failed",
			logging.String("model", model.ID),
			logging.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	resp := standardizeResponse{ModelID: model.ID, Stats: result.Stats}
	if s.store != nil {
		html, err := s.builder.RenderStandardization(model.ID, result)
		if err == nil {
			key, storeErr := s.store.PutReport(c.Request.Context(), model.ID, time.Now(), html)
			if storeErr != nil {
				s.log.Warn("report archiving failed", logging.Error(storeErr))
			} else {
				resp.ReportKey = key
			}
		}
	}

	if c.Query("include_model") == "true" {
		if data, err := modelio.MarshalModel(model); err == nil {
			resp.Model = data
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCompare(c *gin.Context) {
	var req struct {
		Model     jsonRaw `json:"model"`
		Reference jsonRaw `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	model, err := modelio.ParseModel(req.Model)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model: " + err.Error()})
		return
	}
	reference, err := modelio.ParseModel(req.Reference)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference: " + err.Error()})
		return
	}

	cmp, err := s.svc.Compare(c.Request.Context(), model, reference)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model_id":     model.ID,
		"reference_id": reference.ID,
		"counts":       cmp.Counts,
		"reactions":    cmp.Reactions,
	})
}

func (s *Server) handleListReports(c *gin.Context) {
	keys, err := s.store.ListReports(c.Request.Context(), c.Param("model"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": keys})
}

func (s *Server) handleGetReport(c *gin.Context) {
	key := "reports/" + c.Param("model") + c.Param("key")
	html, err := s.store.GetReport(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// jsonRaw defers decoding of nested documents.
type jsonRaw []byte

func (r *jsonRaw) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}
