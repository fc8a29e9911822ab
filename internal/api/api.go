// Package api serves imported combat logs over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ccollicutt/combatlog/pkg/importer"
	"github.com/ccollicutt/combatlog/pkg/parser"
	"github.com/ccollicutt/combatlog/pkg/query"
	"github.com/ccollicutt/combatlog/pkg/store"
)

// DefaultSource names a log posted without a source query parameter.
const DefaultSource = "upload"

// Server is the HTTP API over a log store.
type Server struct {
	store       *store.Store
	importer    *importer.Importer
	router      *gin.Engine
	server      *http.Server
	addr        string
	maxLineSize int
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and import logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxLineSize bounds the lines accepted by POST /logs.
func WithMaxLineSize(n int) Option {
	return func(s *Server) {
		s.maxLineSize = n
	}
}

// NewServer creates an API server for st listening on addr.
func NewServer(st *store.Store, addr string, opts ...Option) *Server {
	s := &Server{
		store:       st,
		addr:        addr,
		maxLineSize: parser.DefaultMaxLineSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.importer = importer.New(st, importer.WithLogger(s.logger))

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.logRequests())

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	logs := s.router.Group("/logs")
	{
		logs.GET("", s.listLogs)
		logs.POST("", s.importLog)
		logs.GET("/:ref", s.getLog)
		logs.GET("/:ref/events", s.listEvents)
	}
}

// Handler returns the router, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called. It returns http.ErrServerClosed after a
// clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("api listening", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listLogs(c *gin.Context) {
	logs, err := s.store.ListLogs(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) getLog(c *gin.Context) {
	l, ok := s.lookupLog(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) listEvents(c *gin.Context) {
	l, ok := s.lookupLog(c)
	if !ok {
		return
	}

	offset, err := intQuery(c, "offset")
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	var filter *query.Filter
	if expr := c.Query("filter"); expr != "" {
		if filter, err = query.Compile(expr); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	events, err := query.Select(c.Request.Context(), s.store, l.ID, store.EventQuery{Offset: offset, Limit: limit}, filter)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) importLog(c *gin.Context) {
	source := c.DefaultQuery("source", DefaultSource)
	src := parser.NewReaderSource(source, c.Request.Body, s.maxLineSize)

	result, err := s.importer.Import(c.Request.Context(), src)
	if err != nil {
		var lerr *importer.LineError
		if errors.As(err, &lerr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"source": lerr.Source,
				"line":   lerr.LineNum,
				"kind":   lerr.Err.Kind.String(),
				"error":  lerr.Err.Error(),
			})
			return
		}
		s.internalError(c, err)
		return
	}

	l, err := s.store.GetLog(c.Request.Context(), strconv.FormatInt(result.Logs[0].LogID, 10))
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (s *Server) lookupLog(c *gin.Context) (*store.Log, bool) {
	l, err := s.store.GetLog(c.Request.Context(), c.Param("ref"))
	if errors.Is(err, store.ErrLogNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		s.internalError(c, err)
		return nil, false
	}
	return l, true
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
