package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/tinytelemetry/packetstream/internal/metrics"
	"github.com/tinytelemetry/packetstream/internal/model"
)

// Config holds tunables for the ingestion API.
type Config struct {
	Addr         string
	MaxBodyBytes int64
	// Registry receives the service metrics and backs /metrics.
	// A private registry is created when nil.
	Registry *prometheus.Registry
}

// Server provides the HTTP API for accepting and listing packages.
type Server struct {
	addr         string
	store        model.PackageStore
	maxBodyBytes int64
	registry     *prometheus.Registry
	metrics      *metrics.ServiceMetrics
	server       *http.Server
	listener     net.Listener
	ctx          context.Context
	cancel       context.CancelFunc
	startTime    time.Time
}

// NewServer creates a new HTTP API server backed by store.
func NewServer(store model.PackageStore, conf ...Config) *Server {
	var c Config
	if len(conf) > 0 {
		c = conf[0]
	}
	if c.Addr == "" {
		c.Addr = model.DefaultListenAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = model.DefaultMaxBodyBytes
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:         c.Addr,
		store:        store,
		maxBodyBytes: c.MaxBodyBytes,
		registry:     c.Registry,
		metrics:      metrics.NewServiceMetrics(c.Registry, store.Len),
		ctx:          ctx,
		cancel:       cancel,
		startTime:    time.Now(),
	}
}

// Handler builds the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS())

	r.GET("/api/health", s.handleHealth)
	r.POST(model.PackagesPath, s.handleAccept)
	r.GET(model.PackagesPath, s.handleList)
	r.DELETE(model.PackagesPath, s.handleReset)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}

// Start binds the listener and begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("httpserver: serve failed")
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(s.startTime).String(),
		"buffered":       s.store.Len(),
		"capacity":       s.store.Cap(),
		"accepted_total": s.store.Total(),
	})
}

func (s *Server) handleAccept(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.RecordRejected(metrics.ReasonTooLarge)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		s.metrics.RecordRejected(metrics.ReasonInvalidJSON)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil || compact.Len() == 0 {
		s.metrics.RecordRejected(metrics.ReasonInvalidJSON)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	evicted := s.store.Append(model.Package(compact.Bytes()))
	s.metrics.RecordAccepted(evicted)

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleReset(c *gin.Context) {
	s.store.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
