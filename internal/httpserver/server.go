package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/pulse/internal/engine"
	"github.com/tinytelemetry/pulse/internal/metric"
)

// SnapshotStore is the narrow engine contract required by the HTTP API.
type SnapshotStore interface {
	Streams() []engine.StreamInfo
	Snapshot(path metric.Path) (engine.Snapshot, bool)
	Snapshots() []engine.Snapshot
}

// Server provides a read-only HTTP API over the engine's snapshots.
type Server struct {
	addr       string
	listenAddr string
	store      SnapshotStore
	server     *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	startTime  time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store SnapshotStore) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s.registerRoutes(r)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()
	s.listenAddr = listener.Addr().String()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the bound listen address, useful when addr was ":0".
func (s *Server) Addr() string {
	return s.listenAddr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/streams", s.handleStreams)
	r.GET("/api/snapshots", s.handleSnapshots)
	// Stream paths are dot-separated, so they fit in one URL segment.
	r.GET("/api/snapshots/:path", s.handleSnapshot)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"streams": len(s.store.Streams()),
	})
}

func (s *Server) handleStreams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streams": s.store.Streams()})
}

func (s *Server) handleSnapshots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"snapshots": s.store.Snapshots()})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	path, err := metric.ParsePath(c.Param("path"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stream path"})
		return
	}

	snap, ok := s.store.Snapshot(path)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stream"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
