package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shorts/internal/config"
	"shorts/internal/engine"
	"shorts/internal/logging"
	"shorts/internal/metrics"
	"shorts/internal/models"
)

type Server struct {
	organizer  *engine.Organizer
	hub        *Hub
	opener     Opener
	upgrader   websocket.Upgrader
	router     *gin.Engine
	httpServer *http.Server
	origins    []string
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type FolderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

type AutoSortResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Moved   []engine.AutoSortMove    `json:"moved"`
	Failed  []engine.AutoSortFailure `json:"failed"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Creates a new Server and subscribes it to the organizer's events. A nil
// opener selects the platform file manager or cfg.Opener.Command.
func NewServer(organizer *engine.Organizer, cfg *config.Config, opener Opener) *Server {
	if opener == nil {
		opener = NewCommandOpener(cfg.Opener.Command)
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(), metrics.GinMiddleware())

	server := &Server{
		organizer: organizer,
		hub:       NewHub(),
		opener:    opener,
		router:    router,
		origins:   cfg.Server.AllowedOrigins,
	}
	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	router.Use(server.cors)

	apiGroup := router.Group("/api")
	apiGroup.GET("/categories", server.handleListCategories)
	apiGroup.POST("/categories", server.handleCreateCategory)
	apiGroup.DELETE("/categories/:name", server.handleDeleteCategory)
	apiGroup.GET("/categories/:name/files", server.handleCategoryFiles)
	apiGroup.GET("/downloads", server.handleDownloads)
	apiGroup.POST("/move-file", server.handleMoveFile)
	apiGroup.POST("/create-download-folder", server.handleCreateDownloadFolder)
	apiGroup.GET("/folder-status", server.handleFolderStatus)
	apiGroup.POST("/open-media-folder", server.handleOpenMediaFolder)
	apiGroup.POST("/open-category-folder", server.handleOpenCategoryFolder)
	apiGroup.GET("/auto-sort/rules", server.handleAutoSortRules)
	apiGroup.POST("/auto-sort", server.handleAutoSort)

	router.GET("/ws", server.handleWebSocket)
	router.GET("/healthz", server.handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.StaticFS(engine.MediaURLPrefix, gin.Dir(organizer.BasePath(), false))
	if cfg.Server.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Server.StaticDir))))
	}

	organizer.SetEventCallback(server.NotifyEvent)

	server.httpServer = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// NotifyEvent forwards an organizer event to every WebSocket client.
func (s *Server) NotifyEvent(event models.Event) {
	s.hub.Broadcast(event)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	logging.Info("API server starting", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown disconnects WebSocket clients and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) allowsOrigin(origin string) bool {
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.allowsOrigin(origin)
}

func (s *Server) cors(c *gin.Context) {
	origin := c.GetHeader("Origin")
	switch {
	case slices.Contains(s.origins, "*"):
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	case origin != "" && s.allowsOrigin(origin):
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Add("Vary", "Origin")
	}
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+logging.RequestIDHeader)
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.WithContext(c.Request.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := s.hub.register(conn)
	go s.hub.writePump(client)
	s.hub.readPump(client)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
