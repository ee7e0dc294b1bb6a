// Package debugapi is an optional operational sidecar for lsm.LSMIndex: a
// small HTTP surface exposing the engine's debug dump and stats, so they can
// be pulled from a running process instead of only an in-process call. It
// never sits on the insert/remove/find/flush path — the core engine has no
// knowledge this package exists.
package debugapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurenai-dev/lsmidx/internal/lsm"
)

// Server serves the introspection routes for a single LSMIndex.
type Server struct {
	index  *lsm.LSMIndex
	port   string
	router *gin.Engine
	auth   *authManager
}

// NewServer wires a debug HTTP server around an already-open index.
func NewServer(index *lsm.LSMIndex, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		index:  index,
		port:   port,
		router: router,
		auth:   newAuthManager(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		api.GET("/health", s.healthCheck)
		api.POST("/login", s.login)

		protected := api.Group("/")
		protected.Use(s.authMiddleware())
		{
			protected.GET("/debug", s.getDebugDump)
			protected.GET("/stats", s.getStats)
		}
	}
}

// Start blocks serving the debug HTTP surface.
func (s *Server) Start() error {
	return http.ListenAndServe(":"+s.port, s.router)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "lsmidx-debugd"})
}

func (s *Server) successResponse(c *gin.Context, status int, data interface{}, elapsedMs float64) {
	c.JSON(status, APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &Metadata{
			Version:         "1.0",
			ExecutionTimeMs: elapsedMs,
		},
	})
}

func (s *Server) errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, APIResponse{
		Status: "error",
		Error:  &APIError{Code: code, Message: message},
	})
}
