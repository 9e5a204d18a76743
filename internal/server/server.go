package server

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/controller"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/service"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/validator"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("server")

type Server struct {
	engine            *gin.Engine
	sessionService    service.SessionService
	sessionController *controller.SessionController
	upgrader          websocket.Upgrader
}

func NewServer(sessionService service.SessionService) *Server {
	s := &Server{
		engine:            gin.New(),
		sessionService:    sessionService,
		sessionController: controller.NewSessionController(sessionService),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	if err := validator.RegisterGin(); err != nil {
		slog.Error("failed to register request validations", "error", err)
	}
	s.engine.Use(gin.Recovery())
	s.RegisterHandlers()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterHandlers() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	api.POST("/sessions", s.sessionController.Create)

	session := api.Group("/sessions/:id", s.sessionController.RequireSessionToken())
	{
		session.GET("", s.sessionController.State)
		session.DELETE("", s.sessionController.Delete)
		session.POST("/play", s.sessionController.Play)
		session.POST("/jump", s.sessionController.Jump)
		session.POST("/mode", s.sessionController.Mode)
		session.POST("/restart", s.sessionController.Restart)
	}

	s.engine.GET("/ws/sessions/:id", s.sessionController.RequireSessionToken(), s.handleWebSocket)
}
