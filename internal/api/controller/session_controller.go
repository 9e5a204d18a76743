package controller

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/models"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/response"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/service"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/repository"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/room"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextSessionID is the gin context key holding the authorized session id.
const ContextSessionID = "session_id"

// SessionController handles session-related HTTP requests.
type SessionController struct {
	sessionService service.SessionService
}

// NewSessionController creates a new SessionController.
func NewSessionController(sessionService service.SessionService) *SessionController {
	return &SessionController{
		sessionService: sessionService,
	}
}

// Create handles the session creation endpoint.
func (sc *SessionController) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := sc.sessionService.Create(c.Request.Context(), req.Mode)
	if err != nil {
		sc.handleError(c, err)
		return
	}

	response.CreatedResponse(c, resp)
}

// State returns the current state of the session.
func (sc *SessionController) State(c *gin.Context) {
	resp, err := sc.sessionService.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		sc.handleError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

// Play handles a move on a cell.
func (sc *SessionController) Play(c *gin.Context) {
	var req models.PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := sc.sessionService.Play(c.Request.Context(), c.Param("id"), *req.Index)
	if err != nil {
		sc.handleError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

// Jump handles a jump within the move history.
func (sc *SessionController) Jump(c *gin.Context) {
	var req models.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := sc.sessionService.JumpTo(c.Request.Context(), c.Param("id"), *req.Move)
	if err != nil {
		sc.handleError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

// Mode handles a mode switch, which restarts the game.
func (sc *SessionController) Mode(c *gin.Context) {
	var req models.ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := sc.sessionService.SetMode(c.Request.Context(), c.Param("id"), req.Mode)
	if err != nil {
		sc.handleError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

// Restart starts a new game in the same session.
func (sc *SessionController) Restart(c *gin.Context) {
	resp, err := sc.sessionService.Restart(c.Request.Context(), c.Param("id"))
	if err != nil {
		sc.handleError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

// Delete ends the session.
func (sc *SessionController) Delete(c *gin.Context) {
	if err := sc.sessionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		sc.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequireSessionToken only lets requests through whose bearer token was
// issued for the session named in the path. The websocket route may pass the
// token as a query parameter since browsers cannot set its headers.
func (sc *SessionController) RequireSessionToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.AbortWithError(c, response.NewError(http.StatusUnauthorized, "missing session token"))
			return
		}

		sessionID, err := sc.sessionService.VerifyToken(token)
		if err != nil || sessionID != c.Param("id") {
			response.AbortWithError(c, response.NewError(http.StatusUnauthorized, "invalid session token"))
			return
		}

		c.Set(ContextSessionID, sessionID)
		c.Next()
	}
}

func (sc *SessionController) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		response.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, room.ErrRoomClosed):
		response.ErrorResponse(c, http.StatusGone, err.Error())
	case errors.Is(err, engine.ErrInvalidMode):
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
