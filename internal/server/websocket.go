package server

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/response"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/player"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/validator"
	"ctchen222/TimeTravel-Tic-Tac-Toe/pkg/proto"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	maxMessage = 512
)

// deadlineConn bounds every write so that one stalled client cannot hold a
// room's lock.
type deadlineConn struct {
	*websocket.Conn
}

func (c deadlineConn) WriteMessage(messageType int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// handleWebSocket upgrades the connection and subscribes it to the session's
// room. Clients only send control messages; state changes go through HTTP.
func (s *Server) handleWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.Path),
		attribute.String("session.id", sessionID),
	))

	r, err := s.sessionService.Room(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session not found")
		span.End()
		response.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		span.End()
		return
	}

	sub := player.NewSubscriber(uuid.New().String(), deadlineConn{conn})
	span.SetAttributes(attribute.String("subscriber.id", sub.ID))

	if err := r.Subscribe(ctx, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to subscribe")
		span.End()
		_ = sub.Close()
		return
	}
	span.End()

	// The read loop outlives the upgrade request.
	s.readLoop(context.WithoutCancel(ctx), conn, sub, func() *proto.GameState {
		return r.State(context.Background())
	})
	r.Unsubscribe(sub.ID)
	_ = sub.Close()
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, sub *player.Subscriber, state func() *proto.GameState) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "websocket closed unexpectedly", "subscriber.id", sub.ID, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		reply, ok := handleClientMessage(data, state)
		if !ok {
			continue
		}
		out, err := json.Marshal(reply)
		if err != nil {
			slog.ErrorContext(ctx, "error marshalling message", "error", err)
			continue
		}
		if err := sub.Send(out); err != nil {
			return
		}
	}
}

// handleClientMessage returns the reply to a control message, if any.
func handleClientMessage(data []byte, state func() *proto.GameState) (*proto.ServerToClientMessage, bool) {
	var msg proto.ClientToServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return &proto.ServerToClientMessage{Type: proto.TypeError, Reason: "malformed message"}, true
	}
	if err := validator.GetValidator().Struct(msg); err != nil {
		return &proto.ServerToClientMessage{Type: proto.TypeError, Reason: "unsupported message type"}, true
	}

	switch msg.Type {
	case "refresh":
		return &proto.ServerToClientMessage{Type: proto.TypeState, State: state()}, true
	default:
		return nil, false
	}
}
