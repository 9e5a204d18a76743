package service

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/models"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/hub"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/room"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionService defines the interface for session-related business logic.
type SessionService interface {
	Create(ctx context.Context, mode engine.Mode) (*models.SessionResponse, error)
	Room(ctx context.Context, id string) (*room.Room, error)
	State(ctx context.Context, id string) (*models.StateResponse, error)
	Play(ctx context.Context, id string, index int) (*models.StateResponse, error)
	JumpTo(ctx context.Context, id string, move int) (*models.StateResponse, error)
	SetMode(ctx context.Context, id string, mode engine.Mode) (*models.StateResponse, error)
	Restart(ctx context.Context, id string) (*models.StateResponse, error)
	Delete(ctx context.Context, id string) error
	VerifyToken(token string) (sessionID string, err error)
}

type sessionService struct {
	hub       *hub.Hub
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewSessionService creates a new SessionService. Tokens expire tokenTTL
// after the session is created; zero means they never expire.
func NewSessionService(h *hub.Hub, jwtSecret []byte, tokenTTL time.Duration) SessionService {
	return &sessionService{hub: h, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Create starts a session and issues the token that controls it.
func (s *sessionService) Create(ctx context.Context, mode engine.Mode) (*models.SessionResponse, error) {
	r, err := s.hub.Create(ctx, mode)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(r.ID)
	if err != nil {
		return nil, err
	}

	return &models.SessionResponse{
		SessionID: r.ID,
		Token:     token,
		State:     r.State(ctx),
	}, nil
}

func (s *sessionService) Room(ctx context.Context, id string) (*room.Room, error) {
	return s.hub.Get(ctx, id)
}

func (s *sessionService) State(ctx context.Context, id string) (*models.StateResponse, error) {
	r, err := s.hub.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.StateResponse{State: r.State(ctx)}, nil
}

func (s *sessionService) Play(ctx context.Context, id string, index int) (*models.StateResponse, error) {
	r, err := s.hub.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := r.Play(ctx, index)
	return rejected(&models.StateResponse{State: state}, err)
}

func (s *sessionService) JumpTo(ctx context.Context, id string, move int) (*models.StateResponse, error) {
	r, err := s.hub.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := r.JumpTo(ctx, move)
	return rejected(&models.StateResponse{State: state}, err)
}

func (s *sessionService) SetMode(ctx context.Context, id string, mode engine.Mode) (*models.StateResponse, error) {
	r, err := s.hub.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := r.SetMode(ctx, mode)
	return rejected(&models.StateResponse{State: state}, err)
}

func (s *sessionService) Restart(ctx context.Context, id string) (*models.StateResponse, error) {
	r, err := s.hub.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := r.Restart(ctx)
	return rejected(&models.StateResponse{State: state}, err)
}

// Delete ends a session and removes its stored state.
func (s *sessionService) Delete(ctx context.Context, id string) error {
	return s.hub.Remove(ctx, id)
}

// rejected attaches the reason of a rejected game operation. A room closed
// under the request is not a game rule and is reported as an error.
func rejected(resp *models.StateResponse, err error) (*models.StateResponse, error) {
	if errors.Is(err, room.ErrRoomClosed) {
		return nil, err
	}
	if err != nil {
		resp.Reason = err.Error()
	}
	return resp, nil
}

func (s *sessionService) issueToken(sessionID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  sessionID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(s.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken checks the signature and expiry and returns the session id.
func (s *sessionService) VerifyToken(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
