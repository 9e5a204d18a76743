package server

import (
	"bytes"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/models"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/api/service"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/bot"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/hub"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/repository"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/room"
	"ctchen222/TimeTravel-Tic-Tac-Toe/pkg/proto"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Extras  json.RawMessage `json:"extras"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := hub.NewHub(repository.NewMemorySessionRepository(time.Hour), bot.NewRandomChooser(), hub.Options{
		SessionTTL: time.Hour,
		Room:       room.Options{OpponentDelay: 5 * time.Millisecond},
	})
	return NewServer(service.NewSessionService(h, []byte("test-secret"), time.Hour))
}

func do(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func createSession(t *testing.T, s *Server, mode string) models.SessionResponse {
	t.Helper()

	w, env := do(t, s, http.MethodPost, "/api/sessions", "", map[string]any{"mode": mode})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.SessionResponse
	require.NoError(t, json.Unmarshal(env.Extras, &resp))
	return resp
}

func stateOf(t *testing.T, env envelope) models.StateResponse {
	t.Helper()
	var resp models.StateResponse
	require.NoError(t, json.Unmarshal(env.Extras, &resp))
	return resp
}

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t)

	w, _ := do(t, s, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CreateSession(t *testing.T) {
	s := newTestServer(t)

	resp := createSession(t, s, "friend")

	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.State)
	assert.Equal(t, game.PlayerX, resp.State.Next)
	assert.Equal(t, "Next player: X", resp.State.StatusText)
	assert.Len(t, resp.State.History, 1)
	assert.Equal(t, "Go to game start", resp.State.History[0].Description)
}

func TestServer_CreateSessionRejectsUnknownMode(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []any{map[string]any{"mode": "online"}, map[string]any{}} {
		w, env := do(t, s, http.MethodPost, "/api/sessions", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
	}
}

func TestServer_RequiresSessionToken(t *testing.T) {
	s := newTestServer(t)
	a := createSession(t, s, "friend")
	b := createSession(t, s, "friend")

	tests := []struct {
		name  string
		token string
	}{
		{name: "Missing token", token: ""},
		{name: "Garbage token", token: "not-a-jwt"},
		{name: "Token of another session", token: b.Token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, s, http.MethodGet, "/api/sessions/"+a.SessionID, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestServer_PlayJumpAndBranch(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "friend")
	base := "/api/sessions/" + sess.SessionID

	for _, idx := range []int{0, 4} {
		w, env := do(t, s, http.MethodPost, base+"/play", sess.Token, map[string]any{"index": idx})
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, stateOf(t, env).Reason)
	}

	// Rejected moves keep the state and explain why.
	w, env := do(t, s, http.MethodPost, base+"/play", sess.Token, map[string]any{"index": 4})
	require.Equal(t, http.StatusOK, w.Code)
	rejected := stateOf(t, env)
	assert.Equal(t, game.ErrOccupied.Error(), rejected.Reason)
	assert.Equal(t, 2, rejected.State.CurrentMove)

	_, env = do(t, s, http.MethodPost, base+"/play", sess.Token, map[string]any{"index": 9})
	assert.NotEmpty(t, stateOf(t, env).Reason)

	// Jump back one move, then branch.
	_, env = do(t, s, http.MethodPost, base+"/jump", sess.Token, map[string]any{"move": 1})
	jumped := stateOf(t, env)
	assert.Empty(t, jumped.Reason)
	assert.Equal(t, 1, jumped.State.CurrentMove)
	assert.Equal(t, game.PlayerO, jumped.State.Next)
	assert.Len(t, jumped.State.History, 3)

	_, env = do(t, s, http.MethodPost, base+"/play", sess.Token, map[string]any{"index": 5})
	branched := stateOf(t, env)
	assert.Equal(t, 2, branched.State.CurrentMove)
	assert.Len(t, branched.State.History, 3)
	assert.Equal(t, "O", branched.State.Board[5])
	assert.Equal(t, "", branched.State.Board[4])

	_, env = do(t, s, http.MethodPost, base+"/jump", sess.Token, map[string]any{"move": 7})
	assert.NotEmpty(t, stateOf(t, env).Reason)

	// Malformed body.
	w, _ = do(t, s, http.MethodPost, base+"/jump", sess.Token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ModeAndRestart(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "friend")
	base := "/api/sessions/" + sess.SessionID

	do(t, s, http.MethodPost, base+"/play", sess.Token, map[string]any{"index": 0})

	_, env := do(t, s, http.MethodPost, base+"/restart", sess.Token, nil)
	restarted := stateOf(t, env)
	assert.Len(t, restarted.State.History, 1)
	assert.Equal(t, "friend", string(restarted.State.Mode))

	_, env = do(t, s, http.MethodPost, base+"/mode", sess.Token, map[string]any{"mode": "computer"})
	switched := stateOf(t, env)
	assert.Equal(t, "computer", string(switched.State.Mode))
	assert.Len(t, switched.State.History, 1)

	w, _ := do(t, s, http.MethodPost, base+"/mode", sess.Token, map[string]any{"mode": "online"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ComputerReplies(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "computer")
	base := "/api/sessions/" + sess.SessionID

	_, env := do(t, s, http.MethodPost, base+"/play", sess.Token, map[string]any{"index": 4})
	require.Empty(t, stateOf(t, env).Reason)

	assert.Eventually(t, func() bool {
		_, env := do(t, s, http.MethodGet, base, sess.Token, nil)
		return stateOf(t, env).State.CurrentMove == 2
	}, time.Second, 5*time.Millisecond)
}

func TestServer_WebSocket(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "friend")

	ts := httptest.NewServer(s.Engine())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sessions/" + sess.SessionID + "?token=" + sess.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() proto.ServerToClientMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var msg proto.ServerToClientMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	// Initial state on subscribe.
	initial := read()
	assert.Equal(t, proto.TypeState, initial.Type)
	require.NotNil(t, initial.State)
	assert.Equal(t, 0, initial.State.CurrentMove)

	// Changes made over HTTP are pushed.
	do(t, s, http.MethodPost, "/api/sessions/"+sess.SessionID+"/play", sess.Token, map[string]any{"index": 8})
	pushed := read()
	assert.Equal(t, "X", pushed.State.Board[8])

	// Control messages.
	require.NoError(t, conn.WriteJSON(proto.ClientToServerMessage{Type: "refresh"}))
	refreshed := read()
	assert.Equal(t, 1, refreshed.State.CurrentMove)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "move"}))
	assert.Equal(t, proto.TypeError, read().Type)
}

func TestServer_WebSocketRequiresToken(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "friend")

	ts := httptest.NewServer(s.Engine())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sessions/" + sess.SessionID
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleClientMessage(t *testing.T) {
	state := func() *proto.GameState { return &proto.GameState{CurrentMove: 3} }

	tests := []struct {
		name     string
		data     string
		wantType string
		wantOK   bool
	}{
		{name: "Refresh resends state", data: `{"type":"refresh"}`, wantType: proto.TypeState, wantOK: true},
		{name: "Ping needs no reply", data: `{"type":"ping"}`, wantOK: false},
		{name: "Unknown type", data: `{"type":"play"}`, wantType: proto.TypeError, wantOK: true},
		{name: "Malformed json", data: `{`, wantType: proto.TypeError, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := handleClientMessage([]byte(tt.data), state)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantType, reply.Type)
			}
		})
	}
}


func TestServer_DeleteSession(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "computer")
	base := "/api/sessions/" + sess.SessionID

	w, _ := do(t, s, http.MethodDelete, base, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, s, http.MethodDelete, base, sess.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, s, http.MethodGet, base, sess.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, s, http.MethodPost, base+"/play", sess.Token, map[string]any{"index": 0})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
