package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/Talk/internal/adapters/rtc"
	"github.com/dkeye/Talk/internal/adapters/signal"
	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/app/orch"
	"github.com/dkeye/Talk/internal/auth"
	"github.com/dkeye/Talk/internal/config"
	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	walletA = "0x1111111111111111111111111111111111111111"
	walletB = "0x2222222222222222222222222222222222222222"
)

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	reg := app.NewRegistry(nil)
	calls := app.NewCoordinator(core.NewRoomTable(), reg)
	msgr := &app.Messenger{Store: db, Rooms: calls, Fanout: calls, Out: reg, Timeout: time.Second}
	o := orch.New(reg, calls, app.NewRelay(reg), msgr)

	cfg := &config.Config{Mode: "test", Secret: "cookie-secret"}
	return SetupRouter(context.Background(), cfg, Deps{
		Orch:      o,
		Signal:    signal.NewSignalWSController(o, signal.Options{}),
		Users:     db,
		Chats:     &app.ChatService{Store: db},
		Messenger: msgr,
		Tokens:    tokens,
		ICE:       rtc.NewProvider(nil),
	})
}

type call struct {
	method, path string
	body         any
	token        string
	cookie       *http.Cookie
}

func do(t *testing.T, r http.Handler, c call) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type authResponse struct {
	User struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	} `json:"user"`
	Token          string `json:"token"`
	RequiresWallet bool   `json:"requiresWallet"`
}

func register(t *testing.T, r http.Handler, name, wallet string) authResponse {
	w := do(t, r, call{method: http.MethodPost, path: "/user/register", body: map[string]string{
		"name": name, "email": name + "@example.com", "password": "pw-" + name, "walletAddress": wallet,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)
	ann := register(t, r, "ann", walletA)
	req.Equal("ann", ann.User.Name)

	w := do(t, r, call{method: http.MethodPost, path: "/user/register", body: map[string]string{
		"name": "other", "email": "ann@example.com", "password": "x", "walletAddress": walletB,
	}})
	req.Equal(http.StatusConflict, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/user/register", body: map[string]string{
		"name": "bad", "email": "bad@example.com", "password": "x", "walletAddress": "0x12",
	}})
	req.Equal(http.StatusBadRequest, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/user/login", body: map[string]string{"email": "ann@example.com", "password": "pw-ann"}})
	req.Equal(http.StatusOK, w.Code)
	var login authResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &login))
	req.Equal(ann.User.ID, login.User.ID)
	req.False(login.RequiresWallet)

	w = do(t, r, call{method: http.MethodPost, path: "/user/login", body: map[string]string{"email": "ann@example.com", "password": "nope"}})
	req.Equal(http.StatusUnauthorized, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/user/login", body: map[string]string{"email": "zed@example.com", "password": "x"}})
	req.Equal(http.StatusNotFound, w.Code)
}

func TestRouter_AuthRequired(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)

	req.Equal(http.StatusUnauthorized, do(t, r, call{method: http.MethodGet, path: "/chat"}).Code)
	req.Equal(http.StatusUnauthorized, do(t, r, call{method: http.MethodGet, path: "/chat", token: "garbage"}).Code)
}

func TestRouter_SessionCookieIdentifies(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)
	register(t, r, "ann", walletA)

	w := do(t, r, call{method: http.MethodPost, path: "/user/login", body: map[string]string{"email": "ann@example.com", "password": "pw-ann"}})
	req.Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	req.NotEmpty(cookies)

	w = do(t, r, call{method: http.MethodGet, path: "/chat", cookie: cookies[0]})
	req.Equal(http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_ChatsAndMessages(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)
	ann := register(t, r, "ann", walletA)
	bob := register(t, r, "bob", walletB)

	w := do(t, r, call{method: http.MethodGet, path: "/user/fetchUser?search=bo", token: ann.Token})
	req.Equal(http.StatusOK, w.Code)
	var found []map[string]any
	req.NoError(json.Unmarshal(w.Body.Bytes(), &found))
	req.Len(found, 1)
	req.Equal("bob", found[0]["name"])
	req.NotContains(w.Body.String(), "passwordHash")

	w = do(t, r, call{method: http.MethodPost, path: "/chat", body: map[string]string{"userId": bob.User.ID}, token: ann.Token})
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	var chat struct {
		ID string `json:"_id"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &chat))
	req.NotEmpty(chat.ID)

	w = do(t, r, call{method: http.MethodPost, path: "/message", body: map[string]string{"chatId": chat.ID, "content": "hello bob"}, token: ann.Token})
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	req.Contains(w.Body.String(), `"name":"ann"`)

	w = do(t, r, call{method: http.MethodPost, path: "/message", body: map[string]string{"chatId": chat.ID}, token: ann.Token})
	req.Equal(http.StatusBadRequest, w.Code)

	w = do(t, r, call{method: http.MethodGet, path: "/message/" + chat.ID, token: bob.Token})
	req.Equal(http.StatusOK, w.Code)
	var history []map[string]any
	req.NoError(json.Unmarshal(w.Body.Bytes(), &history))
	req.Len(history, 1)
	req.Equal("hello bob", history[0]["content"])

	w = do(t, r, call{method: http.MethodGet, path: "/message/last/" + chat.ID, token: bob.Token})
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "hello bob")

	w = do(t, r, call{method: http.MethodGet, path: "/message/last/nothing-here", token: bob.Token})
	req.Equal(http.StatusOK, w.Code)
	req.Equal("null", w.Body.String())

	w = do(t, r, call{method: http.MethodGet, path: "/chat", token: bob.Token})
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "hello bob")
}

func TestRouter_Groups(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)
	ann := register(t, r, "ann", walletA)
	bob := register(t, r, "bob", walletB)

	// users as a JSON-encoded string, the way the web client sends them
	w := do(t, r, call{method: http.MethodPost, path: "/chat/group", body: map[string]string{
		"name": "team", "users": `["` + bob.User.ID + `"]`,
	}, token: ann.Token})
	req.Equal(http.StatusOK, w.Code, w.Body.String())
	var group struct {
		ID    string `json:"_id"`
		Users []any  `json:"users"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &group))
	req.Len(group.Users, 2)

	w = do(t, r, call{method: http.MethodGet, path: "/chat/group", token: ann.Token})
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), group.ID)

	w = do(t, r, call{method: http.MethodDelete, path: "/chat/group/" + group.ID, token: bob.Token})
	req.Equal(http.StatusForbidden, w.Code)

	w = do(t, r, call{method: http.MethodDelete, path: "/chat/group/" + group.ID, token: ann.Token})
	req.Equal(http.StatusOK, w.Code)

	w = do(t, r, call{method: http.MethodDelete, path: "/chat/group/" + group.ID, token: ann.Token})
	req.Equal(http.StatusNotFound, w.Code)
}

func TestRouter_UpdateWallet(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)
	ann := register(t, r, "ann", walletA)
	register(t, r, "bob", walletB)

	w := do(t, r, call{method: http.MethodPost, path: "/user/updateWallet", body: map[string]string{"walletAddress": walletB}, token: ann.Token})
	req.Equal(http.StatusConflict, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/user/updateWallet", body: map[string]string{"walletAddress": "nope"}, token: ann.Token})
	req.Equal(http.StatusBadRequest, w.Code)

	fresh := "0x3333333333333333333333333333333333333333"
	w = do(t, r, call{method: http.MethodPost, path: "/user/updateWallet", body: map[string]string{"walletAddress": fresh}, token: ann.Token})
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), fresh)
}

func TestRouter_Operational(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(t)

	req.Equal(http.StatusOK, do(t, r, call{method: http.MethodGet, path: "/healthz"}).Code)

	w := do(t, r, call{method: http.MethodGet, path: "/metrics"})
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "talk_connections_active")

	w = do(t, r, call{method: http.MethodGet, path: "/api/ice-servers"})
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), "stun:stun.l.google.com:19302")

	w = do(t, r, call{method: http.MethodGet, path: "/api/rooms"})
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"rooms":[]}`, w.Body.String())

	req.Equal(http.StatusNotFound, do(t, r, call{method: http.MethodGet, path: "/api/rooms/none"}).Code)
}

func TestWithCORS(t *testing.T) {
	r := newTestRouter(t)
	h := WithCORS(r, []string{"https://talk.example"})

	preflight := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	preflight.Header.Set("Origin", "https://talk.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, preflight)
	require.Equal(t, "https://talk.example", w.Header().Get("Access-Control-Allow-Origin"))
}
