package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"robots/internal/protocol"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Scheduler) {
	t.Helper()
	sched, _, stop := startScheduler(t, testConfig())
	t.Cleanup(stop)

	mockIdgenerator := &MockUniqueIdGenerator{}
	mockIdgenerator.On("Generate").Return("spectator")

	r := CreateServer([]string{"http://allowed.test"})
	NewStatusHandler(sched, NewListener(sched, mockIdgenerator)).Register(r)
	return r, sched
}

func TestHealth(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())
}

func TestOriginCheck(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	testCases := []struct {
		desc   string
		origin string
		code   int
	}{
		{desc: "No origin", origin: "", code: http.StatusOK},
		{desc: "Allowed origin", origin: "http://allowed.test", code: http.StatusOK},
		{desc: "Foreign origin", origin: "http://evil.test", code: http.StatusForbidden},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusForbidden {
				assert.Equal(t, "forbidden origin", w.Body.String())
			}
			if tc.origin != "" && tc.code == http.StatusOK {
				assert.Equal(t, tc.origin, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()
	r, sched := newTestRouter(t)
	sched.Submit(context.Background(), Intent{SessionID: "s0", Message: protocol.Join{Name: "naruto"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var st Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "konoha", st.ServerName)
	assert.Equal(t, "lobby", st.Phase)
	assert.Equal(t, uint8(2), st.PlayersCount)
	assert.Empty(t, st.Players, "joins wait for the next tick")
}

func TestSpectate(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/spectate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	msgs := decodeAll(t, data)
	require.Len(t, msgs, 1)
	assert.Equal(t, "konoha", msgs[0].(protocol.Hello).ServerName)
}
