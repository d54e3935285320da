package ws

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pliu/roomchat/internal/middleware"
	"github.com/pliu/roomchat/internal/objectid"
	"github.com/pliu/roomchat/internal/roomtoken"
)

type testServer struct {
	hub    *Hub
	codec  *roomtoken.Codec
	server *httptest.Server
}

// newTestServer authenticates every request as the user named by the
// "as" query parameter.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	codec, err := roomtoken.NewCodec(bytes.Repeat([]byte{0x07}, roomtoken.KeySize))
	require.NoError(t, err)

	hub := NewHub(codec, slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if as := r.URL.Query().Get("as"); as != "" {
			r = r.WithContext(middleware.WithUserID(r.Context(), objectid.MustConvert(as)))
		}
		hub.ServeWs(w, r)
	}))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return &testServer{hub: hub, codec: codec, server: server}
}

func (s *testServer) dial(userID objectid.ID, room string) (*websocket.Conn, *http.Response, error) {
	q := url.Values{}
	if !userID.IsZero() {
		q.Set("as", userID.String())
	}
	if room != "" {
		q.Set("room", room)
	}
	target := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?" + q.Encode()
	return websocket.DefaultDialer.Dial(target, nil)
}

func TestServeWs_Accepts(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	conn, resp, err := s.dial(objectid.New(), "")
	req.NoError(err)
	defer conn.Close()
	req.Equal(http.StatusSwitchingProtocols, resp.StatusCode)

	req.Eventually(func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	req.Eventually(func() bool { return s.hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeWs_Unauthenticated(t *testing.T) {
	s := newTestServer(t)

	_, resp, err := s.dial(objectid.Nil, "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWs_RoomToken(t *testing.T) {
	s := newTestServer(t)
	alice, bob, carol := objectid.New(), objectid.New(), objectid.New()

	roomID, err := roomtoken.GenerateRoomID()
	require.NoError(t, err)
	room, err := s.codec.Seal(roomID, []objectid.ID{alice, bob})
	require.NoError(t, err)

	t.Run("participant", func(t *testing.T) {
		conn, _, err := s.dial(bob, room)
		require.NoError(t, err)
		conn.Close()
	})

	t.Run("outsider", func(t *testing.T) {
		_, resp, err := s.dial(carol, room)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("garbage", func(t *testing.T) {
		_, resp, err := s.dial(alice, "not-a-room-token")
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestHubClose(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t)

	conn, _, err := s.dial(objectid.New(), "")
	req.NoError(err)
	defer conn.Close()
	req.Eventually(func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	req.NoError(s.hub.Close())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	req.Eventually(func() bool { return s.hub.Count() == 0 }, time.Second, 10*time.Millisecond)

	late, _, err := s.dial(objectid.New(), "")
	req.NoError(err)
	defer late.Close()
	late.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = late.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	req.Zero(s.hub.Count())
}
