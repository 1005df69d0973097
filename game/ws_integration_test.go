package game

import (
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wg := &sync.WaitGroup{}
	lobby := NewLobby(rand.New(rand.NewSource(time.Now().UnixNano())), NewTickerFactory(), wg)
	started := make(chan struct{})
	go lobby.Run(started)
	<-started

	r := gin.New()
	r.GET("/ws", NewHandler(lobby).ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	b, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

// waitFor reads until the named event arrives, skipping everything else
// (tick snapshots interleave with everything once a game is running).
func waitFor(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, b, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", event)
		var env recordedEvent
		require.NoError(t, json.Unmarshal(b, &env))
		if env.Event == event {
			return env.Data
		}
	}
}

func TestWS_FullSession(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	host := dialWS(t, srv)
	sendEvent(t, host, evCreateRoom, map[string]any{"playerName": "alice", "skinIndex": 1})

	var created roomCreatedPayload
	require.NoError(t, json.Unmarshal(waitFor(t, host, evRoomCreated), &created))
	assert.Len(t, created.RoomCode, roomCodeLength)
	assert.True(t, created.IsHost)
	hostID := created.PlayerID

	// Second player joins and gets the roster.
	guest := dialWS(t, srv)
	sendEvent(t, guest, evJoinRoom, map[string]any{"roomCode": created.RoomCode, "playerName": "bob"})

	var joined roomJoinedPayload
	require.NoError(t, json.Unmarshal(waitFor(t, guest, evRoomJoined), &joined))
	assert.Equal(t, created.RoomCode, joined.RoomCode)
	assert.False(t, joined.IsHost)
	assert.Len(t, joined.Players, 2)
	assert.Equal(t, maxRoomPlayers, joined.Settings.MaxPlayers)

	var joinedNotice playerJoinedPayload
	require.NoError(t, json.Unmarshal(waitFor(t, host, evPlayerJoined), &joinedNotice))
	assert.Equal(t, joined.PlayerID, joinedNotice.ID)
	assert.Equal(t, "bob", joinedNotice.Name)

	// A third connection bounces off the 2-player cap.
	third := dialWS(t, srv)
	sendEvent(t, third, evJoinRoom, map[string]any{"roomCode": created.RoomCode, "playerName": "carol"})
	var joinErr joinErrorPayload
	require.NoError(t, json.Unmarshal(waitFor(t, third, evJoinError), &joinErr))
	assert.Equal(t, "Room is full (2 player maximum)", joinErr.Message)

	// Host starts the game: both members get the initial state, then a
	// snapshot stream.
	sendEvent(t, host, evStartGame, map[string]any{})

	var initial struct {
		Treats  []Treat                `json:"treats"`
		Roombas []Roomba               `json:"roombas"`
		Lasers  []Laser                `json:"lasers"`
		Players map[string]PlayerState `json:"players"`
	}
	require.NoError(t, json.Unmarshal(waitFor(t, guest, evGameStarted), &initial))
	assert.Len(t, initial.Treats, maxTreats)
	assert.Len(t, initial.Roombas, roombaCount)
	assert.Len(t, initial.Lasers, laserCount)
	assert.Len(t, initial.Players, 2)

	waitFor(t, host, evGameStarted)
	var snap stateSnapshot
	require.NoError(t, json.Unmarshal(waitFor(t, guest, evGameStateUpdate), &snap))
	assert.Len(t, snap.Treats, maxTreats)
	assert.False(t, snap.SecretSauce.Active)

	// Guest movement is relayed to the host.
	sendEvent(t, guest, evPlayerUpdate, map[string]any{"position": map[string]any{"x": 10, "y": 20}, "score": 1})
	var relayed map[string]any
	require.NoError(t, json.Unmarshal(waitFor(t, host, evPlayerUpdated), &relayed))
	assert.Equal(t, joined.PlayerID, relayed["id"])

	// Host drops: the guest inherits the room.
	host.Close()
	var left playerRefPayload
	require.NoError(t, json.Unmarshal(waitFor(t, guest, evPlayerLeft), &left))
	assert.Equal(t, hostID, left.ID)

	var newHost playerRefPayload
	require.NoError(t, json.Unmarshal(waitFor(t, guest, evNewHost), &newHost))
	assert.Equal(t, joined.PlayerID, newHost.ID)
}

func TestWS_JoinUnknownRoom(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	conn := dialWS(t, srv)
	sendEvent(t, conn, evJoinRoom, map[string]any{"roomCode": "ZZZZZZ"})

	var joinErr joinErrorPayload
	require.NoError(t, json.Unmarshal(waitFor(t, conn, evJoinError), &joinErr))
	assert.Equal(t, "Room not found", joinErr.Message)
}

func TestWS_MalformedMessagesAreIgnored(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	conn := dialWS(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"no-such-event"}`)))

	// The connection survives and still works.
	sendEvent(t, conn, evCreateRoom, map[string]any{"playerName": "alice"})
	var created roomCreatedPayload
	require.NoError(t, json.Unmarshal(waitFor(t, conn, evRoomCreated), &created))
	assert.Len(t, created.RoomCode, roomCodeLength)
}
