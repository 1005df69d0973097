package game

import "encoding/json"

// Inbound event names.
const (
	evCreateRoom   = "create-room"
	evJoinRoom     = "join-room"
	evStartGame    = "start-game"
	evPlayerUpdate = "player-update"
	evPlayerAction = "player-action"
	evRequestTreat = "request-treat"
)

// Outbound event names.
const (
	evRoomCreated     = "room-created"
	evJoinError       = "join-error"
	evPlayerJoined    = "player-joined"
	evRoomJoined      = "room-joined"
	evGameStarted     = "game-started"
	evPlayerUpdated   = "player-updated"
	evTreatSpawned    = "treat-spawned"
	evGameStateUpdate = "game-state-update"
	evPlayerLeft      = "player-left"
	evNewHost         = "new-host"
)

// Action kinds carried inside player-action.
const (
	actionMeow         = "meow"
	actionCollectTreat = "collect-treat"
	actionPowerUp      = "powerup"
	actionGameEnd      = "game-end"
)

type clientEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type serverEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type createRoomPayload struct {
	PlayerName string `json:"playerName"`
	SkinIndex  int    `json:"skinIndex"`
}

type joinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	SkinIndex  int    `json:"skinIndex"`
}

type playerUpdatePayload struct {
	Position *Vec2 `json:"position"`
	Score    *int  `json:"score"`
}

type playerActionPayload struct {
	Action    string `json:"action"`
	TreatID   string `json:"treatId"`
	PowerUpID string `json:"powerUpId"`
	Score     *int   `json:"score"`
	Winner    string `json:"winner"`
}

type roomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

type joinErrorPayload struct {
	Message string `json:"message"`
}

type playerJoinedPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SkinIndex int    `json:"skinIndex"`
}

type roomJoinedPayload struct {
	RoomCode string                 `json:"roomCode"`
	PlayerID string                 `json:"playerId"`
	IsHost   bool                   `json:"isHost"`
	Players  map[string]PlayerState `json:"players"`
	Settings Settings               `json:"settings"`
}

type playerRefPayload struct {
	ID string `json:"id"`
}

// stateSnapshot is broadcast every tick while a room is playing.
type stateSnapshot struct {
	Treats      []Treat     `json:"treats"`
	Roombas     []Roomba    `json:"roombas"`
	Doge        *Doge       `json:"doge"`
	Lasers      []Laser     `json:"lasers"`
	Weather     *Weather    `json:"weather"`
	PowerUps    []PowerUp   `json:"powerUps"`
	SecretSauce SecretSauce `json:"secretSauce"`
}

// initialStatePayload is the game-started payload: the first snapshot plus
// the roster at start time.
type initialStatePayload struct {
	stateSnapshot
	Players map[string]PlayerState `json:"players"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(serverEnvelope{Event: event, Data: data})
}

// relayPayload rebuilds a client payload with the sender id stamped in, for
// the passthrough events (player-updated, relayed player-action).
func relayPayload(id string, data json.RawMessage) map[string]any {
	m := map[string]any{}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &m)
	}
	m["id"] = id
	return m
}
