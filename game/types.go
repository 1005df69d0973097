package game

import (
	"encoding/json"
	"time"
)

type roomPhase int

const (
	phaseWaiting roomPhase = iota
	phasePlaying
	phaseEnded
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Settings are fixed at room creation and echoed to clients on join.
type Settings struct {
	TargetScore  int     `json:"targetScore"`
	MaxPlayers   int     `json:"maxPlayers"`
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`
}

func defaultSettings() Settings {
	return Settings{
		TargetScore:  defaultTargetScore,
		MaxPlayers:   maxRoomPlayers,
		CanvasWidth:  defaultCanvasWidth,
		CanvasHeight: defaultCanvasHeight,
	}
}

// PlayerState is the wire-visible view of a room member. Position and score
// are client-reported; the server trusts them but owns everything else.
type PlayerState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SkinIndex int    `json:"skinIndex"`
	Position  Vec2   `json:"position"`
	Score     int    `json:"score"`
	IsHost    bool   `json:"isHost"`
}

type Treat struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

type Roomba struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

type Laser struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	T       int     `json:"t"`
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
	Speed   float64 `json:"speed"`
}

// Meal records a capture. It exists exactly while the doge holds a player,
// so an eating doge always has a start time and a respawn point.
type Meal struct {
	PlayerID string
	Since    time.Time
	RespawnX float64
	RespawnY float64
}

type Doge struct {
	ID     string
	X, Y   float64
	VX, VY float64
	TTL    time.Duration
	Eating *Meal // nil while chasing
}

func (d Doge) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID              string  `json:"id"`
		X               float64 `json:"x"`
		Y               float64 `json:"y"`
		VX              float64 `json:"vx"`
		VY              float64 `json:"vy"`
		TTL             int64   `json:"ttl"`
		Eating          string  `json:"eating,omitempty"`
		EatingStartTime int64   `json:"eatingStartTime,omitempty"`
		RespawnX        float64 `json:"respawnX,omitempty"`
		RespawnY        float64 `json:"respawnY,omitempty"`
	}
	w := wire{ID: d.ID, X: d.X, Y: d.Y, VX: d.VX, VY: d.VY, TTL: d.TTL.Milliseconds()}
	if d.Eating != nil {
		w.Eating = d.Eating.PlayerID
		w.EatingStartTime = d.Eating.Since.UnixMilli()
		w.RespawnX = d.Eating.RespawnX
		w.RespawnY = d.Eating.RespawnY
	}
	return json.Marshal(w)
}

type PowerUp struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type"`
}

type Weather struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration"` // milliseconds
}

// SecretSauce is the frenzy-mode state. Countdown is whole seconds until the
// next activation and is only meaningful while inactive.
type SecretSauce struct {
	Active    bool `json:"active"`
	Countdown int  `json:"countdown"`
}
