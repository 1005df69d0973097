package game

import "time"

// Simulation tuning. The client interpolates against server snapshots, so
// changing any of these desyncs live clients.
const (
	tickInterval = 50 * time.Millisecond // 20 Hz

	treatRespawnEvery = 1600 * time.Millisecond
	maxTreats         = 6
	frenzyTreatCap    = 12
	treatDamping      = 0.95
	treatRestSpeed    = 0.1
	treatBounce       = -0.5

	roombaCount = 2
	laserCount  = 5

	laserRetargetEvery = 120 // ticks

	dogeSpawnEvery      = 9 * time.Second
	dogeSpeed           = 2.0
	dogeFrenzySpeedMult = 1.5
	dogeEatTime         = 1000 * time.Millisecond
	dogeLifetime        = 15 * time.Second
	dogeDespawnPad      = 80.0
	playerRadius        = 25.0
	dogeRadius          = 26.0

	powerUpChance = 0.004
	maxPowerUps   = 3

	weatherDuration   = 8 * time.Second
	weatherCooldown   = 5 * time.Second
	firstWeatherDelay = 5 * time.Second

	frenzyInterval = 30 * time.Second
	frenzyDuration = 8 * time.Second

	boundsPadding = 8.0
	hudMargin     = 40.0 // top strip the client HUD covers
)

// Room policy.
const (
	// Hard cap on members per room. Settings carry a MaxPlayers field for
	// future rulesets but the effective limit never exceeds this.
	maxRoomPlayers = 2

	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	staleRoomAfter = 3 * time.Hour
	sweepEvery     = 30 * time.Minute
)

// Defaults applied when a room is created.
const (
	defaultTargetScore  = 30
	defaultCanvasWidth  = 1200.0
	defaultCanvasHeight = 800.0
)
