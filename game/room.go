package game

import (
	"encoding/json"
	"math/rand"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// session is the outbound half of a connection, as seen by a room. The
// transport behind it delivers messages in order, at least once.
type session interface {
	Send(data []byte) error
	Close()
}

// roomLobby is what a room needs from its registry.
type roomLobby interface {
	noteActivity(code string, at time.Time)
	releaseRoom(code string)
}

type member struct {
	state PlayerState
	sess  session
}

// inbound is a client envelope routed into a room's actor loop.
type inbound struct {
	from  string
	event string
	data  json.RawMessage
}

type joinReply struct {
	room *Room
	err  error
}

type joinRequest struct {
	state PlayerState
	sess  session
	reply chan joinReply
}

// Room is a single isolated match. All of its state is owned by one actor
// goroutine (run), which serializes inbound actions and simulation ticks
// against each other. Nothing outside that goroutine touches these fields.
type Room struct {
	code     string
	settings Settings
	phase    roomPhase
	hostID   string
	winner   string
	members  []*member // insertion order decides host succession

	treats      []Treat
	roombas     []Roomba
	lasers      []Laser
	powerUps    []PowerUp
	doge        *Doge
	weather     *Weather
	secretSauce SecretSauce

	nextTreatAt   time.Time
	nextDogeAt    time.Time
	nextWeatherAt time.Time
	nextFrenzyAt  time.Time
	lastActivity  time.Time

	inbox        chan inbound
	joinRequests chan joinRequest
	removals     chan string
	ticks        <-chan time.Time // nil until the game starts
	stopTicker   func()
	quit         chan struct{}
	done         chan struct{}

	lobby   roomLobby
	tickers TickerFactory
	rng     *rand.Rand
	now     func() time.Time
	wg      *sync.WaitGroup
}

type roomDeps struct {
	lobby   roomLobby
	tickers TickerFactory
	rng     *rand.Rand
	now     func() time.Time
	wg      *sync.WaitGroup
}

func newRoom(code string, host PlayerState, sess session, deps roomDeps) *Room {
	if host.Name == "" {
		host.Name = "Player 1"
	}
	host.IsHost = true

	r := &Room{
		code:         code,
		settings:     defaultSettings(),
		phase:        phaseWaiting,
		hostID:       host.ID,
		members:      []*member{{state: host, sess: sess}},
		treats:       []Treat{},
		roombas:      []Roomba{},
		lasers:       []Laser{},
		powerUps:     []PowerUp{},
		secretSauce:  SecretSauce{Countdown: int(frenzyInterval.Seconds())},
		inbox:        make(chan inbound, 256),
		joinRequests: make(chan joinRequest, 8),
		removals:     make(chan string, 8),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		lobby:        deps.lobby,
		tickers:      deps.tickers,
		rng:          deps.rng,
		now:          deps.now,
		wg:           deps.wg,
	}
	r.lastActivity = r.now()
	return r
}

// run is the room actor. It exits when the last member leaves or when the
// lobby closes the room (stale sweep).
func (r *Room) run() {
	release := false
	// done must close before releaseRoom: the lobby could be mid-RequestJoin
	// against this room's full buffer, and the done signal is what unblocks
	// it to go process the release.
	defer func() {
		r.stopTicks()
		close(r.done)
	drain:
		for {
			select {
			case req := <-r.joinRequests:
				req.reply <- joinReply{err: ErrRoomNotFound}
			default:
				break drain
			}
		}
		if release {
			r.lobby.releaseRoom(r.code)
		}
		r.wg.Done()
	}()

	for {
		select {
		case <-r.quit:
			for _, m := range r.members {
				m.sess.Close()
			}
			return

		case req := <-r.joinRequests:
			r.handleJoin(req)

		case msg := <-r.inbox:
			r.touch()
			r.handleInbound(msg)

		case id := <-r.removals:
			if r.handleLeave(id) {
				release = true
				return
			}

		case now := <-r.ticks:
			r.handleTick(now)
		}
	}
}

// Deliver routes a client envelope into the actor. Safe to call after the
// room has shut down; the message is then dropped.
func (r *Room) Deliver(msg inbound) {
	select {
	case r.inbox <- msg:
	case <-r.done:
	}
}

// RequestRemove asks the actor to drop a member, typically on disconnect.
func (r *Room) RequestRemove(playerID string) {
	select {
	case r.removals <- playerID:
	case <-r.done:
	}
}

// RequestJoin hands a join attempt to the actor and leaves the verdict on
// req.reply. A closed room answers RoomNotFound, matching what the client
// would see had it raced the teardown. The done check comes first so a dead
// room can never swallow the request into its buffer.
func (r *Room) RequestJoin(req joinRequest) {
	select {
	case <-r.done:
		req.reply <- joinReply{err: ErrRoomNotFound}
		return
	default:
	}
	select {
	case r.joinRequests <- req:
	case <-r.done:
		req.reply <- joinReply{err: ErrRoomNotFound}
	}
}

func (r *Room) handleJoin(req joinRequest) {
	var err error
	switch {
	case r.phase == phasePlaying:
		err = ErrGameInProgress
	case len(r.members) >= r.memberCap():
		err = ErrRoomFull
	}
	if err != nil {
		req.reply <- joinReply{err: err}
		return
	}

	state := req.state
	if state.Name == "" {
		state.Name = "Player " + strconv.Itoa(len(r.members)+1)
	}
	state.IsHost = false
	m := &member{state: state, sess: req.sess}
	r.members = append(r.members, m)
	r.touch()

	r.broadcast(evPlayerJoined, playerJoinedPayload{
		ID:        state.ID,
		Name:      state.Name,
		SkinIndex: state.SkinIndex,
	})
	r.send(m, evRoomJoined, roomJoinedPayload{
		RoomCode: r.code,
		PlayerID: state.ID,
		IsHost:   false,
		Players:  r.playersByID(),
		Settings: r.settings,
	})
	req.reply <- joinReply{room: r}

	log.Info().Str("room", r.code).Str("player", state.ID).Msg("player joined")
}

// handleLeave removes a member and reports whether the room is now empty.
// A host departure promotes the earliest remaining joiner.
func (r *Room) handleLeave(playerID string) bool {
	i := slices.IndexFunc(r.members, func(m *member) bool { return m.state.ID == playerID })
	if i < 0 {
		return false
	}
	leaving := r.members[i]
	r.members = slices.Delete(r.members, i, i+1)
	leaving.sess.Close()
	r.touch()

	r.broadcast(evPlayerLeft, playerRefPayload{ID: playerID})

	if len(r.members) == 0 {
		log.Info().Str("room", r.code).Msg("room empty, shutting down")
		return true
	}
	if playerID == r.hostID {
		next := r.members[0]
		next.state.IsHost = true
		r.hostID = next.state.ID
		r.broadcast(evNewHost, playerRefPayload{ID: r.hostID})
		log.Info().Str("room", r.code).Str("player", r.hostID).Msg("host reassigned")
	}
	return false
}

// handleTick re-checks the room's phase before anything else so a tick that
// raced a game-end or teardown degrades to stopping the ticker.
func (r *Room) handleTick(now time.Time) {
	if r.phase != phasePlaying {
		r.stopTicks()
		return
	}
	r.advance(now)
	r.broadcast(evGameStateUpdate, r.snapshot())
}

func (r *Room) handleInbound(msg inbound) {
	m := r.memberByID(msg.from)
	if m == nil {
		// Raced a disconnect; expected, not an error.
		return
	}
	switch msg.event {
	case evStartGame:
		r.handleStartGame(msg.from)
	case evPlayerUpdate:
		r.handlePlayerUpdate(m, msg.data)
	case evPlayerAction:
		r.handlePlayerAction(m, msg.data)
	case evRequestTreat:
		r.handleRequestTreat()
	}
}

// handleStartGame seeds a fresh world, arms every spawn timer and starts
// the tick loop. Host-only; anyone else is indistinguishable from a stale
// client and is ignored. Allowed from waiting and again from ended, so the
// host can run a rematch.
func (r *Room) handleStartGame(from string) {
	if from != r.hostID || r.phase == phasePlaying {
		return
	}
	r.stopTicks()
	now := r.now()
	r.phase = phasePlaying
	r.winner = ""
	r.doge = nil
	r.weather = nil
	r.treats = []Treat{}
	r.roombas = []Roomba{}
	r.lasers = []Laser{}
	r.powerUps = []PowerUp{}

	for i := 0; i < maxTreats; i++ {
		r.treats = append(r.treats, newTreat(r.settings, r.rng))
	}
	for i := 0; i < roombaCount; i++ {
		r.roombas = append(r.roombas, newRoomba(r.settings, r.rng))
	}
	for i := 0; i < laserCount; i++ {
		r.lasers = append(r.lasers, newLaser(r.settings, r.rng))
	}
	r.nextTreatAt = now.Add(treatRespawnEvery)
	r.nextDogeAt = now.Add(dogeSpawnEvery)
	r.nextWeatherAt = now.Add(firstWeatherDelay)
	r.nextFrenzyAt = now.Add(frenzyInterval)
	r.secretSauce = SecretSauce{Countdown: int(frenzyInterval.Seconds())}

	r.ticks, r.stopTicker = r.tickers.Create(tickInterval)

	r.broadcast(evGameStarted, initialStatePayload{
		stateSnapshot: r.snapshot(),
		Players:       r.playersByID(),
	})
	log.Info().Str("room", r.code).Int("players", len(r.members)).Msg("game started")
}

func (r *Room) handlePlayerUpdate(m *member, data json.RawMessage) {
	if r.phase != phasePlaying {
		return
	}
	var upd playerUpdatePayload
	if err := json.Unmarshal(data, &upd); err != nil {
		return
	}
	if upd.Position != nil {
		m.state.Position = *upd.Position
	}
	if upd.Score != nil {
		m.state.Score = *upd.Score
	}
	// Relayed even when nothing changed; the client treats it as a liveness
	// signal.
	r.broadcastExcept(m.state.ID, evPlayerUpdated, relayPayload(m.state.ID, data))
}

func (r *Room) handlePlayerAction(m *member, data json.RawMessage) {
	var act playerActionPayload
	if err := json.Unmarshal(data, &act); err != nil {
		return
	}

	switch act.Action {
	case actionMeow:
		// Cosmetic passthrough, relayed regardless of game phase.
		r.broadcastExcept(m.state.ID, evPlayerAction, relayPayload(m.state.ID, data))

	case actionCollectTreat:
		if r.phase != phasePlaying || act.TreatID == "" {
			return
		}
		r.treats = slices.DeleteFunc(r.treats, func(t Treat) bool { return t.ID == act.TreatID })
		if act.Score != nil {
			m.state.Score = *act.Score
		}
		r.broadcastExcept(m.state.ID, evPlayerAction, relayPayload(m.state.ID, data))

	case actionPowerUp:
		if r.phase != phasePlaying || act.PowerUpID == "" {
			return
		}
		r.powerUps = slices.DeleteFunc(r.powerUps, func(p PowerUp) bool { return p.ID == act.PowerUpID })
		r.broadcastExcept(m.state.ID, evPlayerAction, relayPayload(m.state.ID, data))

	case actionGameEnd:
		if r.phase != phasePlaying || act.Winner == "" {
			return
		}
		// The tick loop notices the phase change on its next cycle and
		// stops itself.
		r.phase = phaseEnded
		r.winner = act.Winner
		r.broadcastExcept(m.state.ID, evPlayerAction, relayPayload(m.state.ID, data))
		log.Info().Str("room", r.code).Str("winner", act.Winner).Msg("game ended")
	}
}

// handleRequestTreat honors a manual spawn request below the steady-state
// cap. Unlike the other mutations this broadcasts to every member, the
// requester included.
func (r *Room) handleRequestTreat() {
	if r.phase != phasePlaying || len(r.treats) >= maxTreats {
		return
	}
	t := newTreat(r.settings, r.rng)
	r.treats = append(r.treats, t)
	r.broadcast(evTreatSpawned, t)
}

func (r *Room) memberCap() int {
	// The configured value is advisory; policy caps at maxRoomPlayers.
	return min(r.settings.MaxPlayers, maxRoomPlayers)
}

func (r *Room) memberByID(id string) *member {
	for _, m := range r.members {
		if m.state.ID == id {
			return m
		}
	}
	return nil
}

func (r *Room) playersByID() map[string]PlayerState {
	players := make(map[string]PlayerState, len(r.members))
	for _, m := range r.members {
		players[m.state.ID] = m.state
	}
	return players
}

func (r *Room) snapshot() stateSnapshot {
	return stateSnapshot{
		Treats:      r.treats,
		Roombas:     r.roombas,
		Doge:        r.doge,
		Lasers:      r.lasers,
		Weather:     r.weather,
		PowerUps:    r.powerUps,
		SecretSauce: r.secretSauce,
	}
}

func (r *Room) touch() {
	r.lastActivity = r.now()
	r.lobby.noteActivity(r.code, r.lastActivity)
}

func (r *Room) stopTicks() {
	if r.stopTicker != nil {
		r.stopTicker()
		r.stopTicker = nil
		r.ticks = nil
	}
}

func (r *Room) send(m *member, event string, data any) {
	b, err := encodeEvent(event, data)
	if err != nil {
		return
	}
	r.deliverBytes(m, event, b)
}

func (r *Room) broadcast(event string, data any) {
	b, err := encodeEvent(event, data)
	if err != nil {
		return
	}
	for _, m := range r.members {
		r.deliverBytes(m, event, b)
	}
}

func (r *Room) broadcastExcept(playerID, event string, data any) {
	b, err := encodeEvent(event, data)
	if err != nil {
		return
	}
	for _, m := range r.members {
		if m.state.ID == playerID {
			continue
		}
		r.deliverBytes(m, event, b)
	}
}

// deliverBytes drops on backpressure. A client that can't drain its send
// buffer will miss snapshots, and its read pump will tear the connection
// down soon enough.
func (r *Room) deliverBytes(m *member, event string, b []byte) {
	if err := m.sess.Send(b); err != nil {
		log.Debug().Str("room", r.code).Str("player", m.state.ID).Str("event", event).
			Msg("dropped message for slow client")
	}
}
