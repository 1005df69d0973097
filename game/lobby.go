package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Lobby owns the code→room table, the single piece of cross-room shared
// state. One actor goroutine (Run) serializes every access to it; rooms and
// connection pumps talk to it over channels only.
type Lobby struct {
	rooms    map[string]*Room
	lastSeen map[string]time.Time

	createReqs chan createRequest
	joinReqs   chan lobbyJoinRequest
	releases   chan string
	activity   chan activityMark

	tickers TickerFactory
	rng     *rand.Rand
	now     func() time.Time
	wg      *sync.WaitGroup
}

type createRequest struct {
	state PlayerState
	sess  session
	reply chan *Room
}

type lobbyJoinRequest struct {
	code string
	join joinRequest
}

type activityMark struct {
	code string
	at   time.Time
}

func NewLobby(rng *rand.Rand, tickers TickerFactory, wg *sync.WaitGroup) *Lobby {
	return &Lobby{
		rooms:      map[string]*Room{},
		lastSeen:   map[string]time.Time{},
		createReqs: make(chan createRequest, 32),
		joinReqs:   make(chan lobbyJoinRequest, 32),
		releases:   make(chan string, 32),
		activity:   make(chan activityMark, 256),
		tickers:    tickers,
		rng:        rng,
		now:        time.Now,
		wg:         wg,
	}
}

// Run is the lobby actor. The started channel is closed once the loop is
// accepting requests.
func (l *Lobby) Run(started chan struct{}) {
	sweep, stopSweep := l.tickers.Create(sweepEvery)
	defer stopSweep()

	close(started)

	for {
		select {
		case req := <-l.createReqs:
			l.handleCreate(req)

		case req := <-l.joinReqs:
			l.handleJoin(req)

		case code := <-l.releases:
			delete(l.rooms, code)
			delete(l.lastSeen, code)

		case mark := <-l.activity:
			if _, ok := l.lastSeen[mark.code]; ok {
				l.lastSeen[mark.code] = mark.at
			}

		case now := <-sweep:
			l.sweepStale(now)
		}
	}
}

// CreateRoom registers a new room with the caller as host and returns it.
// Called from connection read pumps.
func (l *Lobby) CreateRoom(state PlayerState, sess session) *Room {
	req := createRequest{state: state, sess: sess, reply: make(chan *Room, 1)}
	l.createReqs <- req
	return <-req.reply
}

// JoinRoom resolves the code and forwards the join to the room's actor,
// which owns the phase and capacity checks.
func (l *Lobby) JoinRoom(code string, state PlayerState, sess session) (*Room, error) {
	req := lobbyJoinRequest{
		code: code,
		join: joinRequest{state: state, sess: sess, reply: make(chan joinReply, 1)},
	}
	l.joinReqs <- req
	rep := <-req.join.reply
	return rep.room, rep.err
}

func (l *Lobby) handleCreate(req createRequest) {
	code := l.newRoomCode()
	room := newRoom(code, req.state, req.sess, roomDeps{
		lobby:   l,
		tickers: l.tickers,
		rng:     rand.New(rand.NewSource(l.rng.Int63())),
		now:     l.now,
		wg:      l.wg,
	})
	l.rooms[code] = room
	l.lastSeen[code] = l.now()
	l.wg.Add(1)
	go room.run()

	b, err := encodeEvent(evRoomCreated, roomCreatedPayload{
		RoomCode: code,
		PlayerID: req.state.ID,
		IsHost:   true,
	})
	if err == nil {
		_ = req.sess.Send(b)
	}
	req.reply <- room

	log.Info().Str("room", code).Str("player", req.state.ID).Msg("room created")
}

func (l *Lobby) handleJoin(req lobbyJoinRequest) {
	room, ok := l.rooms[req.code]
	if !ok {
		req.join.reply <- joinReply{err: ErrRoomNotFound}
		return
	}
	room.RequestJoin(req.join)
}

// newRoomCode samples codes until one is free. With 32^6 codes and a
// handful of live rooms a retry is already unlikely.
func (l *Lobby) newRoomCode() string {
	for {
		code := randomRoomCode(l.rng)
		if _, taken := l.rooms[code]; !taken {
			return code
		}
	}
}

func randomRoomCode(rng *rand.Rand) string {
	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rng.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}

// sweepStale garbage-collects rooms whose last activity is older than the
// threshold, closing their actors (which cancels any running tick loop).
func (l *Lobby) sweepStale(now time.Time) {
	for code, seen := range l.lastSeen {
		if now.Sub(seen) <= staleRoomAfter {
			continue
		}
		if room, ok := l.rooms[code]; ok {
			close(room.quit)
		}
		delete(l.rooms, code)
		delete(l.lastSeen, code)
		log.Info().Str("room", code).Msg("removed stale room")
	}
}

// noteActivity is called by room actors on member traffic. Non-blocking:
// losing a mark only delays the stale sweep by one event.
func (l *Lobby) noteActivity(code string, at time.Time) {
	select {
	case l.activity <- activityMark{code: code, at: at}:
	default:
	}
}

// releaseRoom is called by a room actor as it exits after its last member
// left.
func (l *Lobby) releaseRoom(code string) {
	l.releases <- code
	log.Info().Str("room", code).Msg("room released")
}
