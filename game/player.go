package game

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Player is one connection. The read pump is the sole owner of p.room, so
// routing needs no locking: a connection is roomless until its own
// create/join round-trips, and nothing else writes the field.
type Player struct {
	id        string
	name      string
	skinIndex int

	conn      NetworkConnection
	outbox    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter

	lobby *Lobby
	room  *Room
}

func NewPlayer(id string, conn NetworkConnection, lobby *Lobby) *Player {
	return &Player{
		id:     id,
		conn:   conn,
		outbox: make(chan []byte, 256),
		closed: make(chan struct{}),
		// player-update arrives once per client frame; allow a 60 Hz
		// steady state with a burst for reconnect catch-up.
		limiter: rate.NewLimiter(rate.Limit(60), 120),
		lobby:   lobby,
	}
}

// Send queues data for the write pump. It never blocks a room actor: a full
// buffer drops the message and reports it.
func (p *Player) Send(data []byte) error {
	select {
	case <-p.closed:
		return ErrSendBufferFull
	case p.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *Player) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.conn.Close()
	})
}

func (p *Player) WritePump() {
	for {
		select {
		case <-p.closed:
			return
		case data := <-p.outbox:
			if err := p.conn.Write(data); err != nil {
				p.Close()
				return
			}
		}
	}
}

// ReadPump decodes envelopes off the wire and routes them: pre-room events
// to the lobby, everything else to the joined room. A read error is the
// disconnect signal and triggers the leave path.
func (p *Player) ReadPump() {
	defer func() {
		p.Close()
		if p.room != nil {
			p.room.RequestRemove(p.id)
		}
		log.Info().Str("player", p.id).Msg("player disconnected")
	}()

	for {
		data, err := p.conn.Read()
		if err != nil {
			return
		}
		if !p.limiter.Allow() {
			continue
		}
		var env clientEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Malformed traffic degrades to a no-op.
			continue
		}
		p.dispatch(env)
	}
}

func (p *Player) dispatch(env clientEnvelope) {
	switch env.Event {
	case evCreateRoom:
		if p.room != nil {
			return
		}
		var req createRoomPayload
		if len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &req)
		}
		p.name = req.PlayerName
		p.skinIndex = req.SkinIndex
		p.room = p.lobby.CreateRoom(p.state(), p)

	case evJoinRoom:
		if p.room != nil {
			return
		}
		var req joinRoomPayload
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		p.name = req.PlayerName
		p.skinIndex = req.SkinIndex
		room, err := p.lobby.JoinRoom(req.RoomCode, p.state(), p)
		if err != nil {
			p.sendEvent(evJoinError, joinErrorPayload{Message: err.Error()})
			return
		}
		p.room = room

	default:
		if p.room == nil {
			return
		}
		p.room.Deliver(inbound{from: p.id, event: env.Event, data: env.Data})
	}
}

func (p *Player) state() PlayerState {
	return PlayerState{ID: p.id, Name: p.name, SkinIndex: p.skinIndex}
}

func (p *Player) sendEvent(event string, data any) {
	b, err := encodeEvent(event, data)
	if err != nil {
		return
	}
	_ = p.Send(b)
}
