package game

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- roomLobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) noteActivity(code string, at time.Time) {
	m.Called(code, at)
}

func (m *MockLobby) releaseRoom(code string) {
	m.Called(code)
}

// lobbyFuncs backs roomLobby with plain closures where a full mock is
// overkill.
type lobbyFuncs struct {
	activity func(code string, at time.Time)
	release  func(code string)
}

func (l lobbyFuncs) noteActivity(code string, at time.Time) {
	if l.activity != nil {
		l.activity(code, at)
	}
}

func (l lobbyFuncs) releaseRoom(code string) {
	if l.release != nil {
		l.release(code)
	}
}

// --- session ---

// recordingSession captures everything a room sends to one member.
type recordingSession struct {
	sent   [][]byte
	closed bool
}

func (s *recordingSession) Send(b []byte) error {
	s.sent = append(s.sent, b)
	return nil
}

func (s *recordingSession) Close() {
	s.closed = true
}

type recordedEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *recordingSession) events(t *testing.T) []recordedEvent {
	t.Helper()
	out := make([]recordedEvent, 0, len(s.sent))
	for _, b := range s.sent {
		var ev recordedEvent
		require.NoError(t, json.Unmarshal(b, &ev))
		out = append(out, ev)
	}
	return out
}

func (s *recordingSession) eventNames(t *testing.T) []string {
	t.Helper()
	names := []string{}
	for _, ev := range s.events(t) {
		names = append(names, ev.Event)
	}
	return names
}

// lastOf returns the payload of the most recent occurrence of event.
func (s *recordingSession) lastOf(t *testing.T, event string) (json.RawMessage, bool) {
	t.Helper()
	evs := s.events(t)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Event == event {
			return evs[i].Data, true
		}
	}
	return nil, false
}

func (s *recordingSession) countOf(t *testing.T, event string) int {
	t.Helper()
	n := 0
	for _, ev := range s.events(t) {
		if ev.Event == event {
			n++
		}
	}
	return n
}

// --- TickerFactory ---

// fakeTickers hands out channels the test feeds by hand.
type fakeTickers struct {
	mu      sync.Mutex
	created []chan time.Time
	stopped int
}

func (f *fakeTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	f.mu.Lock()
	f.created = append(f.created, ch)
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}
}

func (f *fakeTickers) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// --- clock ---

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
