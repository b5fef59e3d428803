package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/simon/clock"
	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/util"
)

var ErrSessionID = errors.New("factory built a session under another id")

// Factory builds a session, with its own note boxes, for the given id.
type Factory func(id string) (*Session, error)

type ScoreRecorder interface {
	Put(ctx context.Context, score model.Score) error
}

type ManagerConfig struct {
	// how long a finished session stays readable before it is dropped;
	// zero keeps it until Remove
	Retention time.Duration
	// a session with no event for this long is ended with ReasonIdle;
	// zero never ends it
	IdleTimeout time.Duration
	Scheduler   clock.Scheduler
	Logger      *slog.Logger
	// defaults to time.Now
	Now func() time.Time
}

type idleTimer struct {
	timer clock.Timer
	seq   int
}

// Manager owns the live sessions of a server.
type Manager struct {
	newSession Factory
	scores     ScoreRecorder
	cfg        ManagerConfig

	mu       sync.Mutex
	sessions map[string]*Session
	idle     map[string]idleTimer
	idleSeq  int
}

func NewManager(factory Factory, scores ScoreRecorder, cfg ManagerConfig) *Manager {
	if cfg.Scheduler == nil {
		cfg.Scheduler = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		newSession: factory,
		scores:     scores,
		cfg:        cfg,
		sessions:   make(map[string]*Session),
		idle:       make(map[string]idleTimer),
	}
}

// Create builds a new session under a random id. The session is not started.
func (m *Manager) Create() (*Session, error) {
	id := uuid.New().String()
	s, err := m.newSession(id)
	if err != nil {
		return nil, err
	}

	if s.ID() != id {
		return nil, ErrSessionID
	}

	s.Subscribe(func(e Event) {
		if e.Type != PhaseChanged || e.Phase != GameOver {
			m.touch(id, s)
			return
		}
		m.stopIdle(id)
		m.record(id, e)
		if m.cfg.Retention > 0 {
			m.cfg.Scheduler.AfterFunc(m.cfg.Retention, func() { m.drop(id) })
		}
	})

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	m.touch(id, s)

	m.cfg.Logger.Info("session created", "session", id)
	return s, nil
}

// touch restarts the idle countdown of session id.
func (m *Manager) touch(id string, s *Session) {
	if m.cfg.IdleTimeout <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return
	}
	if old, ok := m.idle[id]; ok {
		old.timer.Stop()
	}
	m.idleSeq++
	seq := m.idleSeq
	m.idle[id] = idleTimer{
		timer: m.cfg.Scheduler.AfterFunc(m.cfg.IdleTimeout, func() { m.expire(id, seq, s) }),
		seq:   seq,
	}
}

func (m *Manager) stopIdle(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.idle[id]; ok {
		t.timer.Stop()
		delete(m.idle, id)
	}
}

func (m *Manager) expire(id string, seq int, s *Session) {
	m.mu.Lock()
	t, ok := m.idle[id]
	if !ok || t.seq != seq {
		m.mu.Unlock()
		return
	}
	delete(m.idle, id)
	m.mu.Unlock()

	m.cfg.Logger.Info("session idle", "session", id)
	s.endWith(ReasonIdle)
}

func (m *Manager) record(id string, e Event) {
	if m.scores == nil {
		return
	}
	score := model.Score{
		SessionID: id,
		Level:     e.Score,
		Reason:    e.Reason,
		EndedAt:   m.cfg.Now().UTC(),
	}
	if err := m.scores.Put(context.Background(), score); err != nil {
		m.cfg.Logger.Error("could not store score", "session", id, "err", err)
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove ends the session and forgets it.
func (m *Manager) Remove(id string) (*Session, bool) {
	s, ok := m.drop(id)
	if ok {
		s.End()
	}
	return s, ok
}

func (m *Manager) drop(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	return s, ok
}

// List returns the ids of every known session, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return util.GetKeysSorted(m.sessions)
}

// EndAll ends every session, for shutdown.
func (m *Manager) EndAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.End()
	}
}
