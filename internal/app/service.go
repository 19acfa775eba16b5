package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
	"github.com/rs/zerolog"
)

// Errors exposed by the service layer.
var (
	ErrNotFound = errors.New("game not found")
)

// GameState is a copy of one session as seen by renderers.
type GameState struct {
	ID      string
	View    domain.View
	Created time.Time
	Updated time.Time
}

type session struct {
	id      string
	game    *domain.Game
	created time.Time
	updated time.Time
}

func (s *session) state() GameState {
	return GameState{ID: s.id, View: s.game.View(), Created: s.created, Updated: s.updated}
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service owns one game per session and the subscribers watching it.
type Service struct {
	mu     sync.Mutex
	games  map[string]*session
	subs   map[string]map[*subscriber]struct{}
	render func(GameState) []byte
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for session events.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// WithRenderer sets the function that encodes broadcast payloads.
func WithRenderer(r func(GameState) []byte) Option {
	return func(s *Service) {
		if r != nil {
			s.render = r
		}
	}
}

// NewService creates a service. Without WithRenderer broadcasts carry no payload.
func NewService(opts ...Option) *Service {
	s := &Service{
		games:  make(map[string]*session),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: func(GameState) []byte { return nil },
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame starts a new session at the empty board.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := &session{id: uuid.NewString(), game: domain.New(), created: now, updated: now}
	s.games[sess.id] = sess
	s.log.Info().Str("game", sess.id).Msg("game created")
	gs := sess.state()
	return &gs, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, false
	}
	gs := sess.state()
	return &gs, true
}

// Play applies a move to the session's active board. A move the game
// ignores is not an error: the unchanged state comes back and nobody is notified.
func (s *Service) Play(id string, index int) (*GameState, error) {
	return s.update(id, func(g *domain.Game) (bool, error) {
		ok := g.Play(index)
		if ok {
			s.log.Debug().Str("game", id).Int("cell", index).Int("step", g.Step()).Msg("move played")
		} else {
			s.log.Debug().Str("game", id).Int("cell", index).Msg("move ignored")
		}
		return ok, nil
	})
}

// JumpTo moves the session to an earlier or later board in its history.
func (s *Service) JumpTo(id string, step int) (*GameState, error) {
	return s.update(id, func(g *domain.Game) (bool, error) {
		if step == g.Step() {
			return false, nil
		}
		if err := g.JumpTo(step); err != nil {
			return false, fmt.Errorf("jump in game %s: %w", id, err)
		}
		s.log.Debug().Str("game", id).Int("step", step).Msg("jumped")
		return true, nil
	})
}

// ToggleOrder flips the order of the session's move list.
func (s *Service) ToggleOrder(id string) (*GameState, error) {
	return s.update(id, func(g *domain.Game) (bool, error) {
		g.ToggleOrder()
		return true, nil
	})
}

// update runs fn under the lock and broadcasts when fn reports a change.
func (s *Service) update(id string, fn func(*domain.Game) (bool, error)) (*GameState, error) {
	s.mu.Lock()
	sess, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	changed, err := fn(sess.game)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	cp := sess.state()
	if !changed {
		s.mu.Unlock()
		return &cp, nil
	}
	sess.updated = s.now()
	cp.Updated = sess.updated

	payload := s.render(cp)
	dropped := s.broadcastLocked(id, payload)
	s.mu.Unlock()

	if dropped > 0 {
		s.log.Warn().Str("game", id).Int("dropped", dropped).Msg("dropped slow subscribers")
	}
	return &cp, nil
}

// broadcastLocked fans out without blocking; slow subscribers are closed and removed.
// Sends happen under s.mu so an unsubscribe cannot close a channel mid-send.
func (s *Service) broadcastLocked(id string, payload []byte) int {
	set := s.subs[id]
	dropped := 0
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(set, sub)
			dropped++
		}
	}
	if set != nil && len(set) == 0 {
		delete(s.subs, id)
	}
	return dropped
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
// The channel is closed on unsubscribe, when ctx ends, or when the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			sub.close()
			s.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}
