package app

import (
    "context"
    "errors"
    "log/slog"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/jaminalder/tictactoe/internal/domain"
)

// Errors exposed by the service layer.
var (
    ErrNotFound = errors.New("game not found")
)

// GameState is the in-memory state tracked per game.
type GameState struct {
    ID      string
    Game    domain.Game
    Created time.Time
    Updated time.Time
}

type subscriber struct {
    mu     sync.Mutex
    ch     chan GameState
    closed bool
}

// send delivers without blocking; false means the buffer was full.
func (s *subscriber) send(gs GameState) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return true
    }
    select {
    case s.ch <- gs:
        return true
    default:
        return false
    }
}

func (s *subscriber) close() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if !s.closed {
        s.closed = true
        close(s.ch)
    }
}

// Service manages games and subscribers. Each game owns its engine; the
// service serializes access to it.
type Service struct {
    mu     sync.Mutex
    games  map[string]*GameState
    subs   map[string]map[*subscriber]struct{}
    logger *slog.Logger
}

// NewService creates an empty service that logs to slog.Default.
func NewService() *Service {
    return &Service{
        games:  make(map[string]*GameState),
        subs:   make(map[string]map[*subscriber]struct{}),
        logger: slog.Default(),
    }
}

// SetLogger replaces the service logger.
func (s *Service) SetLogger(logger *slog.Logger) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if logger == nil {
        logger = slog.Default()
    }
    s.logger = logger
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    id := uuid.NewString()
    now := time.Now()
    gs := &GameState{ID: id, Game: domain.New(), Created: now, Updated: now}
    s.games[id] = gs
    s.logger.Info("game created", "game", id)
    cp := *gs
    return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    gs, ok := s.games[id]
    if !ok {
        return nil, false
    }
    cp := *gs
    return &cp, true
}

// Play submits a move for the side to move. A rejected move is reported in
// the outcome and leaves the game as it was; only accepted moves broadcast.
func (s *Service) Play(id string, pos int) (*GameState, domain.Outcome, error) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, domain.Outcome{}, ErrNotFound
    }
    out := gs.Game.SubmitMove(pos)
    if !out.Accepted() {
        s.logger.Debug("move rejected", "game", id, "cell", pos, "reason", out.Reason)
        cp := *gs
        s.mu.Unlock()
        return &cp, out, nil
    }
    gs.Updated = time.Now()
    s.logger.Info("move played", "game", id, "cell", pos, "outcome", out.Kind.String())
    cp := *gs
    subs := s.copySubsLocked(id)
    s.mu.Unlock()

    s.broadcast(id, cp, subs)
    return &cp, out, nil
}

// Restart resets a game to its initial state and broadcasts it.
func (s *Service) Restart(id string) (*GameState, error) {
    s.mu.Lock()
    gs, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    gs.Game.Restart()
    gs.Updated = time.Now()
    s.logger.Info("game restarted", "game", id)
    cp := *gs
    subs := s.copySubsLocked(id)
    s.mu.Unlock()

    s.broadcast(id, cp, subs)
    return &cp, nil
}

// broadcast fans a snapshot out; slow subscribers are closed and dropped.
func (s *Service) broadcast(id string, gs GameState, subs map[*subscriber]struct{}) {
    var toDrop []*subscriber
    for sub := range subs {
        if !sub.send(gs) {
            sub.close()
            toDrop = append(toDrop, sub)
        }
    }
    if len(toDrop) > 0 {
        s.mu.Lock()
        for _, sub := range toDrop {
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
        }
        s.logger.Warn("dropped slow subscribers", "game", id, "count", len(toDrop))
        s.mu.Unlock()
    }
}

// Subscribe registers a subscriber for a game. Returns a channel of state
// snapshots and an unsubscribe func; the subscription also ends with ctx.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan GameState, func(), error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.games[id]; !ok {
        return nil, nil, ErrNotFound
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan GameState, 1)}
    set[sub] = struct{}{}

    done := make(chan struct{})
    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            close(done)
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        select {
        case <-ctx.Done():
            unsub()
        case <-done:
        }
    }()
    return sub.ch, unsub, nil
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
    out := make(map[*subscriber]struct{})
    if set, ok := s.subs[id]; ok {
        for k := range set {
            out[k] = struct{}{}
        }
    }
    return out
}
