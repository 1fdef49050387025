package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/campus-monopoly/game/engine"
)

var (
	ErrSnapshotsDisabled = errors.New("snapshot storage is not configured")
	ErrInvalidPlayer     = errors.New("invalid player index")
	ErrInvalidTurnCount  = errors.New("max turns must be positive")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Turns
	TakeTurn(ctx context.Context, sessionID string, buy *bool) (*TurnResult, error)
	AutoPlay(ctx context.Context, sessionID string, maxTurns int) (*AutoPlayResult, error)
	ResetGame(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Property management outside the turn
	Improve(ctx context.Context, sessionID string, req PropertyActionRequest) (*PropertyActionResult, error)
	Mortgage(ctx context.Context, sessionID string, req PropertyActionRequest) (*PropertyActionResult, error)
	Unmortgage(ctx context.Context, sessionID string, req PropertyActionRequest) (*PropertyActionResult, error)
	PayBail(ctx context.Context, sessionID string, player *int) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetBoard(ctx context.Context, sessionID string) (*BoardView, error)
	GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	AdvisePurchase(ctx context.Context, sessionID, code string, player *int) (*AdviceResult, error)
	GetReport(ctx context.Context, sessionID string) (*engine.Report, error)
	SaveSnapshot(ctx context.Context, sessionID, filename string) (*SaveResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig, players []engine.PlayerSpec) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles board configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// SnapshotStore writes end-of-game snapshots
type SnapshotStore interface {
	SaveSnapshot(snapshot engine.Snapshot, filename string) (string, error)
}

// EventHook receives events after each state change of a session
type EventHook func(sessionID string, event GameEvent, state *engine.GameState)

// Session represents an active game session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
