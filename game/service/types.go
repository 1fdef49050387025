package service

import (
	"time"

	"github.com/wricardo/campus-monopoly/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// CreateSessionRequest selects a board and the two players.
// Empty Players gives a human "Player 1" against a CPU "Player 2".
type CreateSessionRequest struct {
	ConfigName string              `json:"config_name,omitempty"`
	Players    []engine.PlayerSpec `json:"players,omitempty"`
}

// TurnResult contains the outcome of a single turn
type TurnResult struct {
	Turn      *engine.TurnRecord `json:"turn"`
	GameState *engine.GameState  `json:"game_state"`
	Message   string             `json:"message"`
	Events    []GameEvent        `json:"events,omitempty"`
}

// AutoPlayResult contains the outcome of several turns played in a row
type AutoPlayResult struct {
	TurnsRequested int                 `json:"turns_requested"`
	TurnsPlayed    int                 `json:"turns_played"`
	Truncated      bool                `json:"truncated,omitempty"`
	Limit          int                 `json:"limit,omitempty"`
	Turns          []engine.TurnRecord `json:"turns"`
	GameState      *engine.GameState   `json:"game_state"`
	Events         []GameEvent         `json:"events"`
	GameOver       bool                `json:"game_over"`
	GameOverReason string              `json:"game_over_reason,omitempty"`
	Winner         int                 `json:"winner"`
	Message        string              `json:"message,omitempty"`
}

// PropertyActionRequest names the player acting on a property outside a turn.
// A nil Player means the active player.
type PropertyActionRequest struct {
	Player *int   `json:"player,omitempty"`
	Code   string `json:"-"`
}

// PropertyActionResult reports the property and the acting player after the change
type PropertyActionResult struct {
	Action    string            `json:"action"`
	Property  *engine.Property  `json:"property"`
	Player    *engine.Player    `json:"player"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
}

// AdviceResult is the purchase heuristic's verdict for one player and property
type AdviceResult struct {
	PlayerIndex int              `json:"player_index"`
	Player      string           `json:"player"`
	Property    *engine.Property `json:"property"`
	Advice      engine.Advice    `json:"advice"`
}

// BoardView describes the board for display
type BoardView struct {
	ConfigName string                  `json:"config_name"`
	Size       int                     `json:"size"`
	Tiles      []engine.Tile           `json:"tiles"`
	Groups     []*engine.PropertyGroup `json:"groups"`
	Occupancy  map[string]int          `json:"occupancy"`
	Rendered   string                  `json:"rendered"`
}

// SaveResult names the snapshot file written
type SaveResult struct {
	Filename string          `json:"filename"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "turn", "purchase", "rent", "toll", "bankrupt", "game_over", "reset", "improve", "mortgage", "unmortgage", "bail"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Turn      int       `json:"turn,omitempty"`
	Player    int       `json:"player"`
	Property  string    `json:"property,omitempty"`
	Amount    int       `json:"amount,omitempty"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnRecord `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a board configuration
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for session creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	BoardSize     int    `json:"board_size"`
	GroupCount    int    `json:"group_count"`
	PropertyCount int    `json:"property_count"`
	StartingCash  int    `json:"starting_cash"`
	TurnCap       int    `json:"turn_cap"`
	JailArrest    bool   `json:"jail_arrest"`
}
