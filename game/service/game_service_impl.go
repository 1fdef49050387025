package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/campus-monopoly/game/engine"
)

// Option configures the game service
type Option func(*gameServiceImpl)

// WithLogger sets the service logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventHook registers a hook that receives every game event
func WithEventHook(hook EventHook) Option {
	return func(s *gameServiceImpl) { s.hook = hook }
}

// WithSnapshotStore enables SaveSnapshot
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *gameServiceImpl) { s.snapshots = store }
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	snapshots SnapshotStore
	hook      EventHook
	logger    *zap.SugaredLogger
	now       func() time.Time
	mu        sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   zap.NewNop().Sugar(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return engine.DefaultGameConfig().Name
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	configID := sess.ConfigID
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Clone(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	configID := req.ConfigName
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configID, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configID, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
		}
		configID = strings.TrimSuffix(configID, ".json")
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	players := req.Players
	if len(players) == 0 {
		players = []engine.PlayerSpec{
			{Name: "Player 1", Token: "@", Controller: engine.ControllerHuman},
			{Name: "Player 2", Token: "#", Controller: engine.ControllerCPU},
		}
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", configID, config, players)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.Engine.SetLogger(s.logger.With("session", sess.ID))

	s.logger.Infow("session created", "session", sess.ID, "config", configID)
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// lockedSession fetches a session and marks it accessed. Marking writes
// LastAccessedAt, so callers hold s.mu for writing.
func (s *gameServiceImpl) lockedSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warnw("failed to persist session", "session", sessionID, "after", after, "error", err)
	}
}

func (s *gameServiceImpl) emit(sessionID string, state *engine.GameState, events ...GameEvent) {
	if s.hook == nil {
		return
	}
	for _, ev := range events {
		s.hook(sessionID, ev, state)
	}
}

// TakeTurn plays the active player's turn. A non-nil buy answers the
// purchase question for this turn instead of the player's decider.
func (s *gameServiceImpl) TakeTurn(ctx context.Context, sessionID string, buy *bool) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}

	eng := sess.Engine
	if buy != nil {
		active := eng.GetState().ActivePlayer
		previous := eng.Decider(active)
		eng.SetDecider(active, engine.StaticDecider(*buy))
		defer eng.SetDecider(active, previous)
	}

	rec, err := eng.TakeTurn()
	if err != nil {
		return nil, err
	}

	state := eng.GetState().Clone()
	events := s.turnEvents(rec, state)
	s.persist(sessionID, "turn")
	s.emit(sessionID, state, events...)

	return &TurnResult{
		Turn:      rec,
		GameState: state,
		Message:   rec.Message,
		Events:    events,
	}, nil
}

// AutoPlay plays up to maxTurns turns with every player's own decider
func (s *gameServiceImpl) AutoPlay(ctx context.Context, sessionID string, maxTurns int) (*AutoPlayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	if maxTurns <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTurnCount, maxTurns)
	}

	result := &AutoPlayResult{
		TurnsRequested: maxTurns,
		Turns:          []engine.TurnRecord{},
		Events:         []GameEvent{},
	}
	if maxTurns > engine.MaxAutoPlayTurns {
		result.Truncated = true
		result.Limit = engine.MaxAutoPlayTurns
		maxTurns = engine.MaxAutoPlayTurns
	}

	eng := sess.Engine
	for i := 0; i < maxTurns && !eng.IsGameOver(); i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		rec, err := eng.TakeTurn()
		if err != nil {
			return nil, err
		}
		result.Turns = append(result.Turns, *rec)
		result.Events = append(result.Events, s.turnEvents(rec, eng.GetState())...)
	}

	state := eng.GetState().Clone()
	result.TurnsPlayed = len(result.Turns)
	result.GameState = state
	result.GameOver = state.GameOver
	result.GameOverReason = state.GameOverReason
	result.Winner = state.Winner
	result.Message = state.Message

	s.persist(sessionID, "autoplay")
	s.emit(sessionID, state, result.Events...)
	return result, nil
}

// ResetGame starts the session's game over with the same players
func (s *gameServiceImpl) ResetGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset().Clone()
	s.persist(sessionID, "reset")
	s.emit(sessionID, state, GameEvent{
		Type:      "reset",
		Message:   "Game reset to initial state",
		Timestamp: s.now(),
		Player:    state.ActivePlayer,
	})
	return state, nil
}

func resolvePlayer(eng *engine.GameEngine, player *int) (int, error) {
	state := eng.GetState()
	if player == nil {
		return state.ActivePlayer, nil
	}
	if *player < 0 || *player >= len(state.Players) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPlayer, *player)
	}
	return *player, nil
}

func (s *gameServiceImpl) propertyAction(sessionID, action string, req PropertyActionRequest, apply func(*engine.GameEngine, int, string) error) (*PropertyActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine
	idx, err := resolvePlayer(eng, req.Player)
	if err != nil {
		return nil, err
	}
	if err := apply(eng, idx, req.Code); err != nil {
		return nil, err
	}

	live, err := eng.Property(req.Code)
	if err != nil {
		return nil, err
	}
	prop := live.Clone()
	state := eng.GetState().Clone()
	player := state.Players[idx]

	var message string
	switch action {
	case "improve":
		if prop.Hotels() > 0 {
			message = fmt.Sprintf("%s built a hotel on %s", player.Name, prop.Name)
		} else {
			message = fmt.Sprintf("%s built house %d on %s", player.Name, prop.Houses(), prop.Name)
		}
	case "mortgage":
		message = fmt.Sprintf("%s mortgaged %s for $%d", player.Name, prop.Name, prop.Cost/2)
	case "unmortgage":
		message = fmt.Sprintf("%s lifted the mortgage on %s", player.Name, prop.Name)
	}

	s.persist(sessionID, action)
	s.emit(sessionID, state, GameEvent{
		Type:      action,
		Message:   message,
		Timestamp: s.now(),
		Turn:      state.TurnCount,
		Player:    idx,
		Property:  prop.Code,
	})

	return &PropertyActionResult{
		Action:    action,
		Property:  prop,
		Player:    player,
		GameState: state,
		Message:   message,
	}, nil
}

// Improve buys one improvement level on a property
func (s *gameServiceImpl) Improve(ctx context.Context, sessionID string, req PropertyActionRequest) (*PropertyActionResult, error) {
	return s.propertyAction(sessionID, "improve", req, (*engine.GameEngine).Improve)
}

// Mortgage mortgages a property
func (s *gameServiceImpl) Mortgage(ctx context.Context, sessionID string, req PropertyActionRequest) (*PropertyActionResult, error) {
	return s.propertyAction(sessionID, "mortgage", req, (*engine.GameEngine).Mortgage)
}

// Unmortgage lifts a mortgage
func (s *gameServiceImpl) Unmortgage(ctx context.Context, sessionID string, req PropertyActionRequest) (*PropertyActionResult, error) {
	return s.propertyAction(sessionID, "unmortgage", req, (*engine.GameEngine).Unmortgage)
}

// PayBail releases a jailed player early
func (s *gameServiceImpl) PayBail(ctx context.Context, sessionID string, player *int) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	idx, err := resolvePlayer(sess.Engine, player)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.PayBail(idx); err != nil {
		return nil, err
	}

	state := sess.Engine.GetState().Clone()
	s.persist(sessionID, "bail")
	s.emit(sessionID, state, GameEvent{
		Type:      "bail",
		Message:   fmt.Sprintf("%s paid $%d bail", state.Players[idx].Name, sess.Config.BailAmount),
		Timestamp: s.now(),
		Turn:      state.TurnCount,
		Player:    idx,
		Amount:    sess.Config.BailAmount,
	})
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Clone(), nil
}

// GetBoard describes the board with the current occupancy
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (*BoardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	board := sess.Engine.GetBoard()
	occupancy := sess.Engine.Occupancy()
	return &BoardView{
		ConfigName: sess.Config.Name,
		Size:       board.Size(),
		Tiles:      board.Tiles(),
		Groups:     board.Groups(),
		Occupancy:  occupancy,
		Rendered:   board.Render(occupancy),
	}, nil
}

// GetTurnHistory returns paginated turn history
func (s *gameServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetTurnHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []engine.TurnRecord{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				turns = append(turns, history[i])
			}
		} else {
			turns = append(turns, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// AdvisePurchase runs the purchase heuristic for a player and property
func (s *gameServiceImpl) AdvisePurchase(ctx context.Context, sessionID, code string, player *int) (*AdviceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	idx, err := resolvePlayer(sess.Engine, player)
	if err != nil {
		return nil, err
	}
	advice, err := sess.Engine.Advise(idx, code)
	if err != nil {
		return nil, err
	}
	prop, err := sess.Engine.Property(code)
	if err != nil {
		return nil, err
	}
	return &AdviceResult{
		PlayerIndex: idx,
		Player:      sess.Engine.GetState().Players[idx].Name,
		Property:    prop.Clone(),
		Advice:      advice,
	}, nil
}

// GetReport returns standings and per-property returns
func (s *gameServiceImpl) GetReport(ctx context.Context, sessionID string) (*engine.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	report := sess.Engine.Report()
	return &report, nil
}

// SaveSnapshot writes the session's snapshot through the snapshot store
func (s *gameServiceImpl) SaveSnapshot(ctx context.Context, sessionID, filename string) (*SaveResult, error) {
	if s.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lockedSession(sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := sess.Engine.Snapshot()
	written, err := s.snapshots.SaveSnapshot(snapshot, filename)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("snapshot saved", "session", sessionID, "file", written)
	return &SaveResult{Filename: written, Snapshot: snapshot}, nil
}

// ListConfigs returns available board configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific board configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a board configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}
	return s.configs.SaveConfig(configName, config)
}

// turnEvents derives events from a finished turn
func (s *gameServiceImpl) turnEvents(rec *engine.TurnRecord, state *engine.GameState) []GameEvent {
	ts := time.Unix(rec.Timestamp, 0)
	events := []GameEvent{{
		Type:      "turn",
		Message:   fmt.Sprintf("%s rolled %d and moved to %d", rec.PlayerName, rec.Roll, rec.To),
		Timestamp: ts,
		Turn:      rec.Turn,
		Player:    rec.Player,
	}}

	detail := GameEvent{
		Message:   rec.Message,
		Timestamp: ts,
		Turn:      rec.Turn,
		Player:    rec.Player,
		Property:  rec.PropertyCode,
		Amount:    rec.Amount,
	}
	switch rec.Action {
	case engine.ActionPurchase:
		detail.Type = "purchase"
	case engine.ActionRent:
		detail.Type = "rent"
	case engine.ActionToll:
		detail.Type = "toll"
	case engine.ActionBankrupt:
		detail.Type = "bankrupt"
	case engine.ActionEvent:
		detail.Type = "event"
		detail.Message = rec.Event
	}
	if detail.Type != "" {
		events = append(events, detail)
	}

	if state.GameOver && rec.Turn == state.TurnCount {
		events = append(events, GameEvent{
			Type:      "game_over",
			Message:   state.Message,
			Timestamp: ts,
			Turn:      rec.Turn,
			Player:    state.Winner,
		})
	}
	return events
}
