package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/campus-monopoly/game/engine"
	"github.com/wricardo/campus-monopoly/game/service"
)

// MockSessionManager implements service.SessionManager for testing.
// Every engine it creates rolls from the scripted dice.
type MockSessionManager struct {
	sessions map[string]*service.Session
	rolls    []int
	saves    int
}

func NewMockSessionManager(rolls ...int) *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		rolls:    rolls,
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig, players []engine.PlayerSpec) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config, players)
	if err != nil {
		return nil, err
	}
	eng.SetRandomSource(engine.NewScriptedRandom(m.rolls...))

	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

// testConfig is an eight tile board:
//
//	0 GO, 1 A3, 2 B, 3 R, 4 A, 5 A2, 6 E, 7 J
func testConfig() *engine.GameConfig {
	config := &engine.GameConfig{
		Name:           "test",
		Description:    "Test configuration",
		StartingCash:   1000,
		PassStartBonus: 200,
		TollMultiplier: 25,
		TurnCap:        100,
		JailTurns:      2,
		BailAmount:     50,
		Layout: []string{
			"A A2 E",
			"R J",
			"B A3 GO",
		},
		Groups: []engine.GroupConfig{
			{
				Name: "Alpha", Type: "Housing", Color: "Red",
				BaseCost: 100, BaseRent: 10, HouseRents: []int{20, 40, 80, 160, 320}, HouseCost: 50, FullSet: 3,
				Members: []engine.MemberConfig{
					{Code: "A", Name: "Alpha Hall"},
					{Code: "A2", Name: "Alpha Annex"},
					{Code: "A3", Name: "Alpha Tower"},
				},
			},
			{
				Name: "Beta", Type: "Dining", Color: "Green",
				BaseCost: 60, BaseRent: 5, HouseRents: []int{10, 20}, HouseCost: 40, FullSet: 1,
				Members: []engine.MemberConfig{
					{Code: "B", Name: "Beta Diner"},
				},
			},
		},
		Specials: []engine.SpecialConfig{
			{Code: "GO", Name: "Start", Kind: engine.TileStart, Position: 0},
			{Code: "R", Name: "Scooter", Kind: engine.TileToll, Position: 3},
			{Code: "E", Name: "Event", Kind: engine.TileEvent, Position: 6},
			{Code: "J", Name: "Jail", Kind: engine.TileJail, Position: 7},
		},
		Events: engine.EventDeck{
			Good: []string{"found a twenty"},
			Bad:  []string{"lost a textbook"},
		},
	}
	config.Messages.Welcome = "Welcome to test!"
	return config
}

func NewMockConfigManager() *MockConfigManager {
	defaultConfig := testConfig()
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test": defaultConfig,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("configuration not found")
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["test"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

// fakeSnapshots records saved snapshots
type fakeSnapshots struct {
	saved []engine.Snapshot
	err   error
}

func (f *fakeSnapshots) SaveSnapshot(snapshot engine.Snapshot, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, snapshot)
	if filename == "" {
		filename = "default.json"
	}
	return filename, nil
}

type recordedEvent struct {
	sessionID string
	event     service.GameEvent
}

func newTestService(t *testing.T, rolls []int, opts ...service.Option) (service.GameService, *MockSessionManager, string) {
	t.Helper()
	sessions := NewMockSessionManager(rolls...)
	svc := service.NewGameService(sessions, NewMockConfigManager(), opts...)
	info, err := svc.CreateSession(context.Background(), service.CreateSessionRequest{ConfigName: "test"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, sessions, info.ID
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func eventTypes(events []service.GameEvent) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		req        service.CreateSessionRequest
		wantErr    string
		wantConfig string
	}{
		{"create with default config", service.CreateSessionRequest{}, "", "test"},
		{"create with specific config", service.CreateSessionRequest{ConfigName: "test"}, "", "test"},
		{"create with invalid config", service.CreateSessionRequest{ConfigName: "nonexistent"}, "Available configs: [test]", ""},
		{"create with three players", service.CreateSessionRequest{Players: make([]engine.PlayerSpec, 3)}, "exactly 2 players", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.req)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("CreateSession() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession() error = %v", err)
			}
			if info.ConfigName != tt.wantConfig {
				t.Errorf("ConfigName = %s, want %s", info.ConfigName, tt.wantConfig)
			}
			players := info.GameState.Players
			if players[0].Controller != engine.ControllerHuman || players[1].Controller != engine.ControllerCPU {
				t.Errorf("expected human vs cpu by default, got %s vs %s", players[0].Controller, players[1].Controller)
			}
		})
	}
}

func TestGameService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t, []int{1})

	info, err := svc.GetSession(ctx, id)
	if err != nil || info.ID != id {
		t.Fatalf("GetSession() = %v, %v", info, err)
	}
	if _, err := svc.GetSession(ctx, "nope"); err == nil {
		t.Error("expected error for unknown session")
	}

	list, err := svc.ListSessions(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSessions() = %d sessions, %v", len(list), err)
	}

	if err := svc.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := svc.GetGameState(ctx, id); err == nil {
		t.Error("expected deleted session to be gone")
	}
}

func TestGameService_TakeTurn(t *testing.T) {
	ctx := context.Background()
	var events []recordedEvent
	hook := func(sessionID string, ev service.GameEvent, state *engine.GameState) {
		events = append(events, recordedEvent{sessionID, ev})
	}
	svc, sessions, id := newTestService(t, []int{1}, service.WithEventHook(hook))

	t.Run("human declines by default", func(t *testing.T) {
		result, err := svc.TakeTurn(ctx, id, nil)
		if err != nil {
			t.Fatalf("TakeTurn() error = %v", err)
		}
		if result.Turn.Action != engine.ActionDeclined || result.Turn.PropertyCode != "A3" {
			t.Errorf("expected declined A3, got %s %s", result.Turn.Action, result.Turn.PropertyCode)
		}
		if len(result.Events) != 1 || result.Events[0].Type != "turn" {
			t.Errorf("expected a single turn event, got %v", eventTypes(result.Events))
		}
	})

	// cpu lands on A3 too and buys it
	if _, err := svc.TakeTurn(ctx, id, nil); err != nil {
		t.Fatalf("TakeTurn() error = %v", err)
	}
	state, _ := svc.GetGameState(ctx, id)
	if state.Players[1].Cash != 800 {
		t.Fatalf("expected cpu to buy A3 for 200, cash %d", state.Players[1].Cash)
	}

	t.Run("buy override answers for one turn", func(t *testing.T) {
		result, err := svc.TakeTurn(ctx, id, boolPtr(true))
		if err != nil {
			t.Fatalf("TakeTurn() error = %v", err)
		}
		if result.Turn.Action != engine.ActionPurchase || result.Turn.PropertyCode != "B" {
			t.Errorf("expected purchase of B, got %s %s", result.Turn.Action, result.Turn.PropertyCode)
		}
		if got := eventTypes(result.Events); len(got) != 2 || got[1] != "purchase" {
			t.Errorf("expected turn and purchase events, got %v", got)
		}

		sess, _ := sessions.Get(id)
		if d, ok := sess.Engine.Decider(0).(engine.StaticDecider); !ok || bool(d) {
			t.Errorf("expected the human decider to be restored, got %#v", sess.Engine.Decider(0))
		}
	})

	if len(events) != 5 {
		t.Errorf("expected 5 hooked events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.sessionID != id {
			t.Errorf("event for wrong session %s", ev.sessionID)
		}
	}
	if sessions.saves < 3 {
		t.Errorf("expected a save after every turn, got %d", sessions.saves)
	}

	if _, err := svc.TakeTurn(ctx, "nope", nil); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestGameService_AutoPlay(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t, []int{1})

	if _, err := svc.AutoPlay(ctx, id, 0); err == nil {
		t.Error("expected error for zero turns")
	}

	result, err := svc.AutoPlay(ctx, id, 60)
	if err != nil {
		t.Fatalf("AutoPlay() error = %v", err)
	}
	if !result.Truncated || result.Limit != engine.MaxAutoPlayTurns {
		t.Errorf("expected truncation to %d, got %+v", engine.MaxAutoPlayTurns, result.Limit)
	}
	if result.TurnsRequested != 60 || result.TurnsPlayed != engine.MaxAutoPlayTurns || len(result.Turns) != engine.MaxAutoPlayTurns {
		t.Errorf("unexpected counts: requested %d played %d", result.TurnsRequested, result.TurnsPlayed)
	}
	if result.GameState.TurnCount != engine.MaxAutoPlayTurns || result.GameOver {
		t.Errorf("unexpected state after autoplay: turns %d over %v", result.GameState.TurnCount, result.GameOver)
	}

	short, err := svc.AutoPlay(ctx, id, 3)
	if err != nil {
		t.Fatalf("AutoPlay() error = %v", err)
	}
	if short.Truncated || short.TurnsPlayed != 3 || short.Turns[0].Turn != engine.MaxAutoPlayTurns+1 {
		t.Errorf("unexpected short autoplay: %+v", short)
	}
}

func TestGameService_AutoPlayStopsAtGameOver(t *testing.T) {
	ctx := context.Background()
	sessions := NewMockSessionManager(1)
	configs := NewMockConfigManager()
	config := testConfig()
	config.TurnCap = 4
	configs.configs["short"] = config
	svc := service.NewGameService(sessions, configs)

	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{ConfigName: "short"})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	result, err := svc.AutoPlay(ctx, info.ID, 10)
	if err != nil {
		t.Fatalf("AutoPlay() error = %v", err)
	}
	if result.TurnsPlayed != 4 || !result.GameOver || result.GameOverReason != engine.ReasonTurnCap {
		t.Errorf("expected turn cap after 4 turns, got %d %v %s", result.TurnsPlayed, result.GameOver, result.GameOverReason)
	}
	last := result.Events[len(result.Events)-1]
	if last.Type != "game_over" {
		t.Errorf("expected final game_over event, got %s", last.Type)
	}
	if _, err := svc.TakeTurn(ctx, info.ID, nil); !errors.Is(err, engine.ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestGameService_GetTurnHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t, []int{1})

	if _, err := svc.AutoPlay(ctx, id, 5); err != nil {
		t.Fatalf("Failed to play turns: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		opts      service.HistoryOptions
		wantTurns []int
		wantPages int
		wantErr   bool
	}{
		{"default options", id, service.HistoryOptions{}, []int{5, 4, 3, 2, 1}, 1, false},
		{"with pagination", id, service.HistoryOptions{Page: 1, Limit: 2, Order: "asc"}, []int{1, 2}, 3, false},
		{"second page descending", id, service.HistoryOptions{Page: 2, Limit: 2, Order: "desc"}, []int{3, 2}, 3, false},
		{"last partial page", id, service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, []int{5}, 3, false},
		{"past the end", id, service.HistoryOptions{Page: 9, Limit: 2}, []int{}, 3, false},
		{"invalid session", "nonexistent", service.HistoryOptions{}, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.GetTurnHistory(ctx, tt.sessionID, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetTurnHistory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if result.Turns == nil {
				t.Fatal("GetTurnHistory() returned nil turns slice")
			}
			if result.TotalTurns != 5 || result.TotalPages != tt.wantPages {
				t.Errorf("total %d pages %d, want 5 and %d", result.TotalTurns, result.TotalPages, tt.wantPages)
			}
			if len(result.Turns) != len(tt.wantTurns) {
				t.Fatalf("got %d turns, want %d", len(result.Turns), len(tt.wantTurns))
			}
			for i, turn := range tt.wantTurns {
				if result.Turns[i].Turn != turn {
					t.Errorf("turn[%d] = %d, want %d", i, result.Turns[i].Turn, turn)
				}
			}
		})
	}
}

func TestGameService_PropertyActions(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t, []int{1})

	// human buys A3 on the first turn
	if _, err := svc.TakeTurn(ctx, id, boolPtr(true)); err != nil {
		t.Fatalf("TakeTurn() error = %v", err)
	}

	t.Run("improve needs the full group", func(t *testing.T) {
		_, err := svc.Improve(ctx, id, service.PropertyActionRequest{Player: intPtr(0), Code: "A3"})
		if !errors.Is(err, engine.ErrNoMonopoly) {
			t.Errorf("expected ErrNoMonopoly, got %v", err)
		}
	})

	t.Run("mortgage and unmortgage", func(t *testing.T) {
		result, err := svc.Mortgage(ctx, id, service.PropertyActionRequest{Player: intPtr(0), Code: "A3"})
		if err != nil {
			t.Fatalf("Mortgage() error = %v", err)
		}
		if !result.Property.Mortgaged || result.Player.Cash != 900 {
			t.Errorf("expected mortgaged A3 and cash 900, got %v %d", result.Property.Mortgaged, result.Player.Cash)
		}
		if !strings.Contains(result.Message, "mortgaged") {
			t.Errorf("unexpected message %q", result.Message)
		}

		result, err = svc.Unmortgage(ctx, id, service.PropertyActionRequest{Player: intPtr(0), Code: "A3"})
		if err != nil {
			t.Fatalf("Unmortgage() error = %v", err)
		}
		if result.Property.Mortgaged || result.Player.Cash != 790 {
			t.Errorf("expected lifted mortgage and cash 790, got %v %d", result.Property.Mortgaged, result.Player.Cash)
		}
	})

	t.Run("active player is the default", func(t *testing.T) {
		// player 1 is active and does not own A3
		_, err := svc.Mortgage(ctx, id, service.PropertyActionRequest{Code: "A3"})
		if !errors.Is(err, engine.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("invalid player", func(t *testing.T) {
		_, err := svc.Mortgage(ctx, id, service.PropertyActionRequest{Player: intPtr(5), Code: "A3"})
		if !errors.Is(err, service.ErrInvalidPlayer) {
			t.Errorf("expected ErrInvalidPlayer, got %v", err)
		}
	})

	t.Run("bail requires jail", func(t *testing.T) {
		if _, err := svc.PayBail(ctx, id, nil); !errors.Is(err, engine.ErrNotInJail) {
			t.Errorf("expected ErrNotInJail, got %v", err)
		}
	})
}

func TestGameService_Queries(t *testing.T) {
	ctx := context.Background()
	snapshots := &fakeSnapshots{}
	svc, _, id := newTestService(t, []int{1}, service.WithSnapshotStore(snapshots))

	board, err := svc.GetBoard(ctx, id)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if board.Size != 8 || len(board.Tiles) != 8 || len(board.Groups) != 2 || board.Rendered == "" {
		t.Errorf("unexpected board view: size %d tiles %d groups %d", board.Size, len(board.Tiles), len(board.Groups))
	}

	advice, err := svc.AdvisePurchase(ctx, id, "A", nil)
	if err != nil {
		t.Fatalf("AdvisePurchase() error = %v", err)
	}
	if advice.PlayerIndex != 0 || advice.Advice.Decision != engine.DecisionBuy {
		t.Errorf("unexpected advice %+v", advice)
	}
	if _, err := svc.AdvisePurchase(ctx, id, "GO", nil); !errors.Is(err, engine.ErrNotPurchasable) {
		t.Errorf("expected ErrNotPurchasable, got %v", err)
	}

	report, err := svc.GetReport(ctx, id)
	if err != nil || len(report.Players) != 2 {
		t.Fatalf("GetReport() = %+v, %v", report, err)
	}

	saved, err := svc.SaveSnapshot(ctx, id, "end.json")
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if saved.Filename != "end.json" || len(snapshots.saved) != 1 {
		t.Errorf("unexpected save result %+v", saved)
	}

	plain, _, plainID := newTestService(t, []int{1})
	if _, err := plain.SaveSnapshot(ctx, plainID, ""); !errors.Is(err, service.ErrSnapshotsDisabled) {
		t.Errorf("expected ErrSnapshotsDisabled, got %v", err)
	}
}

func TestGameService_ResetGame(t *testing.T) {
	ctx := context.Background()
	var types []string
	hook := func(_ string, ev service.GameEvent, _ *engine.GameState) { types = append(types, ev.Type) }
	svc, _, id := newTestService(t, []int{2}, service.WithEventHook(hook))

	before, _ := svc.GetGameState(ctx, id)
	gameID := before.GameID

	if _, err := svc.AutoPlay(ctx, id, 3); err != nil {
		t.Fatalf("AutoPlay() error = %v", err)
	}

	state, err := svc.ResetGame(ctx, id)
	if err != nil {
		t.Fatalf("ResetGame() error = %v", err)
	}
	if state.TurnCount != 0 || state.Players[0].Position != 0 || len(state.TurnHistory) != 0 {
		t.Errorf("expected a fresh game, got turn %d", state.TurnCount)
	}
	if state.GameID == gameID {
		t.Error("expected a new game id after reset")
	}
	if types[len(types)-1] != "reset" {
		t.Errorf("expected reset event last, got %v", types)
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	configs, err := svc.ListConfigs(ctx)
	if err != nil || len(configs) != 1 {
		t.Fatalf("ListConfigs() = %d, %v", len(configs), err)
	}

	config, err := svc.LoadConfig(ctx, "test")
	if err != nil || config.Name != "test" {
		t.Fatalf("LoadConfig() = %v, %v", config, err)
	}

	if err := svc.SaveConfig(ctx, "copy", config); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	if err := svc.SaveConfig(ctx, "nil", nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestGameService_ConcurrentReadsDuringTurns(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t, []int{1, 2, 3})

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				info, err := svc.GetSession(ctx, id)
				if err != nil {
					t.Errorf("GetSession() error = %v", err)
					return
				}
				if _, err := json.Marshal(info); err != nil {
					t.Errorf("marshal session: %v", err)
					return
				}
				if _, err := svc.ListSessions(ctx); err != nil {
					t.Errorf("ListSessions() error = %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 30; i++ {
		result, err := svc.TakeTurn(ctx, id, nil)
		if errors.Is(err, engine.ErrGameOver) {
			break
		}
		if err != nil {
			t.Fatalf("TakeTurn() error = %v", err)
		}
		before := result.GameState.TurnCount
		if _, err := svc.TakeTurn(ctx, id, nil); err != nil && !errors.Is(err, engine.ErrGameOver) {
			t.Fatalf("TakeTurn() error = %v", err)
		}
		if result.GameState.TurnCount != before {
			t.Fatalf("returned state moved from turn %d to %d", before, result.GameState.TurnCount)
		}
	}
	close(done)
	wg.Wait()
}
