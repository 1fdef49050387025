package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wricardo/campus-monopoly/api"
	"github.com/wricardo/campus-monopoly/game/config"
	"github.com/wricardo/campus-monopoly/game/engine"
	"github.com/wricardo/campus-monopoly/game/service"
	"github.com/wricardo/campus-monopoly/game/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), configs)
	ts := httptest.NewServer(api.NewServer(svc, nil, nil))
	t.Cleanup(ts.Close)
	return ts
}

func newState(t *testing.T) *engine.GameState {
	t.Helper()
	game, err := engine.NewEngine(engine.DefaultGameConfig(), []engine.PlayerSpec{
		{Name: "Autoplayer", Token: "@", Controller: engine.ControllerHuman},
		{Name: "CPU", Token: "#", Controller: engine.ControllerCPU},
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return game.GetState()
}

func property(t *testing.T, state *engine.GameState, code string) *engine.Property {
	t.Helper()
	for _, p := range state.Properties {
		if p.Code == code {
			return p
		}
	}
	t.Fatalf("Property %s not in catalog", code)
	return nil
}

// giveGroup hands the North Campus set to player 0
func giveGroup(t *testing.T, state *engine.GameState) {
	t.Helper()
	for _, code := range []string{"C", "C2", "C3"} {
		property(t, state, code).Owner = 0
	}
	state.Players[0].Monopolies = map[string]bool{"North Campus": true}
}

func TestReserveStrategy_ShouldBuy(t *testing.T) {
	state := newState(t)
	s := ReserveStrategy{Reserve: 200}

	tests := []struct {
		cash     int
		expected bool
	}{
		{1500, true},
		{400, true},
		{399, false},
		{0, false},
	}
	for _, test := range tests {
		state.Players[0].Cash = test.cash
		if got := s.ShouldBuy(state, 0); got != test.expected {
			t.Errorf("ShouldBuy with $%d = %v, expected %v", test.cash, got, test.expected)
		}
	}
}

func TestReserveStrategy_ShouldPayBail(t *testing.T) {
	state := newState(t)
	config := engine.DefaultGameConfig()
	s := ReserveStrategy{Reserve: 100, PayBail: true}

	if s.ShouldPayBail(state, config, 0) {
		t.Error("Should not pay bail outside jail")
	}

	state.Players[0].InJail = true
	if !s.ShouldPayBail(state, config, 0) {
		t.Error("Expected bail to be paid with plenty of cash")
	}

	state.Players[0].Cash = 120
	if s.ShouldPayBail(state, config, 0) {
		t.Error("Bail would break the reserve")
	}

	state.Players[0].Cash = 1500
	s.PayBail = false
	if s.ShouldPayBail(state, config, 0) {
		t.Error("Bail disabled but still paid")
	}
}

func TestReserveStrategy_Improvements(t *testing.T) {
	config := engine.DefaultGameConfig()

	t.Run("no monopoly", func(t *testing.T) {
		state := newState(t)
		property(t, state, "C").Owner = 0
		s := ReserveStrategy{Build: true}
		if codes := s.Improvements(state, config, 0); len(codes) != 0 {
			t.Errorf("Expected no improvements without a monopoly, got %v", codes)
		}
	})

	t.Run("builds evenly within budget", func(t *testing.T) {
		state := newState(t)
		giveGroup(t, state)
		state.Players[0].Cash = 750
		s := ReserveStrategy{Reserve: 200, Build: true}

		codes := s.Improvements(state, config, 0)
		// $550 over the reserve buys five $100 houses
		if len(codes) != 5 {
			t.Fatalf("Expected 5 houses, got %v", codes)
		}
		counts := map[string]int{}
		for _, code := range codes {
			counts[code]++
		}
		for _, code := range []string{"C", "C2", "C3"} {
			if counts[code] < 1 || counts[code] > 2 {
				t.Errorf("Uneven building: %v", counts)
			}
		}
	})

	t.Run("skips mortgaged and finished properties", func(t *testing.T) {
		state := newState(t)
		giveGroup(t, state)
		property(t, state, "C").Mortgaged = true
		property(t, state, "C2").Level = engine.MaxImprovementLevel
		s := ReserveStrategy{Build: true}

		codes := s.Improvements(state, config, 0)
		for _, code := range codes {
			if code != "C3" {
				t.Fatalf("Expected only C3, got %v", codes)
			}
		}
		if len(codes) != engine.MaxImprovementLevel {
			t.Errorf("Expected C3 built to a hotel, got %v", codes)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		state := newState(t)
		giveGroup(t, state)
		if codes := (ReserveStrategy{}).Improvements(state, config, 0); codes != nil {
			t.Errorf("Expected nil with building disabled, got %v", codes)
		}
	})
}

func TestReserveStrategy_Unmortgages(t *testing.T) {
	state := newState(t)
	for _, code := range []string{"C", "C2"} {
		p := property(t, state, code)
		p.Owner = 0
		p.Mortgaged = true
	}
	// C pays off at $110, C2 at $137
	state.Players[0].Cash = 350
	s := ReserveStrategy{Reserve: 200, PayLoans: true}

	codes := s.Unmortgages(state, 0)
	if len(codes) != 1 || codes[0] != "C" {
		t.Errorf("Expected [C], got %v", codes)
	}

	state.Players[0].Cash = 500
	if codes := s.Unmortgages(state, 0); len(codes) != 2 {
		t.Errorf("Expected both paid off, got %v", codes)
	}
}

func TestClient_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := NewClient(ts.URL + "/")

	info, err := client.CreateSession(ctx, "", "Tester")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if client.SessionID() == "" || client.SessionID() != info.ID {
		t.Fatalf("Session ID not recorded: %q vs %q", client.SessionID(), info.ID)
	}
	if info.GameState.Players[0].Name != "Tester" || info.GameState.Players[1].Controller != engine.ControllerCPU {
		t.Errorf("Unexpected players: %+v", info.GameState.Players)
	}

	buy := false
	result, err := client.TakeTurn(ctx, &buy)
	if err != nil {
		t.Fatalf("TakeTurn failed: %v", err)
	}
	if result.Turn == nil || result.GameState.TurnCount != 1 {
		t.Errorf("Expected one turn played, got %+v", result.GameState)
	}
	if result.Turn.Action == engine.ActionPurchase {
		t.Error("Bought despite declining")
	}

	state, err := client.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state == nil || state.TurnCount != 0 {
		t.Errorf("Expected a fresh game after reset, got %+v", state)
	}

	report, err := client.Report(ctx)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report.Players) != 2 {
		t.Errorf("Expected 2 players in report, got %d", len(report.Players))
	}
}

func TestClient_Errors(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := NewClient(ts.URL)

	_, err := client.Resume(ctx, "no-such-session")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", apiErr.Status)
	}
	if !isRejected(err) {
		t.Error("A missing session should count as rejected")
	}

	if _, err := client.CreateSession(ctx, "", "Tester"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	_, err = client.Improve(ctx, 0, "C")
	if !errors.As(err, &apiErr) || apiErr.Status >= 500 {
		t.Errorf("Expected a client error improving an unowned property, got %v", err)
	}
	_, err = client.PayBail(ctx, 0)
	if !isRejected(err) {
		t.Errorf("Expected bail outside jail to be rejected, got %v", err)
	}
}

func TestIsRejected(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{&APIError{Status: 400}, true},
		{&APIError{Status: 409}, true},
		{&APIError{Status: 500}, false},
		{errors.New("connection refused"), false},
	}
	for _, test := range tests {
		if got := isRejected(test.err); got != test.expected {
			t.Errorf("isRejected(%v) = %v, expected %v", test.err, got, test.expected)
		}
	}
}

func TestOpenSession(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	t.Run("creates and remembers", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), ".session")
		client := NewClient(ts.URL)
		if err := openSession(ctx, client, logger, "", file, "", "Tester"); err != nil {
			t.Fatalf("openSession failed: %v", err)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("Session file not written: %v", err)
		}
		if string(data) != client.SessionID() {
			t.Errorf("Session file holds %q, expected %q", data, client.SessionID())
		}

		again := NewClient(ts.URL)
		if err := openSession(ctx, again, logger, "", file, "", "Tester"); err != nil {
			t.Fatalf("openSession failed: %v", err)
		}
		if again.SessionID() != client.SessionID() {
			t.Errorf("Expected to resume %s, got %s", client.SessionID(), again.SessionID())
		}
	})

	t.Run("replaces a stale session", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), ".session")
		if err := os.WriteFile(file, []byte("gone\n"), 0644); err != nil {
			t.Fatal(err)
		}
		client := NewClient(ts.URL)
		if err := openSession(ctx, client, logger, "", file, "", "Tester"); err != nil {
			t.Fatalf("openSession failed: %v", err)
		}
		if client.SessionID() == "gone" || client.SessionID() == "" {
			t.Errorf("Expected a new session, got %q", client.SessionID())
		}
	})

	t.Run("explicit session must exist", func(t *testing.T) {
		client := NewClient(ts.URL)
		if err := openSession(ctx, client, logger, "gone", "", "", "Tester"); err == nil {
			t.Error("Expected an error resuming an unknown session")
		}
	})
}

func TestPlay_FinishesGame(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := NewClient(ts.URL)
	if _, err := client.CreateSession(ctx, "", "Tester"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	p := &player{
		client:   client,
		logger:   zap.NewNop().Sugar(),
		strategy: ReserveStrategy{Reserve: 150, Build: true, PayBail: true, PayLoans: true},
	}
	report, err := p.play(ctx, 10*engine.DefaultTurnCap)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !report.GameOver {
		t.Errorf("Expected the game to finish, stopped at turn %d", report.TurnCount)
	}
	if report.Players[0].PropertiesBought == 0 && report.Players[1].PropertiesBought == 0 {
		t.Error("Expected someone to buy a property in a full game")
	}
}

func TestPlay_StopsAtMaxTurns(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := NewClient(ts.URL)
	if _, err := client.CreateSession(ctx, "", "Tester"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	p := &player{client: client, logger: zap.NewNop().Sugar()}
	report, err := p.play(ctx, 3)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if report.TurnCount != 3 {
		t.Errorf("Expected 3 turns, got %d", report.TurnCount)
	}
}

func TestApp_Run(t *testing.T) {
	ts := newTestServer(t)
	file := filepath.Join(t.TempDir(), ".session")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	args := []string{"autoplayer", "--url", ts.URL, "--session-file", file, "--name", "Bot", "--max-turns", "6", "--reset"}
	if err := app.Run(context.Background(), args); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{"Session: ", "After 6 turns", "Bot", "CPU"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrintReport(t *testing.T) {
	report := &engine.Report{
		TurnCount: 42,
		GameOver:  true,
		Winner:    1,
		Players: []engine.PlayerReport{
			{Name: "Bot", Cash: 0, NetWorth: 0, Bankrupt: true},
			{Name: "CPU", Cash: 1900, NetWorth: 2600, PropertyCount: 4},
		},
	}

	var out bytes.Buffer
	printReport(&out, "abc", report)
	output := out.String()
	for _, want := range []string{"Session: abc", "After 42 turns, game over", "Winner: CPU"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output:\n%s", want, output)
		}
	}

	report.Winner = engine.NoWinner
	out.Reset()
	printReport(&out, "abc", report)
	if !strings.Contains(out.String(), "No single winner") {
		t.Errorf("Expected a tie line, got:\n%s", out.String())
	}
}
