package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wricardo/campus-monopoly/game/config"
	"github.com/wricardo/campus-monopoly/game/engine"
	"github.com/wricardo/campus-monopoly/game/prompt"
	"github.com/wricardo/campus-monopoly/game/session"
	"go.uber.org/zap"
)

type playOptions struct {
	ConfigName string
	Name       string
	Seed       int64
	RecordPath string
}

type simulateOptions struct {
	ConfigName string
	Games      int
	Seed       int64
	JSON       bool
}

// resolveBoard returns the named configuration, or the configured default.
// Without a configs directory only the built-in board is available.
func resolveBoard(dir, name string) (*engine.GameConfig, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		if name != "" {
			return nil, err
		}
		return engine.DefaultGameConfig(), nil
	}
	if name == "" {
		return manager.GetDefault(), nil
	}
	return manager.LoadConfig(name)
}

// runPlay plays one human vs CPU game on in/out. The human may stop before
// any roll; the snapshot is written either way.
func runPlay(ctx context.Context, cfg AppConfig, logger *zap.SugaredLogger, in io.Reader, out io.Writer, opts playOptions) error {
	board, err := resolveBoard(cfg.ConfigsDir, opts.ConfigName)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "Player 1"
	}

	game, err := engine.NewEngine(board, []engine.PlayerSpec{
		{Name: name, Token: "@", Controller: engine.ControllerHuman},
		{Name: "CPU", Token: "#", Controller: engine.ControllerCPU},
	})
	if err != nil {
		return err
	}
	game.SetLogger(logger.Named("engine"))
	if opts.Seed != 0 {
		game.SetRandomSource(engine.NewRandomSource(opts.Seed))
	}

	reader := prompt.NewReader(in, out)
	if err := game.SetDecider(0, prompt.Decider{Reader: reader}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Welcome to %s, %s!\n", board.Name, name)
	if opts.RecordPath != "" {
		if rec, ok := session.LoadPlayerRecord(opts.RecordPath); ok {
			fmt.Fprintf(out, "Last game: %d turns played, %d properties bought, finished with $%d.\n",
				rec.TurnsPlayed, rec.PropertiesBought, rec.Cash)
		}
	}

	for !game.IsGameOver() {
		if err := ctx.Err(); err != nil {
			break
		}
		state := game.GetState()
		fmt.Fprintf(out, "\n%s\n", game.GetBoard().Render(game.Occupancy()))

		if state.ActivePlayer == 0 {
			player := game.ActivePlayer()
			fmt.Fprintf(out, "Turn %d/%d. You have $%d on tile %d.\n", state.TurnCount+1, state.TurnCap, player.Cash, player.Position)
			if player.InJail && reader.AskYesNo(fmt.Sprintf("Pay $%d bail?", board.BailAmount)) {
				if err := game.PayBail(0); err != nil {
					fmt.Fprintf(out, "Bail refused: %v\n", err)
				}
			}
			if !reader.AskYesNo("Roll the dice?") {
				fmt.Fprintln(out, "Game stopped.")
				break
			}
		}

		rec, err := game.TakeTurn()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, describeTurn(rec))
	}

	fmt.Fprintf(out, "\n%s", renderReport(game.Report()))

	filename, err := session.SaveSnapshot(cfg.SavesDir, game.Snapshot(), "")
	if err != nil {
		logger.Warnw("failed to save snapshot", "error", err)
	} else {
		fmt.Fprintf(out, "Game saved to %s\n", filename)
	}

	if opts.RecordPath != "" {
		rec, err := game.PlayerRecord(0)
		if err != nil {
			return err
		}
		if err := session.SavePlayerRecord(opts.RecordPath, rec); err != nil {
			return err
		}
	}
	return nil
}

func describeTurn(rec *engine.TurnRecord) string {
	if rec.Roll == 0 {
		return rec.Message
	}
	return fmt.Sprintf("%s rolled %d and moved %d→%d. %s (cash $%d)",
		rec.PlayerName, rec.Roll, rec.From, rec.To, rec.Message, rec.CashAfter)
}

func renderReport(report engine.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "After %d turns:\n", report.TurnCount)
	for _, p := range report.Players {
		fmt.Fprintf(&b, "  %s: cash $%d, net worth $%d, %d properties", p.Name, p.Cash, p.NetWorth, p.PropertyCount)
		if len(p.Monopolies) > 0 {
			fmt.Fprintf(&b, ", full groups %s", strings.Join(p.Monopolies, ", "))
		}
		b.WriteString("\n")
	}
	if report.GameOver {
		if report.Winner >= 0 && report.Winner < len(report.Players) {
			fmt.Fprintf(&b, "Winner: %s\n", report.Players[report.Winner].Name)
		} else {
			b.WriteString("No single winner\n")
		}
	}
	return b.String()
}

// SimulationSummary aggregates a batch of CPU vs CPU games
type SimulationSummary struct {
	Config       string         `json:"config"`
	Games        int            `json:"games"`
	Wins         map[string]int `json:"wins"`
	Ties         int            `json:"ties"`
	Reasons      map[string]int `json:"reasons"`
	AverageTurns float64        `json:"average_turns"`
	GroupWins    map[string]int `json:"group_wins"`
}

// simulate plays games CPU vs CPU. A non-zero seed makes the batch
// reproducible: game i uses seed+i.
func simulate(ctx context.Context, board *engine.GameConfig, logger *zap.SugaredLogger, games int, seed int64) (*SimulationSummary, error) {
	if games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", games)
	}
	summary := &SimulationSummary{
		Config:    board.Name,
		Wins:      make(map[string]int),
		Reasons:   make(map[string]int),
		GroupWins: make(map[string]int),
	}

	totalTurns := 0
	for i := 0; i < games; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		game, err := engine.NewEngine(board, []engine.PlayerSpec{
			{Name: "Player 1", Token: "@", Controller: engine.ControllerCPU},
			{Name: "Player 2", Token: "#", Controller: engine.ControllerCPU},
		})
		if err != nil {
			return nil, err
		}
		if seed != 0 {
			game.SetRandomSource(engine.NewRandomSource(seed + int64(i)))
		}
		for !game.IsGameOver() {
			if _, err := game.TakeTurn(); err != nil {
				return nil, err
			}
		}

		state := game.GetState()
		summary.Games++
		totalTurns += state.TurnCount
		summary.Reasons[state.GameOverReason]++
		if state.Winner < 0 {
			summary.Ties++
			continue
		}
		winner := state.Players[state.Winner]
		summary.Wins[winner.Name]++
		for group, full := range winner.Monopolies {
			if full {
				summary.GroupWins[group]++
			}
		}
		logger.Debugw("simulated game", "game", i, "winner", winner.Name, "turns", state.TurnCount, "reason", state.GameOverReason)
	}
	summary.AverageTurns = float64(totalTurns) / float64(summary.Games)
	return summary, nil
}

func runSimulate(ctx context.Context, cfg AppConfig, logger *zap.SugaredLogger, out io.Writer, opts simulateOptions) error {
	board, err := resolveBoard(cfg.ConfigsDir, opts.ConfigName)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	summary, err := simulate(ctx, board, logger, opts.Games, opts.Seed)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(out, "%d games on %s, average %.1f turns\n", summary.Games, summary.Config, summary.AverageTurns)
	for _, name := range sortedKeys(summary.Wins) {
		fmt.Fprintf(out, "  %s won %d (%.1f%%)\n", name, summary.Wins[name], percent(summary.Wins[name], summary.Games))
	}
	fmt.Fprintf(out, "  ties %d\n", summary.Ties)
	for _, reason := range sortedKeys(summary.Reasons) {
		fmt.Fprintf(out, "  ended by %s: %d\n", reason, summary.Reasons[reason])
	}
	if len(summary.GroupWins) > 0 {
		fmt.Fprintln(out, "Full groups held by winners:")
		for _, group := range sortedKeys(summary.GroupWins) {
			fmt.Fprintf(out, "  %s: %d\n", group, summary.GroupWins[group])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
