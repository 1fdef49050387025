// Command autoplayer drives seat 0 of a game session over the REST API with
// a cash reserve strategy, letting the server's CPU play seat 1. It is a
// smoke test for a running server as much as an opponent.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/campus-monopoly/game/engine"
)

const (
	sessionFile = ".session"
	seat        = 0
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "autoplayer: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplayer",
		Usage: "Play a campus monopoly session through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "board configuration name"},
			&cli.StringFlag{Name: "name", Value: "Autoplayer", Usage: "player name for seat 0"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: sessionFile, Usage: "file remembering the last session ID"},
			&cli.BoolFlag{Name: "reset", Usage: "restart the game before playing"},
			&cli.IntFlag{Name: "reserve", Value: 200, Usage: "cash kept back from purchases and building"},
			&cli.BoolFlag{Name: "no-build", Usage: "never build houses"},
			&cli.IntFlag{Name: "max-turns", Value: 1000, Usage: "stop after this many turns"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every turn"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := newLogger(cmd.Bool("verbose"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			client := NewClient(cmd.String("url"))
			if err := openSession(ctx, client, logger, cmd.String("continue"), cmd.String("session-file"), cmd.String("config"), cmd.String("name")); err != nil {
				return err
			}
			if cmd.Bool("reset") {
				if _, err := client.Reset(ctx); err != nil {
					return err
				}
				logger.Infow("Game reset", "session", client.SessionID())
			}

			p := &player{
				client: client,
				logger: logger,
				strategy: ReserveStrategy{
					Reserve:  cmd.Int("reserve"),
					Build:    !cmd.Bool("no-build"),
					PayBail:  true,
					PayLoans: true,
				},
			}
			report, err := p.play(ctx, cmd.Int("max-turns"))
			if err != nil {
				return err
			}
			printReport(cmd.Root().Writer, client.SessionID(), report)
			return nil
		},
	}
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// openSession resumes the requested or remembered session, falling back to
// a new one when the server no longer has it
func openSession(ctx context.Context, client *Client, logger *zap.SugaredLogger, explicit, file, configName, name string) error {
	id := explicit
	if id == "" && file != "" {
		if data, err := os.ReadFile(file); err == nil {
			id = strings.TrimSpace(string(data))
		}
	}

	if id != "" {
		info, err := client.Resume(ctx, id)
		if err == nil {
			logger.Infow("Resuming session", "session", id, "config", info.ConfigName, "turn", info.GameState.TurnCount)
			return nil
		}
		var apiErr *APIError
		if explicit != "" || !errors.As(err, &apiErr) {
			return err
		}
		logger.Warnw("Saved session is gone, creating a new one", "session", id, "error", err)
	}

	info, err := client.CreateSession(ctx, configName, name)
	if err != nil {
		return err
	}
	logger.Infow("Session created", "session", info.ID, "config", info.ConfigName)
	if file != "" {
		if err := os.WriteFile(file, []byte(info.ID), 0644); err != nil {
			logger.Warnw("Failed to save session ID", "file", file, "error", err)
		}
	}
	return nil
}

type player struct {
	client   *Client
	strategy ReserveStrategy
	logger   *zap.SugaredLogger
}

// play takes turns until the game ends or maxTurns have been played, then
// returns the session report
func (p *player) play(ctx context.Context, maxTurns int) (*engine.Report, error) {
	info, err := p.client.Resume(ctx, p.client.SessionID())
	if err != nil {
		return nil, err
	}
	state, config := info.GameState, info.GameConfig

	for turns := 0; !state.GameOver && turns < maxTurns; turns++ {
		var buy *bool
		if state.ActivePlayer == seat {
			state, err = p.manage(ctx, state, config)
			if err != nil {
				return nil, err
			}
			decision := p.strategy.ShouldBuy(state, seat)
			buy = &decision
		}

		result, err := p.client.TakeTurn(ctx, buy)
		if err != nil {
			return nil, err
		}
		state = result.GameState
		p.logger.Debugw("Turn", "turn", result.Turn.Turn, "player", result.Turn.Player, "message", result.Message)
	}

	if state.GameOver {
		p.logger.Infow("Game over", "reason", state.GameOverReason, "winner", state.Winner, "turns", state.TurnCount)
	} else {
		p.logger.Infow("Turn limit reached", "turns", state.TurnCount)
	}
	return p.client.Report(ctx)
}

// manage spends money between turns: bail, mortgage payoffs, then houses.
// Rejected actions are logged and skipped.
func (p *player) manage(ctx context.Context, state *engine.GameState, config *engine.GameConfig) (*engine.GameState, error) {
	if p.strategy.ShouldPayBail(state, config, seat) {
		next, err := p.client.PayBail(ctx, seat)
		if err != nil {
			if !isRejected(err) {
				return nil, err
			}
			p.logger.Debugw("Bail refused", "error", err)
		} else {
			state = next
		}
	}

	for _, code := range p.strategy.Unmortgages(state, seat) {
		result, err := p.client.Unmortgage(ctx, seat, code)
		if err != nil {
			if !isRejected(err) {
				return nil, err
			}
			p.logger.Debugw("Unmortgage refused", "property", code, "error", err)
			continue
		}
		state = result.GameState
	}

	for _, code := range p.strategy.Improvements(state, config, seat) {
		result, err := p.client.Improve(ctx, seat, code)
		if err != nil {
			if !isRejected(err) {
				return nil, err
			}
			p.logger.Debugw("Improvement refused", "property", code, "error", err)
			continue
		}
		state = result.GameState
		p.logger.Debugw("Improved", "property", code, "level", result.Property.Level)
	}
	return state, nil
}

// isRejected reports whether the server refused an action on game grounds
// rather than failing
func isRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status < 500
}

func printReport(w io.Writer, sessionID string, report *engine.Report) {
	fmt.Fprintf(w, "Session: %s\n", sessionID)
	fmt.Fprintf(w, "After %d turns", report.TurnCount)
	if report.GameOver {
		fmt.Fprint(w, ", game over")
	}
	fmt.Fprintln(w)
	for _, pr := range report.Players {
		fmt.Fprintf(w, "  %-12s cash $%-6d net worth $%-6d properties %d\n", pr.Name, pr.Cash, pr.NetWorth, pr.PropertyCount)
	}
	if report.Winner != engine.NoWinner && report.Winner < len(report.Players) {
		fmt.Fprintf(w, "Winner: %s\n", report.Players[report.Winner].Name)
	} else if report.GameOver {
		fmt.Fprintln(w, "No single winner")
	}
}
