package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/campus-monopoly/game/engine"
	"github.com/wricardo/campus-monopoly/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d/%d | Config: %s\n\n", state.TurnCount, state.TurnCap, state.ConfigName)

	for i, p := range state.Players {
		marker := "  "
		if i == state.ActivePlayer && !state.GameOver {
			marker = "▶ "
		}
		fmt.Fprintf(&b, "%s[%d] %s (%s, %s) cash $%d at tile %d", marker, i, p.Name, p.Token, p.Controller, p.Cash, p.Position)
		if p.InJail {
			fmt.Fprintf(&b, " [jail, %d turns]", p.JailTurns)
		}
		if p.Bankrupt {
			b.WriteString(" [BANKRUPT]")
		}
		b.WriteString("\n")
		if holdings := formatHoldings(state, i); holdings != "" {
			fmt.Fprintf(&b, "     owns: %s\n", holdings)
		}
		if len(p.Monopolies) > 0 {
			groups := make([]string, 0, len(p.Monopolies))
			for g := range p.Monopolies {
				groups = append(groups, g)
			}
			sort.Strings(groups)
			fmt.Fprintf(&b, "     full groups: %s\n", strings.Join(groups, ", "))
		}
	}

	if n := len(state.TurnHistory); n > 0 {
		fmt.Fprintf(&b, "\nLast turn: %s\n", formatTurnLine(state.TurnHistory[n-1]))
	}

	if state.GameOver {
		b.WriteString("\nGAME OVER")
		if state.GameOverReason != "" {
			fmt.Fprintf(&b, " (%s)", state.GameOverReason)
		}
		if state.Winner >= 0 && state.Winner < len(state.Players) {
			fmt.Fprintf(&b, ": %s wins", state.Players[state.Winner].Name)
		} else {
			b.WriteString(": no single winner")
		}
		b.WriteString("\n")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatHoldings(state *engine.GameState, playerIdx int) string {
	var parts []string
	for _, prop := range state.Properties {
		if prop.Owner != playerIdx {
			continue
		}
		s := prop.Code
		switch {
		case prop.Mortgaged:
			s += "(m)"
		case prop.Level == engine.MaxImprovementLevel:
			s += "(hotel)"
		case prop.Level > 0:
			s += fmt.Sprintf("(%dh)", prop.Level)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func formatTurnLine(t engine.TurnRecord) string {
	if t.Roll == 0 {
		return fmt.Sprintf("#%d %s: %s", t.Turn, t.PlayerName, t.Message)
	}
	line := fmt.Sprintf("#%d %s rolled %d, %d→%d (%s) %s", t.Turn, t.PlayerName, t.Roll, t.From, t.To, t.Symbol, t.Action)
	if t.Amount > 0 {
		line += fmt.Sprintf(" $%d", t.Amount)
	}
	return fmt.Sprintf("%s, cash $%d", line, t.CashAfter)
}

func formatTurnResult(result *service.TurnResult) string {
	var b strings.Builder
	if result.Turn != nil {
		b.WriteString(formatTurnLine(*result.Turn))
		b.WriteString("\n")
		if a := result.Turn.Advice; a != nil {
			fmt.Fprintf(&b, "Advice was %s (%d%% confidence): %s\n", a.Decision, a.Confidence, a.Reason)
		}
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatAutoPlayResult(sessionID string, result *service.AutoPlayResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: played %d of %d requested turns", sessionID, result.TurnsPlayed, result.TurnsRequested)
	if result.Truncated {
		fmt.Fprintf(&b, " (capped at %d per call)", result.Limit)
	}
	b.WriteString("\n\n")

	for _, t := range result.Turns {
		b.WriteString(formatTurnLine(t))
		b.WriteString("\n")
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", result.Message)
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBoard(board *service.BoardView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board %s (%d tiles)\n\n%s\n", board.ConfigName, board.Size, board.Rendered)
	if len(board.Groups) > 0 {
		b.WriteString("\nGroups:\n")
		for _, g := range board.Groups {
			fmt.Fprintf(&b, "  %s (%s): %s, rent $%d, house $%d\n", g.Name, g.Color, strings.Join(g.Members, " "), g.BaseRent, g.HouseCost)
		}
	}
	return b.String()
}

func formatAdvice(advice *service.AdviceResult) string {
	a := advice.Advice
	name := ""
	cost := 0
	if advice.Property != nil {
		name = advice.Property.Name
		cost = advice.Property.Cost
	}
	return fmt.Sprintf("%s buying %s for $%d: %s (confidence %d%%, risk %d)\n%s\nCash after purchase: $%d, reserve for %s game: $%d",
		advice.Player, name, cost, strings.ToUpper(a.Decision), a.Confidence, a.RiskScore,
		a.Reason, a.RemainingCash, a.Stage, a.Reserve)
}

func formatPropertyAction(result *service.PropertyActionResult) string {
	var b strings.Builder
	b.WriteString(result.Message)
	if p := result.Player; p != nil {
		fmt.Fprintf(&b, "\n%s now has $%d", p.Name, p.Cash)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d) - Total turns: %d\n\n", history.Page, history.TotalPages, history.TotalTurns)
	for _, t := range history.Turns {
		b.WriteString(formatTurnLine(t))
		b.WriteString("\n")
	}
	if history.HasNext {
		b.WriteString("\n(more on the next page)")
	}
	return b.String()
}

func formatReport(report *engine.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report after %d turns\n\n", report.TurnCount)

	b.WriteString("Standings:\n")
	for i, p := range report.Players {
		fmt.Fprintf(&b, "  [%d] %s: cash $%d, net worth $%d, %d properties", i, p.Name, p.Cash, p.NetWorth, p.PropertyCount)
		if len(p.Monopolies) > 0 {
			fmt.Fprintf(&b, ", full groups: %s", strings.Join(p.Monopolies, ", "))
		}
		if p.Bankrupt {
			b.WriteString(" [BANKRUPT]")
		}
		b.WriteString("\n")
	}

	if len(report.Properties) > 0 {
		b.WriteString("\nProperties:\n")
		for _, p := range report.Properties {
			owner := fmt.Sprint(p.Owner)
			if p.Owner >= 0 && p.Owner < len(report.Players) {
				owner = report.Players[p.Owner].Name
			}
			fmt.Fprintf(&b, "  %-3s %-28s %-10s value $%-5d rent $%-5d ROI %.0f%%\n",
				p.Code, p.Name, owner, p.CurrentValue, p.TotalRentCollected, p.ROI*100)
		}
	}

	if report.GameOver {
		if report.Winner >= 0 && report.Winner < len(report.Players) {
			fmt.Fprintf(&b, "\nWinner: %s\n", report.Players[report.Winner].Name)
		} else {
			b.WriteString("\nNo single winner\n")
		}
	}
	return b.String()
}
