package main

import (
	"sort"

	"github.com/wricardo/campus-monopoly/game/engine"
)

// ReserveStrategy buys while the player keeps a cash cushion and builds on
// full groups with whatever is left over. Houses go on the least developed
// property of a group first.
type ReserveStrategy struct {
	Reserve  int
	Build    bool
	PayBail  bool
	PayLoans bool
}

// ShouldBuy decides before the roll, so it cannot see the price. The player
// buys while the cash above the reserve covers the cheapest unowned property.
func (s ReserveStrategy) ShouldBuy(state *engine.GameState, player int) bool {
	return state.Players[player].Cash-s.Reserve >= cheapestPrice(state)
}

// ShouldPayBail reports whether to leave jail early
func (s ReserveStrategy) ShouldPayBail(state *engine.GameState, config *engine.GameConfig, player int) bool {
	p := state.Players[player]
	return s.PayBail && p.InJail && p.Cash-config.BailAmount >= s.Reserve
}

// Unmortgages lists mortgaged properties to pay off, cheapest first
func (s ReserveStrategy) Unmortgages(state *engine.GameState, player int) []string {
	if !s.PayLoans {
		return nil
	}
	var props []*engine.Property
	for _, p := range state.Properties {
		if p.Owner == player && p.Mortgaged {
			props = append(props, p)
		}
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Cost < props[j].Cost })

	cash := state.Players[player].Cash - s.Reserve
	var codes []string
	for _, p := range props {
		payoff := engine.UnmortgageCost(p)
		if payoff > cash {
			break
		}
		cash -= payoff
		codes = append(codes, p.Code)
	}
	return codes
}

// Improvements lists properties to build on, one house per entry, within
// the cash above the reserve
func (s ReserveStrategy) Improvements(state *engine.GameState, config *engine.GameConfig, player int) []string {
	if !s.Build {
		return nil
	}
	p := state.Players[player]
	houseCost := make(map[string]int, len(config.Groups))
	for _, g := range config.Groups {
		cost := g.HouseCost
		if cost == 0 {
			cost = engine.DefaultHouseCost
		}
		houseCost[g.Name] = cost
	}

	levels := make(map[string]int)
	var candidates []*engine.Property
	for _, prop := range state.Properties {
		if prop.Owner != player || prop.Mortgaged || !p.Monopolies[prop.Group] {
			continue
		}
		levels[prop.Code] = prop.Level
		candidates = append(candidates, prop)
	}

	cash := p.Cash - s.Reserve
	var codes []string
	for {
		var next *engine.Property
		for _, prop := range candidates {
			level := levels[prop.Code]
			if level >= engine.MaxImprovementLevel || houseCost[prop.Group] > cash {
				continue
			}
			if next == nil || level < levels[next.Code] || (level == levels[next.Code] && houseCost[prop.Group] < houseCost[next.Group]) {
				next = prop
			}
		}
		if next == nil {
			return codes
		}
		cash -= houseCost[next.Group]
		levels[next.Code]++
		codes = append(codes, next.Code)
	}
}

func cheapestPrice(state *engine.GameState) int {
	cheapest := -1
	for _, p := range state.Properties {
		if !p.Purchasable() || p.IsOwned() {
			continue
		}
		if cheapest < 0 || p.Cost < cheapest {
			cheapest = p.Cost
		}
	}
	if cheapest < 0 {
		return 0
	}
	return cheapest
}
