// Command analyze prints per-group economics for the board configurations
// in the project's configs directory: the cost of a full set, rent at each
// stage, how many landings repay the set, and the rent each group actually
// returned over a batch of seeded CPU vs CPU games.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wricardo/campus-monopoly/game/engine"
)

const simulatedGames = 50

// GroupStats is the analysis of one property group
type GroupStats struct {
	Name         string
	Color        string
	Members      int
	SetCost      int
	BaseRent     int
	MonopolyRent int
	HotelRent    int
	HouseCost    int

	// Landings needed to repay the set at monopoly rent, and with a hotel
	// on every member (house costs included)
	PaybackMonopoly float64
	PaybackHotel    float64

	// Observed over the simulated games
	Landings      int
	RentCollected int
	Invested      int
}

// ROI is observed rent over money spent buying the group's members
func (g GroupStats) ROI() float64 {
	if g.Invested == 0 {
		return 0
	}
	return float64(g.RentCollected) / float64(g.Invested)
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No configurations found in %s\n", dir)
		os.Exit(1)
	}

	for _, configFile := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(configFile))
		analyzeConfig(os.Stdout, configFile)
	}
}

func analyzeConfig(w io.Writer, path string) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading config: %v\n", err)
		return
	}

	board, err := engine.NewBoard(config)
	if err != nil {
		fmt.Fprintf(w, "Error building board: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Name: %s\n", config.Name)
	fmt.Fprintf(w, "Board: %d tiles, starting cash $%d, turn cap %d\n", board.Size(), config.StartingCash, config.TurnCap)

	stats := groupStats(config, board)
	if err := simulateGroups(config, stats, simulatedGames, 1); err != nil {
		fmt.Fprintf(w, "Error simulating games: %v\n", err)
		return
	}

	fmt.Fprintf(w, "\n%-16s %6s %5s %5s %6s %8s %8s %9s %6s\n",
		"Group", "Set $", "Rent", "Full", "Hotel", "Payback", "Pay(H)", "Landings", "ROI")
	for _, g := range stats {
		fmt.Fprintf(w, "%-16s %6d %5d %5d %6d %8.1f %8.1f %9d %5.0f%%\n",
			g.Name, g.SetCost, g.BaseRent, g.MonopolyRent, g.HotelRent,
			g.PaybackMonopoly, g.PaybackHotel, g.Landings, g.ROI()*100)
	}

	if g, ok := affordability(config, stats); !ok {
		fmt.Fprintf(w, "⚠️  WARNING: the %s set ($%d) costs more than the starting cash\n", g.Name, g.SetCost)
	} else {
		fmt.Fprintf(w, "✅ Every group can be bought with the starting cash\n")
	}
}

// groupStats computes the static economics of each group
func groupStats(config *engine.GameConfig, board *engine.Board) []GroupStats {
	catalog := engine.BuildCatalog(config, board)
	stats := make([]GroupStats, 0, len(board.Groups()))
	for _, group := range board.Groups() {
		g := GroupStats{
			Name:         group.Name,
			Color:        group.Color,
			Members:      len(group.Members),
			BaseRent:     group.BaseRent,
			MonopolyRent: group.BaseRent * 2,
			HotelRent:    group.RentAtLevel(engine.HotelLevel),
			HouseCost:    group.HouseCost,
		}
		for _, p := range catalog {
			if p.Group == group.Name {
				g.SetCost += p.Cost
			}
		}
		g.PaybackMonopoly = payback(g.SetCost, g.MonopolyRent)
		g.PaybackHotel = payback(g.SetCost+g.Members*engine.HotelLevel*g.HouseCost, g.HotelRent)
		stats = append(stats, g)
	}
	return stats
}

func payback(cost, rent int) float64 {
	if rent <= 0 {
		return 0
	}
	return float64(cost) / float64(rent)
}

// simulateGroups plays seeded CPU games and adds each group's observed
// landings, rent and purchase spend to stats
func simulateGroups(config *engine.GameConfig, stats []GroupStats, games int, seed int64) error {
	index := make(map[string]*GroupStats, len(stats))
	for i := range stats {
		index[stats[i].Name] = &stats[i]
	}

	for i := 0; i < games; i++ {
		game, err := engine.NewEngine(config, []engine.PlayerSpec{
			{Name: "Player 1", Token: "@", Controller: engine.ControllerCPU},
			{Name: "Player 2", Token: "#", Controller: engine.ControllerCPU},
		})
		if err != nil {
			return err
		}
		game.SetRandomSource(engine.NewRandomSource(seed + int64(i)))
		for !game.IsGameOver() {
			if _, err := game.TakeTurn(); err != nil {
				return err
			}
		}

		for _, p := range game.GetState().Properties {
			g, ok := index[p.Group]
			if !ok {
				continue
			}
			g.Landings += len(p.RentHistory)
			g.RentCollected += p.TotalRentCollected()
			for _, purchase := range p.PurchaseHistory {
				g.Invested += purchase.Price
			}
		}
	}
	return nil
}

// affordability returns the first group whose full set costs more than the
// starting cash
func affordability(config *engine.GameConfig, stats []GroupStats) (GroupStats, bool) {
	for _, g := range stats {
		if g.SetCost > config.StartingCash {
			return g, false
		}
	}
	return GroupStats{}, true
}
