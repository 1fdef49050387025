package engine

import (
	"sort"
	"time"
)

// Snapshot is the plain serializable export of a game
type Snapshot struct {
	GameID     string           `json:"game_id"`
	ConfigName string           `json:"config_name"`
	SavedAt    time.Time        `json:"saved_at"`
	TurnCount  int              `json:"turn_count"`
	Players    []SnapshotPlayer `json:"players"`
}

// SnapshotPlayer is one player's cash and holdings
type SnapshotPlayer struct {
	Name       string             `json:"name"`
	Cash       int                `json:"cash"`
	Properties []SnapshotProperty `json:"properties"`
}

// SnapshotProperty is a held property as exported
type SnapshotProperty struct {
	Code               string `json:"code"`
	Name               string `json:"name"`
	Position           int    `json:"position"`
	Group              string `json:"group"`
	Cost               int    `json:"cost"`
	Rent               int    `json:"rent"`
	Owner              string `json:"owner"`
	Mortgaged          bool   `json:"mortgaged"`
	Houses             int    `json:"houses"`
	Hotels             int    `json:"hotels"`
	CurrentValue       int    `json:"current_value"`
	TotalRentCollected int    `json:"total_rent_collected"`
}

// PlayerRecord is the standalone save format for a single player
type PlayerRecord struct {
	Name             string             `json:"name"`
	Token            string             `json:"token"`
	Cash             int                `json:"cash"`
	Position         int                `json:"position"`
	InJail           bool               `json:"in_jail"`
	JailTurns        int                `json:"jail_turns"`
	Bankrupt         bool               `json:"bankrupt"`
	Monopolies       []string           `json:"monopolies"`
	Properties       []SnapshotProperty `json:"properties"`
	TurnsPlayed      int                `json:"turns_played"`
	TotalMoves       int                `json:"total_moves"`
	PropertiesBought int                `json:"properties_bought"`
	Timestamp        time.Time          `json:"timestamp"`
}

// Snapshot exports the current game
func (e *GameEngine) Snapshot() Snapshot {
	snap := Snapshot{
		GameID:     e.state.GameID,
		ConfigName: e.state.ConfigName,
		SavedAt:    e.now().UTC(),
		TurnCount:  e.state.TurnCount,
		Players:    make([]SnapshotPlayer, len(e.state.Players)),
	}
	for i, p := range e.state.Players {
		snap.Players[i] = SnapshotPlayer{
			Name:       p.Name,
			Cash:       p.Cash,
			Properties: e.holdings(p),
		}
	}
	return snap
}

// PlayerRecord exports a single player
func (e *GameEngine) PlayerRecord(playerIdx int) (PlayerRecord, error) {
	p, err := e.ledger.player(playerIdx)
	if err != nil {
		return PlayerRecord{}, err
	}
	monopolies := make([]string, 0, len(p.Monopolies))
	for g, ok := range p.Monopolies {
		if ok {
			monopolies = append(monopolies, g)
		}
	}
	sort.Strings(monopolies)

	return PlayerRecord{
		Name:             p.Name,
		Token:            p.Token,
		Cash:             p.Cash,
		Position:         p.Position,
		InJail:           p.InJail,
		JailTurns:        p.JailTurns,
		Bankrupt:         p.Bankrupt,
		Monopolies:       monopolies,
		Properties:       e.holdings(p),
		TurnsPlayed:      p.TurnsPlayed,
		TotalMoves:       p.TotalMoves,
		PropertiesBought: p.PropertiesBought,
		Timestamp:        e.now().UTC(),
	}, nil
}

func (e *GameEngine) holdings(p *Player) []SnapshotProperty {
	out := make([]SnapshotProperty, 0, len(p.Properties))
	for _, code := range p.Properties {
		prop, err := e.ledger.Property(code)
		if err != nil {
			continue
		}
		owner := ""
		if prop.IsOwned() && prop.Owner < len(e.state.Players) {
			owner = e.state.Players[prop.Owner].Name
		}
		out = append(out, SnapshotProperty{
			Code:               prop.Code,
			Name:               prop.Name,
			Position:           prop.Position,
			Group:              prop.Group,
			Cost:               prop.Cost,
			Rent:               prop.BaseRent,
			Owner:              owner,
			Mortgaged:          prop.Mortgaged,
			Houses:             prop.Houses(),
			Hotels:             prop.Hotels(),
			CurrentValue:       CurrentValue(prop, e.board.Group(prop.Group)),
			TotalRentCollected: prop.TotalRentCollected(),
		})
	}
	return out
}

// Report summarizes standings and property returns
type Report struct {
	GameID     string           `json:"game_id"`
	TurnCount  int              `json:"turn_count"`
	GameOver   bool             `json:"game_over"`
	Winner     int              `json:"winner"`
	Players    []PlayerReport   `json:"players"`
	Properties []PropertyReport `json:"properties"`
}

// PlayerReport is one player's standing
type PlayerReport struct {
	Name             string   `json:"name"`
	Cash             int      `json:"cash"`
	NetWorth         int      `json:"net_worth"`
	PropertyCount    int      `json:"property_count"`
	Monopolies       []string `json:"monopolies"`
	Bankrupt         bool     `json:"bankrupt"`
	TurnsPlayed      int      `json:"turns_played"`
	TotalMoves       int      `json:"total_moves"`
	PropertiesBought int      `json:"properties_bought"`
}

// PropertyReport is the return on one owned property
type PropertyReport struct {
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Owner              int     `json:"owner"`
	Level              int     `json:"level"`
	CurrentValue       int     `json:"current_value"`
	TotalRentCollected int     `json:"total_rent_collected"`
	ROI                float64 `json:"roi"`
}

// Report builds standings for every player and every owned property
func (e *GameEngine) Report() Report {
	r := Report{
		GameID:    e.state.GameID,
		TurnCount: e.state.TurnCount,
		GameOver:  e.state.GameOver,
		Winner:    e.state.Winner,
	}
	for i, p := range e.state.Players {
		rec, _ := e.PlayerRecord(i)
		r.Players = append(r.Players, PlayerReport{
			Name:             p.Name,
			Cash:             p.Cash,
			NetWorth:         e.ledger.NetWorth(i),
			PropertyCount:    len(p.Properties),
			Monopolies:       rec.Monopolies,
			Bankrupt:         p.Bankrupt,
			TurnsPlayed:      p.TurnsPlayed,
			TotalMoves:       p.TotalMoves,
			PropertiesBought: p.PropertiesBought,
		})
	}
	for _, prop := range e.state.Properties {
		if !prop.IsOwned() {
			continue
		}
		r.Properties = append(r.Properties, PropertyReport{
			Code:               prop.Code,
			Name:               prop.Name,
			Owner:              prop.Owner,
			Level:              prop.Level,
			CurrentValue:       CurrentValue(prop, e.board.Group(prop.Group)),
			TotalRentCollected: prop.TotalRentCollected(),
			ROI:                prop.ROI(),
		})
	}
	return r
}
