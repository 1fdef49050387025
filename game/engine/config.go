package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GameConfig represents the game configuration from JSON. A config is
// treated as read-only once an engine has been built from it.
type GameConfig struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	StartingCash   int             `json:"starting_cash"`
	PassStartBonus int             `json:"pass_start_bonus"`
	TollMultiplier int             `json:"toll_multiplier"`
	TurnCap        int             `json:"turn_cap"`
	JailArrest     bool            `json:"jail_arrest"`
	JailTurns      int             `json:"jail_turns"`
	BailAmount     int             `json:"bail_amount"`
	Layout         []string        `json:"layout"`
	Groups         []GroupConfig   `json:"groups"`
	Specials       []SpecialConfig `json:"specials"`
	Events         EventDeck       `json:"events"`
	Messages       struct {
		Welcome    string `json:"welcome"`
		PassStart  string `json:"pass_start"`
		Purchased  string `json:"purchased"`
		Declined   string `json:"declined"`
		RentPaid   string `json:"rent_paid"`
		Bankrupt   string `json:"bankrupt"`
		Toll       string `json:"toll"`
		Visiting   string `json:"visiting"`
		Arrested   string `json:"arrested"`
		GameOver   string `json:"game_over"`
		TurnCapHit string `json:"turn_cap_hit"`
	} `json:"messages"`
}

// GroupConfig declares a property group and its members
type GroupConfig struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Color      string         `json:"color"`
	BaseCost   int            `json:"base_cost"`
	BaseRent   int            `json:"base_rent"`
	HouseRents []int          `json:"house_rents"`
	HouseCost  int            `json:"house_cost"`
	FullSet    int            `json:"full_set_size"`
	Members    []MemberConfig `json:"members"`
}

// MemberConfig declares one property. Nil fields are derived.
type MemberConfig struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Position *int   `json:"position,omitempty"`
	Cost     *int   `json:"cost,omitempty"`
	BaseRent *int   `json:"base_rent,omitempty"`
}

// SpecialConfig declares a non-purchasable tile
type SpecialConfig struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Kind     TileKind `json:"kind"`
	Position int      `json:"position"`
	Action   string   `json:"action,omitempty"`
}

// EventDeck holds the narrative outcomes drawn on event tiles
type EventDeck struct {
	Good []string `json:"good"`
	Bad  []string `json:"bad"`
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.StartingCash <= 0 {
		return fmt.Errorf("config validation: starting_cash must be positive, got %d", config.StartingCash)
	}
	if config.PassStartBonus < 0 {
		return fmt.Errorf("config validation: pass_start_bonus cannot be negative, got %d", config.PassStartBonus)
	}
	if config.TurnCap < 1 || config.TurnCap > MaxTurnCap {
		return fmt.Errorf("config validation: turn_cap must be between 1 and %d, got %d", MaxTurnCap, config.TurnCap)
	}
	if config.JailArrest {
		if config.JailTurns < 1 {
			return fmt.Errorf("config validation: jail_turns must be positive when jail_arrest is enabled")
		}
		if config.BailAmount < 0 {
			return fmt.Errorf("config validation: bail_amount cannot be negative")
		}
	}

	symbols, err := perimeterSymbols(config.Layout)
	if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	known := make(map[string]TileKind)
	if len(config.Groups) == 0 {
		return fmt.Errorf("config validation: at least one property group is required")
	}
	groupNames := make(map[string]bool)
	for i, g := range config.Groups {
		if g.Name == "" {
			return fmt.Errorf("config validation: group %d has no name", i+1)
		}
		if groupNames[g.Name] {
			return fmt.Errorf("config validation: duplicate group name '%s'", g.Name)
		}
		groupNames[g.Name] = true
		if len(g.Members) == 0 {
			return fmt.Errorf("config validation: group '%s' has no members", g.Name)
		}
		if g.FullSet != len(g.Members) {
			return fmt.Errorf("config validation: group '%s' full_set_size %d does not match %d members",
				g.Name, g.FullSet, len(g.Members))
		}
		if g.BaseRent < 0 || g.BaseCost < 0 || g.HouseCost < 0 {
			return fmt.Errorf("config validation: group '%s' has negative cost or rent", g.Name)
		}
		if len(g.HouseRents) > MaxImprovementLevel {
			return fmt.Errorf("config validation: group '%s' house_rents has %d levels, max is %d",
				g.Name, len(g.HouseRents), MaxImprovementLevel)
		}
		prev := g.BaseRent
		for level, rent := range g.HouseRents {
			if rent < prev {
				return fmt.Errorf("config validation: group '%s' rent at level %d (%d) is below level %d (%d)",
					g.Name, level+1, rent, level, prev)
			}
			prev = rent
		}
		for _, m := range g.Members {
			if m.Code == "" {
				return fmt.Errorf("config validation: group '%s' has a member without a code", g.Name)
			}
			if _, dup := known[m.Code]; dup {
				return fmt.Errorf("config validation: duplicate code '%s'", m.Code)
			}
			if m.Cost != nil && *m.Cost < 0 {
				return fmt.Errorf("config validation: member '%s' has negative cost", m.Code)
			}
			known[m.Code] = TileProperty
		}
	}

	hasToll := false
	for _, s := range config.Specials {
		switch s.Kind {
		case TileStart, TileEvent, TileJail, TileToll, TileParking, TileBlank:
		default:
			return fmt.Errorf("config validation: special '%s' has invalid kind '%s'", s.Code, s.Kind)
		}
		if s.Code == "" {
			return fmt.Errorf("config validation: special tile without a code")
		}
		if _, dup := known[s.Code]; dup {
			return fmt.Errorf("config validation: duplicate code '%s'", s.Code)
		}
		if s.Position < 0 || s.Position >= len(symbols) {
			return fmt.Errorf("config validation: special '%s' position %d is off the board", s.Code, s.Position)
		}
		known[s.Code] = s.Kind
		if s.Kind == TileToll {
			hasToll = true
		}
	}

	for pos, sym := range symbols {
		if sym == "." {
			continue
		}
		if _, ok := known[sym]; !ok {
			return fmt.Errorf("config validation: unknown symbol '%s' at board position %d", sym, pos)
		}
	}

	if hasToll && config.TollMultiplier <= 0 {
		return fmt.Errorf("config validation: toll_multiplier must be positive when a toll tile exists")
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.PassStart != "" && !strings.Contains(config.Messages.PassStart, "%d") {
		return fmt.Errorf("config validation: messages.pass_start must contain %%d for the bonus")
	}

	good, bad := len(config.Events.Good), len(config.Events.Bad)
	if (good == 0) != (bad == 0) {
		return fmt.Errorf("config validation: events need both good and bad outcomes or neither")
	}

	return nil
}

// perimeterSymbols walks an NxN layout: bottom row right to left, left
// column upward, top row left to right, right column downward. Rows are
// whitespace separated symbols; inner rows carry only the two edge symbols.
func perimeterSymbols(layout []string) ([]string, error) {
	cells, err := perimeterCells(layout)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, len(cells))
	for i, c := range cells {
		symbols[i] = c.symbol
	}
	return symbols, nil
}

type perimeterCell struct {
	row, col int
	symbol   string
}

func perimeterCells(layout []string) ([]perimeterCell, error) {
	n := len(layout)
	if n < MinLayoutSize || n > MaxLayoutSize {
		return nil, fmt.Errorf("layout must have between %d and %d rows, got %d", MinLayoutSize, MaxLayoutSize, n)
	}

	rows := make([][]string, n)
	for i, line := range layout {
		rows[i] = strings.Fields(line)
		want := 2
		if i == 0 || i == n-1 {
			want = n
		}
		if len(rows[i]) != want {
			return nil, fmt.Errorf("layout row %d must have %d symbols, got %d", i+1, want, len(rows[i]))
		}
	}

	cells := make([]perimeterCell, 0, 4*n-4)
	for col := n - 1; col >= 0; col-- {
		cells = append(cells, perimeterCell{row: n - 1, col: col, symbol: rows[n-1][col]})
	}
	for row := n - 2; row >= 1; row-- {
		cells = append(cells, perimeterCell{row: row, col: 0, symbol: rows[row][0]})
	}
	for col := 0; col < n; col++ {
		cells = append(cells, perimeterCell{row: 0, col: col, symbol: rows[0][col]})
	}
	for row := 1; row <= n-2; row++ {
		cells = append(cells, perimeterCell{row: row, col: n - 1, symbol: rows[row][1]})
	}
	return cells, nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigByName loads a game configuration by name from a configs directory
func LoadConfigByName(dir, configName string) (*GameConfig, error) {
	if !strings.HasSuffix(configName, ".json") {
		configName = configName + ".json"
	}

	configPath := filepath.Join(dir, configName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file '%s' not found", configName)
	}

	config, err := LoadGameConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", configName, err)
	}
	return config, nil
}

func intPtr(v int) *int { return &v }

// DefaultGameConfig returns the built-in UMD campus board
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:           "umd",
		Description:    "University of Maryland campus board: five groups of three properties on an 11x11 perimeter",
		StartingCash:   DefaultStartingCash,
		PassStartBonus: DefaultPassStartBonus,
		TollMultiplier: DefaultTollMultiplier,
		TurnCap:        DefaultTurnCap,
		JailTurns:      DefaultJailTurns,
		BailAmount:     DefaultBailAmount,
		Layout: []string{
			"P V M U U H D1 V X M E",
			"T M",
			"T3 U",
			"U T2",
			"H J",
			"S V",
			"E E",
			"C3 V",
			"C2 V",
			"M M",
			"J D3 C E T H R R D2 H GO",
		},
		Groups: []GroupConfig{
			{
				Name: "North Campus", Type: "Housing", Color: "Red",
				BaseCost: 200, BaseRent: 20, HouseRents: []int{50, 150, 450, 625, 750}, HouseCost: 100, FullSet: 3,
				Members: []MemberConfig{
					{Code: "C", Name: "Cambridge Community"},
					{Code: "C2", Name: "Cambridge Hall"},
					{Code: "C3", Name: "Cambridge Commons"},
				},
			},
			{
				Name: "South Campus", Type: "Housing", Color: "Teal",
				BaseCost: 200, BaseRent: 25, HouseRents: []int{60, 180, 500, 700, 900}, HouseCost: 120, FullSet: 3,
				Members: []MemberConfig{
					{Code: "T", Name: "T-Row Apartments"},
					{Code: "T2", Name: "Terrapin Row"},
					{Code: "T3", Name: "Towers"},
				},
			},
			{
				Name: "Academic Core", Type: "Academic", Color: "Blue",
				BaseCost: 200, BaseRent: 30, HouseRents: []int{70, 200, 550, 750, 950}, HouseCost: 150, FullSet: 3,
				Members: []MemberConfig{
					{Code: "M", Name: "McKeldin Library"},
					{Code: "H", Name: "Hornbake Library"},
					{Code: "U", Name: "Stamp Student Union"},
				},
			},
			{
				Name: "Dining Halls", Type: "Dining", Color: "Green",
				BaseCost: 200, BaseRent: 15, HouseRents: []int{40, 100, 300, 450, 600}, HouseCost: 80, FullSet: 3,
				Members: []MemberConfig{
					{Code: "D1", Name: "South Campus Dining"},
					{Code: "D2", Name: "251 North"},
					{Code: "D3", Name: "The Diner"},
				},
			},
			{
				Name: "Athletics", Type: "Recreation", Color: "Yellow",
				BaseCost: 200, BaseRent: 35, HouseRents: []int{80, 220, 600, 800, 1000}, HouseCost: 180, FullSet: 3,
				Members: []MemberConfig{
					{Code: "V", Name: "Varsity Team House"},
					{Code: "X", Name: "Xfinity Center"},
					{Code: "S", Name: "SECU Stadium"},
				},
			},
		},
		Specials: []SpecialConfig{
			{Code: "GO", Name: "START / GO", Kind: TileStart, Position: 0, Action: "Collect $200 when passing"},
			{Code: "J", Name: "Jail / Just Visiting", Kind: TileJail, Position: 10, Action: "Just visiting"},
			{Code: "E", Name: "Event Space", Kind: TileEvent, Position: 7, Action: "Draw a campus event"},
			{Code: "P", Name: "Free Parking", Kind: TileParking, Position: 20, Action: "Rest"},
			{Code: "R", Name: "Rent-A-Scooter", Kind: TileToll, Position: 3, Action: "Pay dice x 25"},
		},
		Events: EventDeck{
			Good: []string{"you get a car", "you get a new dorm", "you get a scooter"},
			Bad:  []string{"you get a parking ticket", "you have your dorm flooded", "you get a flat on your scooter wheel"},
		},
	}
	config.Messages.Welcome = "Welcome to UMD Monopoly! Buy up campus and bankrupt your rival."
	config.Messages.PassStart = "Passed START, collected $%d"
	config.Messages.Purchased = "%s bought %s for $%d"
	config.Messages.Declined = "%s passed on %s"
	config.Messages.RentPaid = "%s paid $%d rent to %s for %s"
	config.Messages.Bankrupt = "%s could not pay $%d to %s and is bankrupt"
	config.Messages.Toll = "%s paid a $%d scooter toll"
	config.Messages.Visiting = "%s is just visiting jail"
	config.Messages.Arrested = "%s was sent to jail"
	config.Messages.GameOver = "Game over: %s wins"
	config.Messages.TurnCapHit = "Turn limit reached"
	return config
}
