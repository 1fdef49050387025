package engine

import (
	"maps"
	"slices"
)

// TileKind classifies a board tile. The set is closed; the board resolves
// every symbol to exactly one kind when it is built.
type TileKind string

const (
	TileStart    TileKind = "start"
	TileProperty TileKind = "property"
	TileEvent    TileKind = "event"
	TileJail     TileKind = "jail"
	TileToll     TileKind = "toll"
	TileParking  TileKind = "parking"
	TileBlank    TileKind = "blank"

	// Rule defaults applied when a config leaves a value at zero
	DefaultStartingCash   = 1500
	DefaultPassStartBonus = 200
	DefaultTollMultiplier = 25
	DefaultBaseCost       = 200
	DefaultHouseCost      = 100
	DefaultTurnCap        = 200
	DefaultJailTurns      = 3
	DefaultBailAmount     = 50

	// Validation constants
	PlayerCount         = 2
	MaxImprovementLevel = 5
	HotelLevel          = 5
	MinLayoutSize       = 3
	MaxLayoutSize       = 21
	MaxTurnCap          = 10000
	MaxAutoPlayTurns    = 50
	DieFaces            = 6
	WebSocketBufferSize = 256

	// NoOwner marks a property nobody has bought
	NoOwner = -1
	// NoWinner marks a finished game without a single winner
	NoWinner = -1
)

// TurnPhase is a state of the turn machine.
type TurnPhase string

const (
	PhaseAwaitingRoll TurnPhase = "awaiting_roll"
	PhaseMoved        TurnPhase = "moved"
	PhaseTileResolved TurnPhase = "tile_resolved"
	PhaseTurnComplete TurnPhase = "turn_complete"
	PhaseGameOver     TurnPhase = "game_over"
)

// Game over reasons
const (
	ReasonInsolvent = "insolvent"
	ReasonTurnCap   = "turn_cap"
)

// Player controllers
const (
	ControllerHuman = "human"
	ControllerCPU   = "cpu"
)

// Tile is one square of the board perimeter
type Tile struct {
	Position int      `json:"position"`
	Symbol   string   `json:"symbol"`
	Kind     TileKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
}

// PropertyGroup is a color set of properties. A player holding every
// member has a monopoly on the group.
type PropertyGroup struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Color       string   `json:"color"`
	Members     []string `json:"members"`
	FullSetSize int      `json:"full_set_size"`
	BaseCost    int      `json:"base_cost"`
	BaseRent    int      `json:"base_rent"`
	HouseRents  []int    `json:"house_rents"` // rent at levels 1..5
	HouseCost   int      `json:"house_cost"`
}

// RentAtLevel returns the table rent for an improvement level. Level 0 and
// levels past the end of the table use the base rent.
func (g *PropertyGroup) RentAtLevel(level int) int {
	if level <= 0 || level > len(g.HouseRents) {
		return g.BaseRent
	}
	return g.HouseRents[level-1]
}

// RentEvent records one rent charge against a property
type RentEvent struct {
	Timestamp int64 `json:"timestamp"`
	Amount    int   `json:"amount"`
	DiceRoll  int   `json:"dice_roll"`
	Level     int   `json:"level"`
	Monopoly  bool  `json:"monopoly"`
	Payer     int   `json:"payer"`
}

// PurchaseRecord records a change of ownership
type PurchaseRecord struct {
	Timestamp int64  `json:"timestamp"`
	Owner     int    `json:"owner"`
	Price     int    `json:"price"`
	Via       string `json:"via"` // "purchase" or "bankruptcy"
}

// Property is a catalog entry. Special tiles (start, jail, event, parking,
// toll) appear in the catalog with an empty group and are never owned.
type Property struct {
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Position        int              `json:"position"`
	Group           string           `json:"group,omitempty"`
	Kind            TileKind         `json:"kind"`
	Cost            int              `json:"cost"`
	BaseRent        int              `json:"base_rent"`
	Owner           int              `json:"owner"`
	Mortgaged       bool             `json:"mortgaged"`
	Level           int              `json:"level"`
	RentHistory     []RentEvent      `json:"rent_history"`
	PurchaseHistory []PurchaseRecord `json:"purchase_history"`
}

// IsOwned reports whether a player holds the property
func (p *Property) IsOwned() bool {
	return p.Owner != NoOwner
}

// Purchasable reports whether the property can ever be bought
func (p *Property) Purchasable() bool {
	return p.Kind == TileProperty && p.Group != ""
}

// Houses returns the house count implied by the improvement level
func (p *Property) Houses() int {
	if p.Level >= HotelLevel {
		return 0
	}
	return p.Level
}

// Hotels returns 1 once the property carries a hotel
func (p *Property) Hotels() int {
	if p.Level >= HotelLevel {
		return 1
	}
	return 0
}

// TotalRentCollected sums the rent history
func (p *Property) TotalRentCollected() int {
	total := 0
	for _, ev := range p.RentHistory {
		total += ev.Amount
	}
	return total
}

// ROI is collected rent as a fraction of the purchase cost
func (p *Property) ROI() float64 {
	if p.Cost == 0 {
		return 0
	}
	return float64(p.TotalRentCollected()) / float64(p.Cost)
}

// Player is one of the two participants
type Player struct {
	Name        string              `json:"name"`
	Token       string              `json:"token"`
	Controller  string              `json:"controller"`
	Cash        int                 `json:"cash"`
	Position    int                 `json:"position"`
	Properties  []string            `json:"properties"`
	OwnedGroups map[string][]string `json:"owned_groups"`
	Monopolies  map[string]bool     `json:"monopolies"`
	Bankrupt    bool                `json:"bankrupt"`
	InJail      bool                `json:"in_jail"`
	JailTurns   int                 `json:"jail_turns"`

	// Reporting only
	TurnsPlayed      int `json:"turns_played"`
	TotalMoves       int `json:"total_moves"`
	PropertiesBought int `json:"properties_bought"`
}

// PlayerSpec describes a participant when a game is created
type PlayerSpec struct {
	Name       string `json:"name"`
	Token      string `json:"token"`
	Controller string `json:"controller"`
}

// GameState represents the complete game state
type GameState struct {
	GameID         string         `json:"game_id"`
	ConfigName     string         `json:"config_name"`
	Players        []*Player      `json:"players"`
	Properties     []*Property    `json:"properties"`
	ActivePlayer   int            `json:"active_player"`
	Phase          TurnPhase      `json:"phase"`
	TurnCount      int            `json:"turn_count"`
	TurnCap        int            `json:"turn_cap"`
	LastRoll       int            `json:"last_roll"`
	Message        string         `json:"message"`
	GameOver       bool           `json:"game_over"`
	GameOverReason string         `json:"game_over_reason,omitempty"`
	Winner         int            `json:"winner"`
	Occupancy      map[string]int `json:"occupancy"`
	TurnHistory    []TurnRecord   `json:"turn_history"`
}

// Clone returns a deep copy that shares nothing with s. The engine keeps
// mutating its own state, so callers that hand a state to other goroutines
// clone it first.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		c.Players[i] = p.Clone()
	}
	c.Properties = make([]*Property, len(s.Properties))
	for i, p := range s.Properties {
		c.Properties[i] = p.Clone()
	}
	c.Occupancy = maps.Clone(s.Occupancy)
	c.TurnHistory = slices.Clone(s.TurnHistory)
	for i, rec := range c.TurnHistory {
		if rec.Advice != nil {
			advice := *rec.Advice
			c.TurnHistory[i].Advice = &advice
		}
	}
	return &c
}

// Clone returns a deep copy of the player
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	c.Properties = slices.Clone(p.Properties)
	c.OwnedGroups = maps.Clone(p.OwnedGroups)
	for group, codes := range c.OwnedGroups {
		c.OwnedGroups[group] = slices.Clone(codes)
	}
	c.Monopolies = maps.Clone(p.Monopolies)
	return &c
}

// Clone returns a deep copy of the property
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	c := *p
	c.RentHistory = slices.Clone(p.RentHistory)
	c.PurchaseHistory = slices.Clone(p.PurchaseHistory)
	return &c
}

// Turn actions recorded in history
const (
	ActionPurchase    = "purchase"
	ActionDeclined    = "declined"
	ActionCantAfford  = "cant_afford"
	ActionRent        = "rent"
	ActionBankrupt    = "bankrupt"
	ActionToll        = "toll"
	ActionEvent       = "event"
	ActionVisitJail   = "visit_jail"
	ActionArrested    = "arrested"
	ActionServedJail  = "served_jail"
	ActionOwnProperty = "own_property"
	ActionMortgaged   = "mortgaged_property"
	ActionNone        = "none"
)

// TurnRecord is one entry of the turn history
type TurnRecord struct {
	Turn         int      `json:"turn"`
	Player       int      `json:"player"`
	PlayerName   string   `json:"player_name"`
	Roll         int      `json:"roll"`
	From         int      `json:"from"`
	To           int      `json:"to"`
	PassedStart  bool     `json:"passed_start"`
	Symbol       string   `json:"symbol"`
	TileKind     TileKind `json:"tile_kind"`
	Action       string   `json:"action"`
	PropertyCode string   `json:"property_code,omitempty"`
	Amount       int      `json:"amount,omitempty"`
	Payee        int      `json:"payee"`
	Event        string   `json:"event,omitempty"`
	Advice       *Advice  `json:"advice,omitempty"`
	CashAfter    int      `json:"cash_after"`
	Message      string   `json:"message"`
	Timestamp    int64    `json:"timestamp"`
}
