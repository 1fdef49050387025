package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyOwned      = errors.New("property already owned")
	ErrNotPurchasable    = errors.New("tile cannot be purchased")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrNotOwner          = errors.New("player does not own this property")
	ErrNoMonopoly        = errors.New("player does not hold the full group")
	ErrMaxImprovement    = errors.New("property already has a hotel")
	ErrMortgaged         = errors.New("property is mortgaged")
	ErrNotMortgaged      = errors.New("property is not mortgaged")
	ErrImproved          = errors.New("property has improvements")
	ErrPlayerBankrupt    = errors.New("player is bankrupt")
)

// PaymentOutcome is the result of a rent payment
type PaymentOutcome string

const (
	Paid       PaymentOutcome = "paid"
	Bankrupted PaymentOutcome = "bankrupted"
)

// UnmortgageInterestPercent is added to the mortgage value when lifting a mortgage
const UnmortgageInterestPercent = 10

// Ledger applies ownership and cash changes to a game state. Every
// operation validates first and mutates only once all checks pass.
type Ledger struct {
	state *GameState
	board *Board
	index map[string]*Property
	now   func() time.Time
}

// NewLedger indexes the state's properties by code
func NewLedger(state *GameState, board *Board) *Ledger {
	l := &Ledger{
		state: state,
		board: board,
		index: make(map[string]*Property, len(state.Properties)),
		now:   time.Now,
	}
	for _, p := range state.Properties {
		l.index[p.Code] = p
	}
	return l
}

// Property returns a catalog entry by code
func (l *Ledger) Property(code string) (*Property, error) {
	p, ok := l.index[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, code)
	}
	return p, nil
}

func (l *Ledger) player(idx int) (*Player, error) {
	if idx < 0 || idx >= len(l.state.Players) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, idx)
	}
	return l.state.Players[idx], nil
}

func (l *Ledger) ownedProperty(playerIdx int, code string) (*Player, *Property, error) {
	player, err := l.player(playerIdx)
	if err != nil {
		return nil, nil, err
	}
	prop, err := l.Property(code)
	if err != nil {
		return nil, nil, err
	}
	if prop.Owner != playerIdx {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotOwner, code)
	}
	return player, prop, nil
}

// Purchase buys an unowned property for a player
func (l *Ledger) Purchase(playerIdx int, code string) error {
	player, err := l.player(playerIdx)
	if err != nil {
		return err
	}
	prop, err := l.Property(code)
	if err != nil {
		return err
	}
	if !prop.Purchasable() {
		return fmt.Errorf("%w: %s", ErrNotPurchasable, code)
	}
	if player.Bankrupt {
		return ErrPlayerBankrupt
	}
	if prop.IsOwned() {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, code)
	}
	if player.Cash < prop.Cost {
		return fmt.Errorf("%w: need $%d, have $%d", ErrInsufficientFunds, prop.Cost, player.Cash)
	}

	player.Cash -= prop.Cost
	prop.Owner = playerIdx
	prop.PurchaseHistory = append(prop.PurchaseHistory, PurchaseRecord{
		Timestamp: l.now().Unix(),
		Owner:     playerIdx,
		Price:     prop.Cost,
		Via:       "purchase",
	})
	player.Properties = append(player.Properties, code)
	if player.OwnedGroups == nil {
		player.OwnedGroups = make(map[string][]string)
	}
	player.OwnedGroups[prop.Group] = append(player.OwnedGroups[prop.Group], code)
	player.PropertiesBought++
	l.checkMonopoly(player, prop.Group)
	return nil
}

// checkMonopoly marks a group as a monopoly once the player holds the
// full set. Monopolies are never removed here.
func (l *Ledger) checkMonopoly(player *Player, groupName string) {
	group := l.board.Group(groupName)
	if group == nil {
		return
	}
	if len(player.OwnedGroups[groupName]) >= group.FullSetSize {
		if player.Monopolies == nil {
			player.Monopolies = make(map[string]bool)
		}
		player.Monopolies[groupName] = true
	}
}

// HasMonopoly reports whether the player's monopoly set contains the group
func (l *Ledger) HasMonopoly(playerIdx int, groupName string) bool {
	player, err := l.player(playerIdx)
	if err != nil {
		return false
	}
	return player.Monopolies[groupName]
}

// PayRent moves cash from payer to payee. A payer who cannot cover the
// amount goes bankrupt: cash drops to zero and every property the payer
// holds is handed to the payee.
func (l *Ledger) PayRent(payerIdx, amount, payeeIdx int) (PaymentOutcome, error) {
	payer, err := l.player(payerIdx)
	if err != nil {
		return "", err
	}
	payee, err := l.player(payeeIdx)
	if err != nil {
		return "", err
	}

	if payer.Cash >= amount {
		payer.Cash -= amount
		payee.Cash += amount
		return Paid, nil
	}

	ts := l.now().Unix()
	for _, code := range payer.Properties {
		prop, ok := l.index[code]
		if !ok {
			continue
		}
		prop.Owner = payeeIdx
		prop.PurchaseHistory = append(prop.PurchaseHistory, PurchaseRecord{
			Timestamp: ts,
			Owner:     payeeIdx,
			Via:       "bankruptcy",
		})
		payee.Properties = append(payee.Properties, code)
	}
	payer.Cash = 0
	payer.Bankrupt = true
	payer.Properties = []string{}
	payer.OwnedGroups = map[string][]string{}
	return Bankrupted, nil
}

// Improve adds one improvement level. The fifth level is a hotel that
// replaces the four houses.
func (l *Ledger) Improve(playerIdx int, code string) error {
	player, prop, err := l.ownedProperty(playerIdx, code)
	if err != nil {
		return err
	}
	if !player.Monopolies[prop.Group] {
		return fmt.Errorf("%w: %s", ErrNoMonopoly, prop.Group)
	}
	if prop.Mortgaged {
		return fmt.Errorf("%w: %s", ErrMortgaged, code)
	}
	if prop.Level >= MaxImprovementLevel {
		return fmt.Errorf("%w: %s", ErrMaxImprovement, code)
	}
	cost := l.improvementCost(prop)
	if player.Cash < cost {
		return fmt.Errorf("%w: need $%d, have $%d", ErrInsufficientFunds, cost, player.Cash)
	}

	player.Cash -= cost
	prop.Level++
	return nil
}

// Mortgage raises half the property's cost. Improved properties cannot be mortgaged.
func (l *Ledger) Mortgage(playerIdx int, code string) error {
	player, prop, err := l.ownedProperty(playerIdx, code)
	if err != nil {
		return err
	}
	if prop.Mortgaged {
		return fmt.Errorf("%w: %s", ErrMortgaged, code)
	}
	if prop.Level > 0 {
		return fmt.Errorf("%w: %s", ErrImproved, code)
	}

	prop.Mortgaged = true
	player.Cash += prop.Cost / 2
	return nil
}

// UnmortgageCost returns the payoff for lifting a mortgage
func UnmortgageCost(prop *Property) int {
	value := prop.Cost / 2
	return value + value*UnmortgageInterestPercent/100
}

// Unmortgage pays off a mortgage with interest
func (l *Ledger) Unmortgage(playerIdx int, code string) error {
	player, prop, err := l.ownedProperty(playerIdx, code)
	if err != nil {
		return err
	}
	if !prop.Mortgaged {
		return fmt.Errorf("%w: %s", ErrNotMortgaged, code)
	}
	cost := UnmortgageCost(prop)
	if player.Cash < cost {
		return fmt.Errorf("%w: need $%d, have $%d", ErrInsufficientFunds, cost, player.Cash)
	}

	player.Cash -= cost
	prop.Mortgaged = false
	return nil
}

func (l *Ledger) improvementCost(prop *Property) int {
	if group := l.board.Group(prop.Group); group != nil {
		return group.HouseCost
	}
	return DefaultHouseCost
}

// NetWorth is cash plus the current value of every held property
func (l *Ledger) NetWorth(playerIdx int) int {
	player, err := l.player(playerIdx)
	if err != nil {
		return 0
	}
	total := player.Cash
	for _, code := range player.Properties {
		if prop, ok := l.index[code]; ok {
			total += CurrentValue(prop, l.board.Group(prop.Group))
		}
	}
	return total
}
