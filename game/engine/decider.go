package engine

// PurchaseRequest is what a decider sees when a player lands on an unowned property
type PurchaseRequest struct {
	PlayerIndex int
	Player      *Player
	Property    *Property
	Stage       Stage
	Advice      Advice
}

// Decider answers the purchase question for one player. Calls are
// synchronous; the turn waits for the answer.
type Decider interface {
	DecidePurchase(req PurchaseRequest) bool
}

// DeciderFunc adapts a function to the Decider interface
type DeciderFunc func(req PurchaseRequest) bool

// DecidePurchase calls f(req)
func (f DeciderFunc) DecidePurchase(req PurchaseRequest) bool {
	return f(req)
}

// HeuristicDecider follows ShouldBuy. Risky purchases go through only when BuyRisky is set.
type HeuristicDecider struct {
	BuyRisky bool
}

// DecidePurchase implements Decider
func (h HeuristicDecider) DecidePurchase(req PurchaseRequest) bool {
	switch req.Advice.Decision {
	case DecisionBuy:
		return true
	case DecisionRisky:
		return h.BuyRisky
	default:
		return false
	}
}

// StaticDecider always gives the same answer
type StaticDecider bool

// DecidePurchase implements Decider
func (s StaticDecider) DecidePurchase(PurchaseRequest) bool {
	return bool(s)
}
