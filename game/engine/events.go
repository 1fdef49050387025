package engine

import "fmt"

// Event outcome kinds
const (
	EventGood = "good"
	EventBad  = "bad"
)

// DrawEvent picks good or bad with equal odds, then one outcome of that
// kind. Events are narrative only.
func DrawEvent(r RandomSource, deck EventDeck) string {
	if len(deck.Good) == 0 && len(deck.Bad) == 0 {
		return "Nothing happens"
	}
	kind := r.Pick([]string{EventGood, EventBad})
	if kind == EventGood {
		return fmt.Sprintf("Your good event is: %s", r.Pick(deck.Good))
	}
	return fmt.Sprintf("Your bad event is: %s", r.Pick(deck.Bad))
}
