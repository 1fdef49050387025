package engine

import "fmt"

// Stage is the phase of the game used to size the cash reserve
type Stage string

const (
	StageEarly Stage = "early"
	StageMid   Stage = "mid"
	StageLate  Stage = "late"
)

// Advice decisions
const (
	DecisionBuy   = "buy"
	DecisionSkip  = "skip"
	DecisionRisky = "risky"
)

// Reserve returns the minimum cash a player should keep at a stage
func (s Stage) Reserve() int {
	switch s {
	case StageMid:
		return 400
	case StageLate:
		return 600
	default:
		return 200
	}
}

// StageFor splits the turn budget into thirds
func StageFor(turn, turnCap int) Stage {
	if turnCap <= 0 {
		return StageEarly
	}
	switch {
	case turn*3 < turnCap:
		return StageEarly
	case turn*3 < turnCap*2:
		return StageMid
	default:
		return StageLate
	}
}

// Advice is the outcome of ShouldBuy
type Advice struct {
	Decision           string  `json:"decision"`
	Confidence         int     `json:"confidence"`
	Reason             string  `json:"reason"`
	AffordabilityRatio float64 `json:"affordability_ratio"`
	RemainingCash      int     `json:"remaining_cash"`
	RiskScore          int     `json:"risk_score"`
	Reserve            int     `json:"reserve"`
	Stage              Stage   `json:"stage"`
}

// ShouldBuy scores a purchase. It is advisory; callers decide what to do
// with a risky result.
func ShouldBuy(cash, cost int, stage Stage) Advice {
	reserve := stage.Reserve()
	advice := Advice{
		RemainingCash: cash - cost,
		Reserve:       reserve,
		Stage:         stage,
	}

	if cash <= 0 || cost > cash {
		advice.Decision = DecisionSkip
		advice.Confidence = 100
		advice.Reason = fmt.Sprintf("cannot afford $%d with $%d", cost, cash)
		return advice
	}

	ratio := float64(cost) / float64(cash)
	remaining := cash - cost
	advice.AffordabilityRatio = ratio

	risk := 0
	if remaining < reserve {
		risk++
	}
	if ratio > 0.7 {
		risk++
	}
	if stage == StageLate && remaining < 500 {
		risk++
	}
	advice.RiskScore = risk

	switch {
	case risk >= 3:
		advice.Decision = DecisionSkip
		advice.Confidence = 80
		advice.Reason = "too many risk factors"
	case risk == 2:
		advice.Decision = DecisionRisky
		advice.Confidence = 50
		advice.Reason = "purchase would leave thin reserves"
	case ratio <= 0.3:
		advice.Decision = DecisionBuy
		advice.Confidence = 90
		advice.Reason = "cheap relative to cash"
	case float64(remaining) >= 1.5*float64(reserve):
		advice.Decision = DecisionBuy
		advice.Confidence = 75
		advice.Reason = "comfortable reserve after purchase"
	default:
		advice.Decision = DecisionBuy
		advice.Confidence = 60
		advice.Reason = "affordable"
	}
	return advice
}
