package engine

import (
	"sort"
	"strings"
)

// Tier surcharges applied to derived costs
const (
	TierTwoSurcharge   = 50
	TierThreeSurcharge = 100
	memberSpacing      = 3
)

// DeriveCost returns the price of a property code in a group with the given
// base cost. Codes ending in "2" and "3" are the pricier tiers of a group.
func DeriveCost(code string, baseCost int) int {
	switch {
	case strings.HasSuffix(code, "2"):
		return baseCost + TierTwoSurcharge
	case strings.HasSuffix(code, "3"):
		return baseCost + TierThreeSurcharge
	default:
		return baseCost
	}
}

// BuildCatalog creates one property per group member followed by the
// special tiles, ordered by position. Entries sharing a position keep
// their declaration order.
func BuildCatalog(config *GameConfig, board *Board) []*Property {
	var catalog []*Property

	index := 0
	for _, gc := range config.Groups {
		group := board.Group(gc.Name)
		for _, m := range gc.Members {
			pos := index * memberSpacing
			if m.Position != nil {
				pos = *m.Position
			} else if first := board.FirstPosition(m.Code); first >= 0 {
				pos = first
			}

			cost := DeriveCost(m.Code, group.BaseCost)
			if m.Cost != nil {
				cost = *m.Cost
			}
			rent := group.BaseRent
			if m.BaseRent != nil {
				rent = *m.BaseRent
			}

			catalog = append(catalog, &Property{
				Code:            m.Code,
				Name:            m.Name,
				Position:        pos,
				Group:           gc.Name,
				Kind:            TileProperty,
				Cost:            cost,
				BaseRent:        rent,
				Owner:           NoOwner,
				RentHistory:     []RentEvent{},
				PurchaseHistory: []PurchaseRecord{},
			})
			index++
		}
	}

	for _, s := range config.Specials {
		catalog = append(catalog, &Property{
			Code:            s.Code,
			Name:            s.Name,
			Position:        s.Position,
			Kind:            s.Kind,
			Owner:           NoOwner,
			RentHistory:     []RentEvent{},
			PurchaseHistory: []PurchaseRecord{},
		})
	}

	sort.SliceStable(catalog, func(i, j int) bool {
		return catalog[i].Position < catalog[j].Position
	})
	return catalog
}
