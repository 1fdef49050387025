package engine

import "testing"

func TestRentDueZeroWhenMortgagedOrUnowned(t *testing.T) {
	group := &PropertyGroup{BaseRent: 10, HouseRents: []int{20, 40, 80, 160, 320}, HouseCost: 50}

	for dice := 1; dice <= DieFaces; dice++ {
		for _, monopoly := range []bool{false, true} {
			for level := 0; level <= MaxImprovementLevel; level++ {
				unowned := &Property{Code: "A", Kind: TileProperty, BaseRent: 10, Owner: NoOwner, Level: level}
				if got := RentDue(unowned, group, dice, monopoly, 25); got != 0 {
					t.Errorf("unowned dice=%d monopoly=%v level=%d: expected 0, got %d", dice, monopoly, level, got)
				}
				mortgaged := &Property{Code: "A", Kind: TileProperty, BaseRent: 10, Owner: 0, Mortgaged: true, Level: level}
				if got := RentDue(mortgaged, group, dice, monopoly, 25); got != 0 {
					t.Errorf("mortgaged dice=%d monopoly=%v level=%d: expected 0, got %d", dice, monopoly, level, got)
				}
			}
		}
	}
}

func TestRentDue(t *testing.T) {
	group := &PropertyGroup{BaseRent: 10, HouseRents: []int{20, 40, 80, 160, 320}, HouseCost: 50}
	short := &PropertyGroup{BaseRent: 10, HouseRents: []int{20}, HouseCost: 50}

	tests := []struct {
		name     string
		prop     *Property
		group    *PropertyGroup
		dice     int
		monopoly bool
		want     int
	}{
		{"base rent", &Property{Kind: TileProperty, BaseRent: 10, Owner: 0}, group, 3, false, 10},
		{"monopoly doubles level 0", &Property{Kind: TileProperty, BaseRent: 10, Owner: 0}, group, 3, true, 20},
		{"one house", &Property{Kind: TileProperty, BaseRent: 10, Owner: 0, Level: 1}, group, 3, false, 20},
		{"houses ignore monopoly", &Property{Kind: TileProperty, BaseRent: 10, Owner: 0, Level: 3}, group, 3, true, 80},
		{"hotel", &Property{Kind: TileProperty, BaseRent: 10, Owner: 0, Level: 5}, group, 3, true, 320},
		{"level past table", &Property{Kind: TileProperty, BaseRent: 10, Owner: 0, Level: 3}, short, 3, false, 10},
		{"owned toll", &Property{Kind: TileToll, Owner: 1}, nil, 4, false, 100},
		{"owned toll ignores monopoly", &Property{Kind: TileToll, Owner: 1}, nil, 6, true, 150},
		{"no group uses base", &Property{Kind: TileProperty, BaseRent: 7, Owner: 0, Level: 2}, nil, 1, false, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RentDue(tt.prop, tt.group, tt.dice, tt.monopoly, 25); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCurrentValue(t *testing.T) {
	group := &PropertyGroup{HouseCost: 50}
	tests := []struct {
		name string
		prop *Property
		want int
	}{
		{"plain", &Property{Cost: 200}, 200},
		{"mortgaged", &Property{Cost: 200, Mortgaged: true}, 100},
		{"two houses", &Property{Cost: 200, Level: 2}, 250},
		{"four houses", &Property{Cost: 200, Level: 4}, 300},
		{"hotel", &Property{Cost: 200, Level: 5}, 300},
	}
	for _, tt := range tests {
		if got := CurrentValue(tt.prop, group); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}

	// default house cost when no group is known
	if got := CurrentValue(&Property{Cost: 100, Level: 1}, nil); got != 150 {
		t.Errorf("expected 150 with default house cost, got %d", got)
	}
}

func TestTollDue(t *testing.T) {
	if got := TollDue(4, DefaultTollMultiplier); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestPropertyROI(t *testing.T) {
	p := &Property{Cost: 200, RentHistory: []RentEvent{{Amount: 20}, {Amount: 30}}}
	if p.TotalRentCollected() != 50 {
		t.Errorf("expected 50 collected, got %d", p.TotalRentCollected())
	}
	if p.ROI() != 0.25 {
		t.Errorf("expected ROI 0.25, got %f", p.ROI())
	}
	if (&Property{}).ROI() != 0 {
		t.Error("expected zero ROI for zero cost")
	}
}
