package engine

// RentDue computes the rent owed for landing on a property.
//
// Rules apply in order: mortgaged or unowned properties charge nothing; a
// toll tile charges the dice roll times the multiplier; otherwise the group
// table gives the rent for the improvement level, doubled when the owner
// holds the whole group and nothing has been built yet.
func RentDue(prop *Property, group *PropertyGroup, diceRoll int, ownerHasMonopoly bool, tollMultiplier int) int {
	if prop.Mortgaged || !prop.IsOwned() {
		return 0
	}
	if prop.Kind == TileToll {
		return TollDue(diceRoll, tollMultiplier)
	}

	rent := prop.BaseRent
	if group != nil && prop.Level > 0 && prop.Level <= len(group.HouseRents) {
		rent = group.RentAtLevel(prop.Level)
	}
	if ownerHasMonopoly && prop.Level == 0 {
		rent *= 2
	}
	return rent
}

// TollDue is the direct charge for landing on a toll tile
func TollDue(diceRoll, multiplier int) int {
	return diceRoll * multiplier
}

// CurrentValue appraises a property. Houses count at half their cost and a
// hotel at twice the house cost.
func CurrentValue(prop *Property, group *PropertyGroup) int {
	value := prop.Cost
	if prop.Mortgaged {
		value = prop.Cost / 2
	}
	houseCost := DefaultHouseCost
	if group != nil {
		houseCost = group.HouseCost
	}
	return value + prop.Houses()*(houseCost/2) + prop.Hotels()*(houseCost*2)
}
