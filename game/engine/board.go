package engine

import "fmt"

// BlankSymbol marks an empty tile in a layout
const BlankSymbol = "."

// Board maps linear positions to tiles. It is immutable after NewBoard.
type Board struct {
	tiles  []Tile
	cells  []perimeterCell
	size   int // layout rows
	groups map[string]*PropertyGroup
	groupL []*PropertyGroup
}

// NewBoard resolves every layout symbol into a tile and indexes the groups
func NewBoard(config *GameConfig) (*Board, error) {
	cells, err := perimeterCells(config.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}

	kinds := make(map[string]TileKind)
	names := make(map[string]string)
	b := &Board{
		cells:  cells,
		size:   len(config.Layout),
		groups: make(map[string]*PropertyGroup),
	}

	for _, gc := range config.Groups {
		group := newPropertyGroup(gc)
		b.groupL = append(b.groupL, group)
		for _, m := range gc.Members {
			kinds[m.Code] = TileProperty
			names[m.Code] = m.Name
			b.groups[m.Code] = group
		}
	}
	for _, s := range config.Specials {
		kinds[s.Code] = s.Kind
		names[s.Code] = s.Name
	}

	b.tiles = make([]Tile, len(cells))
	for pos, c := range cells {
		kind, ok := kinds[c.symbol]
		if !ok {
			if c.symbol != BlankSymbol {
				return nil, fmt.Errorf("failed to build board: unknown symbol '%s' at position %d", c.symbol, pos)
			}
			kind = TileBlank
		}
		b.tiles[pos] = Tile{Position: pos, Symbol: c.symbol, Kind: kind, Name: names[c.symbol]}
	}

	return b, nil
}

func newPropertyGroup(gc GroupConfig) *PropertyGroup {
	members := make([]string, len(gc.Members))
	for i, m := range gc.Members {
		members[i] = m.Code
	}
	baseCost := gc.BaseCost
	if baseCost == 0 {
		baseCost = DefaultBaseCost
	}
	houseCost := gc.HouseCost
	if houseCost == 0 {
		houseCost = DefaultHouseCost
	}
	return &PropertyGroup{
		Name:        gc.Name,
		Type:        gc.Type,
		Color:       gc.Color,
		Members:     members,
		FullSetSize: gc.FullSet,
		BaseCost:    baseCost,
		BaseRent:    gc.BaseRent,
		HouseRents:  append([]int(nil), gc.HouseRents...),
		HouseCost:   houseCost,
	}
}

// Size returns the number of tiles on the perimeter
func (b *Board) Size() int {
	return len(b.tiles)
}

// TileAt returns the tile at a position taken modulo the board size
func (b *Board) TileAt(position int) Tile {
	n := len(b.tiles)
	return b.tiles[((position%n)+n)%n]
}

// GroupFor returns the group a symbol belongs to, or nil for non-property symbols
func (b *Board) GroupFor(symbol string) *PropertyGroup {
	return b.groups[symbol]
}

// Group returns a group by name
func (b *Board) Group(name string) *PropertyGroup {
	for _, g := range b.groupL {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Groups returns the groups in declaration order
func (b *Board) Groups() []*PropertyGroup {
	return b.groupL
}

// Tiles returns a copy of the tiles in position order
func (b *Board) Tiles() []Tile {
	return append([]Tile(nil), b.tiles...)
}

// FirstPosition returns the first position carrying a symbol, or -1
func (b *Board) FirstPosition(symbol string) int {
	for _, t := range b.tiles {
		if t.Symbol == symbol {
			return t.Position
		}
	}
	return -1
}
