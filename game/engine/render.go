package engine

import (
	"sort"
	"strings"
)

const renderCellWidth = 5

// Render draws the board grid as text. Tiles occupied by players show the
// player tokens in place of the tile symbol.
func (b *Board) Render(occupancy map[string]int) string {
	grid := make([][]string, b.size)
	for r := range grid {
		grid[r] = make([]string, b.size)
	}

	byPos := make(map[int][]string)
	for token, pos := range occupancy {
		p := ((pos % len(b.tiles)) + len(b.tiles)) % len(b.tiles)
		byPos[p] = append(byPos[p], token)
	}

	for pos, c := range b.cells {
		label := b.tiles[pos].Symbol
		if tokens, ok := byPos[pos]; ok {
			sort.Strings(tokens)
			label = strings.Join(tokens, "")
		}
		grid[c.row][c.col] = label
	}

	var sb strings.Builder
	for _, row := range grid {
		for _, label := range row {
			sb.WriteString(pad(label, renderCellWidth))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), " \n") + "\n"
}

// pad fits a label to width runes, keeping one trailing space
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width-1]) + " "
	}
	return s + strings.Repeat(" ", width-len(runes))
}
