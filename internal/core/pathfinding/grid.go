package pathfinding

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/director/internal/core/systems/physics"
)

var ErrInvalidGrid = errors.New("pathfinding: invalid grid")

// Cell addresses one grid node by column and row.
type Cell struct {
	Col int `json:"col" yaml:"col" toml:"col"`
	Row int `json:"row" yaml:"row" toml:"row"`
}

// Grid is a lattice of walkable nodes spaced cellSize apart. Node (0, 0) sits
// at origin and node (c, r) at origin + (c, r)·cellSize. Grids are read only
// while planners use them.
type Grid struct {
	cols, rows int
	cellSize   float64
	origin     physics.Vec2
	blocked    []bool
}

// NewGrid creates a fully walkable grid.
func NewGrid(cols, rows int, cellSize float64, origin physics.Vec2) (*Grid, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("%w: %dx%d cells", ErrInvalidGrid, cols, rows)
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: cell size %v", ErrInvalidGrid, cellSize)
	}
	return &Grid{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		origin:   origin,
		blocked:  make([]bool, cols*rows),
	}, nil
}

func (g *Grid) Cols() int            { return g.cols }
func (g *Grid) Rows() int            { return g.rows }
func (g *Grid) CellSize() float64    { return g.cellSize }
func (g *Grid) Origin() physics.Vec2 { return g.origin }
func (g *Grid) InBounds(c Cell) bool { return c.Col >= 0 && c.Col < g.cols && c.Row >= 0 && c.Row < g.rows }
func (g *Grid) index(c Cell) int     { return c.Row*g.cols + c.Col }
func (g *Grid) cell(i int) Cell      { return Cell{Col: i % g.cols, Row: i / g.cols} }
func (g *Grid) Walkable(c Cell) bool { return g.InBounds(c) && !g.blocked[g.index(c)] }
func (g *Grid) Blocked(c Cell) bool  { return g.InBounds(c) && g.blocked[g.index(c)] }

// SetBlocked marks a cell impassable. Out of range cells are ignored.
func (g *Grid) SetBlocked(col, row int, blocked bool) {
	c := Cell{Col: col, Row: row}
	if g.InBounds(c) {
		g.blocked[g.index(c)] = blocked
	}
}

// Center is the world position of a node.
func (g *Grid) Center(c Cell) physics.Vec2 {
	return physics.Vec2{
		X: g.origin.X + float64(c.Col)*g.cellSize,
		Y: g.origin.Y + float64(c.Row)*g.cellSize,
	}
}

// Snap returns the node nearest to pos. The second result is false when that
// node lies outside the grid.
func (g *Grid) Snap(pos physics.Vec2) (Cell, bool) {
	c := Cell{
		Col: int(math.Round((pos.X - g.origin.X) / g.cellSize)),
		Row: int(math.Round((pos.Y - g.origin.Y) / g.cellSize)),
	}
	return c, g.InBounds(c)
}

// CellAt returns the node whose position equals pos within tolerance on both
// axes.
func (g *Grid) CellAt(pos physics.Vec2, tolerance float64) (Cell, bool) {
	c, ok := g.Snap(pos)
	if !ok || !g.Center(c).Equals(pos, tolerance) {
		return Cell{}, false
	}
	return c, true
}

// LineBlocked samples the segment from a to b at quarter-cell spacing and
// reports whether any sample lands on a blocked node. Samples off the grid
// count as open.
func (g *Grid) LineBlocked(a, b physics.Vec2) bool {
	d := b.Sub(a)
	steps := int(math.Ceil(d.Len()/(g.cellSize/4))) + 1
	for i := 0; i <= steps; i++ {
		p := a.Add(d.Scale(float64(i) / float64(steps)))
		if c, ok := g.Snap(p); ok && g.blocked[g.index(c)] {
			return true
		}
	}
	return false
}
