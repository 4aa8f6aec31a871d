package entity

import (
	"sort"

	"github.com/kongshan001/game-frame-sync/fixedpoint"
)

// cellSize is 64 world units, encoded in Q16.16 (spec.md §4.3: "cell =
// 64·2^16").
var cellSize = fixedpoint.FromInt(64)

// cellKey identifies one bucket of the uniform spatial grid.
type cellKey struct {
	cx, cy int32
}

// less gives the canonical lexicographic bucket order spec.md §4.3
// requires for the collision pass: first by cx, then by cy.
func (k cellKey) less(o cellKey) bool {
	if k.cx != o.cx {
		return k.cx < o.cx
	}
	return k.cy < o.cy
}

// Grid buckets entity ids by their cell coordinates for broad-phase
// collision detection. It is rebuilt once per tick from scratch — the
// simulation never needs a persistent spatial index across ticks.
type Grid struct {
	buckets map[cellKey][]int32
}

// NewGrid constructs an empty grid.
func NewGrid() *Grid {
	return &Grid{buckets: make(map[cellKey][]int32)}
}

func cellOf(v fixedpoint.Value) int32 {
	q, _ := v.Div(cellSize)
	return q.Raw >> fixedpoint.FractionBits
}

// Rebuild buckets every entity in ids-ascending order (the caller
// guarantees ascending order; Rebuild itself does not sort) by its
// floor(x/cell), floor(y/cell) cell.
func (g *Grid) Rebuild(entities []*Entity) {
	for k := range g.buckets {
		delete(g.buckets, k)
	}
	for _, e := range entities {
		key := cellKey{cx: cellOf(e.X), cy: cellOf(e.Y)}
		g.buckets[key] = append(g.buckets[key], e.ID)
	}
}

// sortedKeys returns the bucket keys in canonical lexicographic order.
func (g *Grid) sortedKeys() []cellKey {
	keys := make([]cellKey, 0, len(g.buckets))
	for k := range g.buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// Pair is an ordered collision pair, id_low < id_high.
type Pair struct {
	Low, High int32
}

// CollisionPairs runs the narrow phase over the grid: within each
// bucket (canonical order) every i<j pair is tested, plus pairs formed
// against the right and below neighbor buckets (to catch collisions
// that straddle a cell boundary without double-counting any pair).
func (g *Grid) CollisionPairs(byID map[int32]*Entity) []Pair {
	var pairs []Pair
	for _, key := range g.sortedKeys() {
		ids := g.buckets[key]
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pairs = appendIfOverlap(pairs, byID, ids[i], ids[j])
			}
		}

		right := cellKey{cx: key.cx + 1, cy: key.cy}
		below := cellKey{cx: key.cx, cy: key.cy + 1}
		for _, neighbor := range [2]cellKey{right, below} {
			neighborIDs, ok := g.buckets[neighbor]
			if !ok {
				continue
			}
			for _, a := range ids {
				for _, b := range neighborIDs {
					pairs = appendIfOverlap(pairs, byID, a, b)
				}
			}
		}
	}
	return pairs
}

func appendIfOverlap(pairs []Pair, byID map[int32]*Entity, a, b int32) []Pair {
	ea, eb := byID[a], byID[b]
	if ea == nil || eb == nil {
		return pairs
	}
	if !aabbOverlap(ea, eb) {
		return pairs
	}
	if a < b {
		return append(pairs, Pair{Low: a, High: b})
	}
	return append(pairs, Pair{Low: b, High: a})
}

func aabbOverlap(a, b *Entity) bool {
	ax2 := a.X.Add(a.W)
	ay2 := a.Y.Add(a.H)
	bx2 := b.X.Add(b.W)
	by2 := b.Y.Add(b.H)
	return a.X.LessThan(bx2) && ax2.GreaterThan(b.X) &&
		a.Y.LessThan(by2) && ay2.GreaterThan(b.Y)
}
