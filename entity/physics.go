package entity

import "github.com/kongshan001/game-frame-sync/fixedpoint"

// World tunables. spec.md §4.3 names the update formula exactly but
// leaves the numeric constants (G, V_max, friction factor, world
// bounds) as implementation-chosen; these defaults are deliberately
// modest so a two-player trace stays inside the default world for a
// full frame_timeout window. They are package vars, not consts, so a
// server may override them; every World in the process shares them.
var (
	Gravity       = fixedpoint.FromFloat(20.0)
	MaxSpeed      = fixedpoint.FromFloat(50.0)
	FrictionQ1616 = fixedpoint.FromFloat(0.9)
	WorldMinX     = fixedpoint.FromFloat(0)
	WorldMinY     = fixedpoint.FromFloat(0)
	WorldMaxX     = fixedpoint.FromFloat(1000)
	WorldMaxY     = fixedpoint.FromFloat(1000)
)

// World holds the entity table and spatial grid for one room's
// simulation and runs the per-tick integration and collision pass
// described in spec.md §4.3.
type World struct {
	entities map[int32]*Entity
	order    []int32 // ids, kept ascending
	grid     *Grid
}

// NewWorld constructs an empty simulation world.
func NewWorld() *World {
	return &World{
		entities: make(map[int32]*Entity),
		grid:     NewGrid(),
	}
}

// Put inserts or replaces an entity, keeping the ascending id order
// every subsequent pass relies on.
func (w *World) Put(e *Entity) {
	if _, exists := w.entities[e.ID]; !exists {
		w.insertSorted(e.ID)
	}
	w.entities[e.ID] = e
}

func (w *World) insertSorted(id int32) {
	i := 0
	for i < len(w.order) && w.order[i] < id {
		i++
	}
	w.order = append(w.order, 0)
	copy(w.order[i+1:], w.order[i:])
	w.order[i] = id
}

// Remove deletes an entity by id.
func (w *World) Remove(id int32) {
	delete(w.entities, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Get looks up an entity by id.
func (w *World) Get(id int32) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Ordered returns entities in id-ascending order. The slice is owned
// by the caller; the World's own internal order slice is not exposed.
func (w *World) Ordered() []*Entity {
	out := make([]*Entity, len(w.order))
	for i, id := range w.order {
		out[i] = w.entities[id]
	}
	return out
}

// ApplyInput sets an entity's velocity from a flag set and a speed
// magnitude: each axis is the sum of its ± contributions, per
// spec.md §4.3.
func ApplyInput(e *Entity, flags uint8, speed fixedpoint.Value) {
	vx := fixedpoint.Zero
	vy := fixedpoint.Zero
	if flags&FlagMoveLeft != 0 {
		vx = vx.Sub(speed)
	}
	if flags&FlagMoveRight != 0 {
		vx = vx.Add(speed)
	}
	if flags&FlagMoveUp != 0 {
		vy = vy.Sub(speed)
	}
	if flags&FlagMoveDown != 0 {
		vy = vy.Add(speed)
	}
	e.VX = vx
	e.VY = vy
}

// Flag bits for PlayerInput.Flags, mirrored here so physics can
// interpret them without importing the input package (which instead
// imports entity-free wire concerns only; the dependency would be
// circular the other way).
const (
	FlagMoveUp    uint8 = 0x01
	FlagMoveDown  uint8 = 0x02
	FlagMoveLeft  uint8 = 0x04
	FlagMoveRight uint8 = 0x08
	FlagAttack    uint8 = 0x10
	FlagSkill1    uint8 = 0x20
	FlagSkill2    uint8 = 0x40
	FlagJump      uint8 = 0x80
)

// Update runs one physics tick: gravity, velocity clamp, position
// integration, world-bound clamp, friction, over entities in
// id-ascending order, then rebuilds the spatial grid and returns the
// tick's collision pairs.
func (w *World) Update(dtMs int32) []Pair {
	dt := fixedpoint.FromInt(dtMs)
	thousand := fixedpoint.FromInt(1000)

	for _, id := range w.order {
		e := w.entities[id]

		gDelta := mulDiv(Gravity, dt, thousand)
		e.VY = e.VY.Add(gDelta)

		e.VX = clampMagnitude(e.VX, MaxSpeed)
		e.VY = clampMagnitude(e.VY, MaxSpeed)

		e.X = e.X.Add(mulDiv(e.VX, dt, thousand))
		e.Y = e.Y.Add(mulDiv(e.VY, dt, thousand))

		e.X = e.X.Clamp(WorldMinX, WorldMaxX)
		e.Y = e.Y.Clamp(WorldMinY, WorldMaxY)

		e.VX = e.VX.Mul(FrictionQ1616)
		e.VY = e.VY.Mul(FrictionQ1616)
	}

	w.grid.Rebuild(w.Ordered())
	return w.grid.CollisionPairs(w.entities)
}

// mulDiv computes a*b/c using a single 64-bit intermediate so the
// three-operand formulas in spec.md §4.3 (e.g. vy + G*dt/1000) don't
// lose precision to an intermediate Value.Mul truncation.
func mulDiv(a, b, c fixedpoint.Value) fixedpoint.Value {
	prod := int64(a.Raw) * int64(b.Raw)
	scaled := prod / int64(c.Raw)
	return fixedpoint.FromRaw(int32(scaled))
}

func clampMagnitude(v, max fixedpoint.Value) fixedpoint.Value {
	if v.GreaterThan(max) {
		return max
	}
	neg := max.Neg()
	if v.LessThan(neg) {
		return neg
	}
	return v
}
