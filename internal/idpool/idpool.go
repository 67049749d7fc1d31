// Package idpool implements a sparse, id-addressable container with
// free-slot reuse, used to store vehicles, links and stop-lines behind
// stable integer ids.
package idpool

// Pool is a sparse array of T, addressed by a stable uint32 id. Removed slots
// are tracked on a LIFO free-slot stack and reused by InsertFree.
type Pool[T any] struct {
	slots     []slot[T]
	freeSlots []uint32
}

type slot[T any] struct {
	value    T
	occupied bool
}

// New returns an empty pool.
func New[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Insert places v at position id, extending the backing array as needed.
// Any newly created slots below id that aren't id itself are pushed onto the
// free-slot stack.
func (p *Pool[T]) Insert(id uint32, v T) {
	if int(id) < len(p.slots) {
		p.removeFromFreeList(id)
	} else {
		for i := uint32(len(p.slots)); i < id; i++ {
			p.freeSlots = append(p.freeSlots, i)
		}
		grown := make([]slot[T], id+1)
		copy(grown, p.slots)
		p.slots = grown
	}
	p.slots[id] = slot[T]{value: v, occupied: true}
}

func (p *Pool[T]) removeFromFreeList(id uint32) {
	for i, f := range p.freeSlots {
		if f == id {
			last := len(p.freeSlots) - 1
			p.freeSlots[i] = p.freeSlots[last]
			p.freeSlots = p.freeSlots[:last]
			return
		}
	}
}

// InsertFree reuses the most recently freed slot (LIFO), or appends a new
// slot if none is free, and returns the id it was placed at.
func (p *Pool[T]) InsertFree(v T) uint32 {
	if len(p.freeSlots) == 0 {
		id := uint32(len(p.slots))
		p.slots = append(p.slots, slot[T]{value: v, occupied: true})
		return id
	}
	last := len(p.freeSlots) - 1
	id := p.freeSlots[last]
	p.freeSlots = p.freeSlots[:last]
	p.slots[id] = slot[T]{value: v, occupied: true}
	return id
}

// Remove empties the slot at id and returns it to the free-slot stack. It is
// a no-op if id is out of range or already empty.
func (p *Pool[T]) Remove(id uint32) {
	if int(id) >= len(p.slots) || !p.slots[id].occupied {
		return
	}
	var zero T
	p.slots[id] = slot[T]{value: zero, occupied: false}
	p.freeSlots = append(p.freeSlots, id)
}

// Get returns the element at id, and whether it is occupied.
func (p *Pool[T]) Get(id uint32) (*T, bool) {
	if int(id) >= len(p.slots) || !p.slots[id].occupied {
		return nil, false
	}
	return &p.slots[id].value, true
}

// MustGet returns the element at id, panicking if absent. Used at call sites
// the caller has already established hold a valid id (e.g. route hops
// recorded by the simulation itself).
func (p *Pool[T]) MustGet(id uint32) *T {
	v, ok := p.Get(id)
	if !ok {
		panic("idpool: id not found")
	}
	return v
}

// Len returns the size of the backing array, including empty slots.
func (p *Pool[T]) Len() int {
	return len(p.slots)
}

// Iter calls fn for every occupied slot, in ascending id order. fn may mutate
// the referenced value but must not insert or remove slots.
func (p *Pool[T]) Iter(fn func(id uint32, v *T)) {
	for i := range p.slots {
		if p.slots[i].occupied {
			fn(uint32(i), &p.slots[i].value)
		}
	}
}

// RemoveWhere drains all slots for which pred returns true, returning them to
// the free-slot stack.
func (p *Pool[T]) RemoveWhere(pred func(v *T) bool) {
	for i := range p.slots {
		if p.slots[i].occupied && pred(&p.slots[i].value) {
			p.Remove(uint32(i))
		}
	}
}
