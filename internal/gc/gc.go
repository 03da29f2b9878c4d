// Package gc implements Saurus's tri-colour incremental mark-and-sweep
// collector: a bounded gray stack, a doubly-linked root list of every
// registered object, and an interrupt-bit trigger checked at the top of
// the interpreter's dispatch loop.
package gc

// Object is implemented by every heap-allocated kind that participates
// in collection: persistent-vector nodes, HAMT map nodes, sequence
// cells/iterators, local cells, closures, and interned strings.
// GCChildren returns the immediate gc-bearing children, matching the
// per-kind breakdown in the collector design (vector → root node +
// tail; vector node → each element; map → root; map nodes → their
// child arrays/leaves; leaf → key + value; local cell → stored value;
// sequence cell → first + rest; iterator → target object; function →
// constants + upvalues; prototypes are not gc objects).
type Object interface {
	GCChildren() []Object
}

type color uint8

const (
	white color = iota
	gray
	black
)

const (
	grayCapacity    = 512 // bounded gray-stack size, per original_source/src/vm/gc.c
	startCollectionAt = 256 // live-object threshold that begins a new cycle
)

type entry struct {
	obj   Object
	color color
	prev  *entry
	next  *entry
}

// Heap owns the root list of every live allocation and drives
// incremental collection. A Heap is single-threaded: it is owned by
// exactly one VM State, matching the concurrency model's single
// execution context.
type Heap struct {
	head  *entry // root list head (most recently allocated)
	tail  *entry
	live  int
	index map[Object]*entry

	gray      []*entry
	interrupt bool // set by every Register; cleared once a pulse runs

	threshold int // live-object count that begins a new cycle
}

// NewHeap constructs an empty heap.
func NewHeap() *Heap {
	return &Heap{index: make(map[Object]*entry), threshold: startCollectionAt}
}

// SetThreshold overrides the live-object count that begins a new
// collection cycle, the cmd/saurus -gc-threshold knob.
func (h *Heap) SetThreshold(n int) {
	if n > 0 {
		h.threshold = n
	}
}

// Register links a freshly allocated object into the root list. Only
// objects passed to Register are tracked and swept; the interpreter,
// the container package and the string table do not call it for their
// own allocations, so those objects are not tracked by this collector.
func (h *Heap) Register(obj Object) {
	e := &entry{obj: obj, color: white}
	if h.head == nil {
		h.head = e
		h.tail = e
	} else {
		e.next = h.head
		h.head.prev = e
		h.head = e
	}
	h.index[obj] = e
	h.live++
	h.interrupt = true
}

// LiveCount returns the number of objects currently linked into the
// root list (allocated and not yet swept).
func (h *Heap) LiveCount() int { return h.live }

// RootSource supplies the collector's root set: every live operand
// stack slot, the globals map, and the string table. The VM and
// stdlib packages provide this at collection time; gc itself has no
// notion of stack frames or globals.
type RootSource interface {
	GCRoots() []Object
}

// Pulse performs one unit of incremental work: if the gray stack holds
// pending entries, scan one; otherwise, if live count exceeds the
// threshold, begin a new cycle by graying the roots. This is called
// once per instruction-dispatch-loop iteration when the interrupt bit
// is set, per the collector's triggering rule.
func (h *Heap) Pulse(roots RootSource) {
	if !h.interrupt {
		return
	}
	h.interrupt = false

	if len(h.gray) > 0 {
		h.scanOne()
		return
	}
	if h.live > h.threshold {
		h.beginCycle(roots)
	}
}

// beginCycle clears the gray stack and grays every root.
func (h *Heap) beginCycle(roots RootSource) {
	h.gray = h.gray[:0]
	for _, o := range roots.GCRoots() {
		h.grayObject(o)
	}
}

func (h *Heap) grayObject(o Object) {
	if o == nil {
		return
	}
	e, ok := h.index[o]
	if !ok || e.color != white {
		return
	}
	e.color = gray
	if len(h.gray) < grayCapacity {
		h.gray = append(h.gray, e)
	}
}

// scanOne pops one gray entry, blackens it, and grays its white
// children.
func (h *Heap) scanOne() {
	n := len(h.gray)
	e := h.gray[n-1]
	h.gray = h.gray[:n-1]
	if e.color == black {
		return
	}
	e.color = black
	for _, child := range e.obj.GCChildren() {
		h.grayObject(child)
	}
}

// Full drains all pending incremental work, then runs one complete
// cycle to quiescence: gray the roots, scan until the gray stack is
// empty, then sweep every still-white object and repaint survivors
// white for the next cycle. This implements gc_full.
func (h *Heap) Full(roots RootSource) {
	for len(h.gray) > 0 {
		h.scanOne()
	}
	h.beginCycle(roots)
	for len(h.gray) > 0 {
		h.scanOne()
	}
	h.sweep()
	h.interrupt = false
}

// sweep frees every still-white object and repaints survivors white.
func (h *Heap) sweep() {
	e := h.head
	for e != nil {
		next := e.next
		if e.color == white {
			h.unlink(e)
		} else {
			e.color = white
		}
		e = next
	}
}

func (h *Heap) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		h.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		h.tail = e.prev
	}
	delete(h.index, e.obj)
	h.live--
}

// Reachable reports whether obj is still linked into the root list
// (i.e. has not been swept). Used by tests to assert GC liveness.
func (h *Heap) Reachable(obj Object) bool {
	_, ok := h.index[obj]
	return ok
}
