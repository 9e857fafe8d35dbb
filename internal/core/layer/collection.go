package layer

import "github.com/mohammed-shakir/geomap-sync/internal/event"

// Collection is an ordered set of layers; order is render (z) order.
// It is not safe for concurrent use.
type Collection struct {
	layers  []Layer
	added   event.Emitter[Layer]
	removed event.Emitter[Layer]
}

func NewCollection() *Collection {
	return &Collection{}
}

// Add appends l and emits added. Adding nil or a layer already present is a
// no-op and reports false.
func (c *Collection) Add(l Layer) bool {
	if l == nil || c.Index(l) >= 0 {
		return false
	}
	c.layers = append(c.layers, l)
	c.added.Emit(l)
	return true
}

// Remove drops l and emits removed.
func (c *Collection) Remove(l Layer) bool {
	i := c.Index(l)
	if i < 0 {
		return false
	}
	c.layers = append(c.layers[:i:i], c.layers[i+1:]...)
	c.removed.Emit(l)
	return true
}

func (c *Collection) Index(l Layer) int {
	for i, x := range c.layers {
		if x == l {
			return i
		}
	}
	return -1
}

func (c *Collection) Len() int { return len(c.layers) }

func (c *Collection) At(i int) (Layer, bool) {
	if i < 0 || i >= len(c.layers) {
		return nil, false
	}
	return c.layers[i], true
}

// Each visits layers in order on a snapshot, so fn may mutate the collection.
func (c *Collection) Each(fn func(i int, l Layer)) {
	snapshot := append([]Layer(nil), c.layers...)
	for i, l := range snapshot {
		fn(i, l)
	}
}

func (c *Collection) OnAdded(fn func(Layer)) (unsubscribe func()) {
	return c.added.Subscribe(fn)
}

func (c *Collection) OnRemoved(fn func(Layer)) (unsubscribe func()) {
	return c.removed.Subscribe(fn)
}
