package headless

import (
	"fmt"

	"github.com/mohammed-shakir/geomap-sync/internal/core/mapview"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
)

type TileHandle struct {
	url     string
	Options mapview.TileOptions
}

func (h *TileHandle) URLTemplate() string { return h.url }

// InteractiveHandle is a tile handle that also receives feature hooks.
type InteractiveHandle struct {
	TileHandle
	TileJSON tiler.TileJSON
	hooks    map[string]mapview.InteractionHandler
}

func (h *InteractiveHandle) On(hook string, fn mapview.InteractionHandler) {
	if h.hooks == nil {
		h.hooks = make(map[string]mapview.InteractionHandler)
	}
	h.hooks[hook] = fn
}

// Fire delivers in to the handler registered for hook, as the engine does
// when the pointer enters or leaves a feature.
func (h *InteractiveHandle) Fire(hook string, in mapview.Interaction) error {
	fn, ok := h.hooks[hook]
	if !ok {
		return fmt.Errorf("headless: no handler for hook %q", hook)
	}
	return fn(in)
}
