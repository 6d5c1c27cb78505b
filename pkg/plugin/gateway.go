package plugin

import (
	"sync"

	"github.com/google/uuid"

	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/plog"
)

type slotState struct {
	cfg    SlotConfig
	plugin Plugin
	loaded bool
}

// Gateway owns the eight plugin slots and resolves a slot's Plugin on
// demand.
type Gateway struct {
	mu    sync.Mutex
	slots map[Slot]*slotState
}

// NewGateway builds a Gateway from the parsed config rows, resolving and
// initializing every at-init slot immediately. defaultPlugin, when
// provided, is installed into SlotDefault regardless of the config file —
// the default slot supplies the ordinary KV backend's symbols and is
// never subject to dynamic resolution.
func NewGateway(rows []SlotConfig, defaultPlugin Plugin) *Gateway {
	g := &Gateway{slots: make(map[Slot]*slotState)}

	if defaultPlugin != nil {
		g.slots[SlotDefault] = &slotState{
			cfg:    SlotConfig{Slot: SlotDefault, LoadPolicy: LoadAtInit, InitKind: InitSync},
			plugin: defaultPlugin,
			loaded: true,
		}
	}

	for _, row := range rows {
		if row.Slot == SlotDefault {
			continue // default is reserved for the KV-backed adapter above
		}
		g.slots[row.Slot] = &slotState{cfg: row}
	}

	for slot, st := range g.slots {
		if slot == SlotDefault || st.cfg.LoadPolicy != LoadAtInit {
			continue
		}
		if err := g.resolveAndInit(st); err != nil {
			plog.WithComponent("plugin").Warn().Str("slot", string(slot)).Err(err).
				Msg("plugin failed to load at init; calls to this slot will return no-plugin-function")
		}
	}
	return g
}

func (g *Gateway) resolveAndInit(st *slotState) error {
	factory, ok := lookupFactory(st.cfg.LibraryName)
	if !ok {
		return pclerror.New(pclerror.CodeNoPluginFunction)
	}
	p := factory()

	var initErr error
	if st.cfg.InitKind == InitAsync {
		token := uuid.New().String()
		initErr = p.InitAsync(func(status int) {
			plog.WithComponent("plugin").Info().Str("slot", string(st.cfg.Slot)).Str("token", token).Int("status", status).
				Msg("plugin async init completed")
		})
	} else {
		initErr = p.Init(nil)
	}
	if initErr != nil {
		return initErr
	}
	st.plugin = p
	st.loaded = true
	return nil
}

// Capability resolves slot to a live Plugin, loading on-demand slots on
// first use. Returns no-plugin-function for an absent or unresolvable slot.
func (g *Gateway) Capability(slot Slot) (Plugin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.slots[slot]
	if !ok {
		return nil, pclerror.New(pclerror.CodeNoPluginFunction)
	}
	if st.loaded {
		return st.plugin, nil
	}
	if err := g.resolveAndInit(st); err != nil {
		return nil, err
	}
	return st.plugin, nil
}

// LoadedSlots reports how many of the gateway's slots are currently
// resolved and initialized, for metrics collection.
func (g *Gateway) LoadedSlots() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, st := range g.slots {
		if st.loaded {
			n++
		}
	}
	return n
}

// Deinit calls Deinit on every loaded plugin and empties every slot.
func (g *Gateway) Deinit() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for slot, st := range g.slots {
		if st.loaded && st.plugin != nil {
			if err := st.plugin.Deinit(); err != nil {
				plog.WithComponent("plugin").Warn().Str("slot", string(slot)).Err(err).Msg("plugin deinit failed")
			}
		}
	}
	g.slots = make(map[Slot]*slotState)
	return nil
}
