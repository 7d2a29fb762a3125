package device

import (
	"sync"
	"sync/atomic"

	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

// Context is the explicit "global mutable state" spec §9 calls for:
// the live MPD facade pointer every service was built against,
// swapped in place by internal/songcast when a secondary MPD takes
// over, plus the small cross-service flags that would otherwise force
// a reference cycle between services.
type Context struct {
	mu     sync.RWMutex
	facade *mpdfacade.Facade

	radioActive int32 // atomic bool
}

// NewContext wraps the primary facade.
func NewContext(f *mpdfacade.Facade) *Context {
	return &Context{facade: f}
}

// Facade implements songcast.FacadeHolder.
func (c *Context) Facade() *mpdfacade.Facade {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.facade
}

// SetFacade implements songcast.FacadeHolder: swaps the live facade,
// e.g. onto a songcast secondary, or back onto the primary on demotion.
func (c *Context) SetFacade(f *mpdfacade.Facade) {
	c.mu.Lock()
	c.facade = f
	c.mu.Unlock()
}

// SetRadioActive implements radio.TransportFlag.
func (c *Context) SetRadioActive(on bool) {
	var v int32
	if on {
		v = 1
	}
	atomic.StoreInt32(&c.radioActive, v)
}

// RadioActive implements Registry.RadioActive, transport-compat's
// sibling-accessor need from spec §9's "Cyclic references" resolution.
func (c *Context) RadioActive() bool {
	return atomic.LoadInt32(&c.radioActive) != 0
}

// URILookup is implemented by the playlist service: a URI->DIDL
// metadata lookup transport-compat falls back to when a control point
// queues a track directly without going through Playlist.
type URILookup interface {
	URIMeta(uri string) (string, bool)
}

// Registry adapts a Context plus the playlist service into the small
// sibling-accessor surface transport.Registry needs.
type Registry struct {
	ctx      *Context
	playlist URILookup
}

// NewRegistry builds the Registry. playlist may be nil if no playlist
// source is configured, in which case PlaylistURIMeta always misses.
func NewRegistry(ctx *Context, playlist URILookup) *Registry {
	return &Registry{ctx: ctx, playlist: playlist}
}

func (r *Registry) RadioActive() bool { return r.ctx.RadioActive() }

func (r *Registry) PlaylistURIMeta(uri string) (string, bool) {
	if r.playlist == nil {
		return "", false
	}
	return r.playlist.URIMeta(uri)
}
