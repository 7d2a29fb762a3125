// Package eventbase implements the shared state-diff/notify machinery
// every OpenHome service embeds: each service renders its current
// state variables into a map, the base diffs it against the last
// published snapshot, and only the variables that changed are handed
// to the device's event notifier.
package eventbase

import (
	"sync"

	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// StateFunc renders a service's present state as a name->value map.
// Implemented by each concrete service; called with the service's
// current MPD status snapshot.
type StateFunc func(st *model.Status) map[string]string

// Notifier is the device-level sink for a batch of changed state
// variables, implemented by internal/device.
type Notifier interface {
	NotifyEvent(serviceID string, names, values []string)
}

// Base is embedded by every OpenHome service implementation. It owns
// the variable-order declaration, the last-published snapshot and the
// diff/notify bookkeeping; the service itself only supplies MakeState.
type Base struct {
	ServiceID string
	TypeName  string // e.g. "Volume", "Playlist" -- servtp's second-to-last ":"-token
	MakeState StateFunc

	mu    sync.Mutex
	state map[string]string
	// order is the declared emission order for this service's
	// variables, fixed at construction so LastChange-style event
	// bodies are byte-stable across runs instead of following Go's
	// randomized map iteration.
	order []string
}

// New builds a Base for a service, given its declared variable order
// (the full set the service will ever emit, in wire order).
func New(serviceID, typeName string, order []string, fn StateFunc) *Base {
	return &Base{
		ServiceID: serviceID,
		TypeName:  typeName,
		MakeState: fn,
		state:     map[string]string{},
		order:     order,
	}
}

// GetEventData recomputes the service's state and returns the changed
// variables (or, if all is true, every declared variable) in the
// service's declared order. It also updates the stored snapshot.
func (b *Base) GetEventData(all bool, st *model.Status) (names, values []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.MakeState(st)
	var changed map[string]string
	if all {
		changed = next
	} else {
		changed = diffMaps(b.state, next)
	}
	b.state = next

	for _, nm := range b.order {
		if v, ok := changed[nm]; ok {
			names = append(names, nm)
			values = append(values, v)
		}
	}
	// A variable not in the declared order still gets emitted, just
	// after the fixed-order set, so unexpected services don't lose data.
	for nm, v := range changed {
		if !contains(b.order, nm) {
			names = append(names, nm)
			values = append(values, v)
		}
	}
	return names, values
}

// OnEvent is the MPD-facade subscription callback: it recomputes
// state, and if anything changed, pushes the diff to the notifier.
func (b *Base) OnEvent(n Notifier, st *model.Status) {
	names, values := b.GetEventData(false, st)
	if len(names) > 0 {
		n.NotifyEvent(b.ServiceID, names, values)
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// diffMaps returns the entries of next that are absent from, or have
// a different value than, prev.
func diffMaps(prev, next map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range next {
		if pv, ok := prev[k]; !ok || pv != v {
			out[k] = v
		}
	}
	return out
}

// TransportState maps an MPD play state to the OpenHome/AVTransport
// transport-state string vocabulary.
func TransportState(st model.PlayState) string {
	switch st {
	case model.StatePlaying:
		return "Playing"
	case model.StatePaused:
		return "Paused"
	default:
		return "Stopped"
	}
}
