package device

import "github.com/jfdockes/upmpdcli-go/internal/upnp"

// debugSink receives a mirror of every published event for the
// human-browsable SSE feed; satisfied by upnp.DebugEventStream.
type debugSink interface {
	Publish(serviceID string, names, values []string)
}

// Hub implements eventbase.Notifier, fanning each service's event out
// to the real GENA transport and, in parallel, the debug SSE feed --
// wiring `eventsource` alongside the real eventing transport per
// SPEC_FULL.md's domain-stack table.
type Hub struct {
	transport upnp.Transport
	debug     debugSink
}

func NewHub(transport upnp.Transport, debug debugSink) *Hub {
	return &Hub{transport: transport, debug: debug}
}

func (h *Hub) NotifyEvent(serviceID string, names, values []string) {
	h.transport.Notify(serviceID, names, values)
	if h.debug != nil {
		h.debug.Publish(serviceID, names, values)
	}
}
