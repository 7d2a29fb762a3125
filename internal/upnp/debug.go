package upnp

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/antage/eventsource"
)

// DebugEventStream mirrors every service's emitted (name, value) pairs
// onto a human-browsable SSE feed, mounted at /debug/events -- useful
// when bringing up a renderer without a control point on hand. A
// direct descendant of the teacher's own debug event bus
// (src/api/api.go's htEvents).
type DebugEventStream struct {
	es eventsource.EventSource

	mu  sync.Mutex
	seq int
}

// NewDebugEventStream builds the feed and mounts it on r at path.
func NewDebugEventStream(mount func(path string, h http.Handler)) *DebugEventStream {
	conf := eventsource.DefaultSettings()
	es := eventsource.New(conf, func(r *http.Request) [][]byte {
		return [][]byte{[]byte("X-Accel-Buffering: no")}
	})
	d := &DebugEventStream{es: es}
	mount("/debug/events", es)
	return d
}

// Publish emits one service's changed variables onto the debug feed.
func (d *DebugEventStream) Publish(serviceID string, names, values []string) {
	d.mu.Lock()
	d.seq++
	id := d.seq
	d.mu.Unlock()

	var msg string
	for i, n := range names {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		msg += n + "=" + v + " "
	}
	d.es.SendEventMessage(fmt.Sprintf("%s: %s", serviceID, msg), "change", strconv.Itoa(id))
}

// Close stops the underlying event source's broadcast goroutine.
func (d *DebugEventStream) Close() { d.es.Close() }
