// Package upnp implements the UPnP/OpenHome transport: device and
// service description serving, SOAP action dispatch, GENA-style
// eventing, and SSDP discovery/advertisement. Per spec §6, only the
// service identifiers and the fact that events are name->value pairs
// are load-bearing; the wire-level SOAP/GENA detail here is this
// repo's own minimal, sufficient implementation rather than a
// faithful reproduction of libupnpp, which spec §1 puts out of scope.
package upnp

import "net/http"

// ActionFunc handles one SOAP action invocation: args carries the
// decoded <ArgName>value</ArgName> children of the action's SOAP body,
// keyed by argument name; the returned map becomes the response body's
// out-arguments. A non-nil error maps to a SOAP fault (device.Status
// informs the numeric code via FromError).
type ActionFunc func(args map[string]string) (map[string]string, error)

// ServiceDesc is everything Transport needs to expose one UPnP/OpenHome
// service: its identity, SCPD document, and the action dispatch table.
type ServiceDesc struct {
	ID      string // e.g. "urn:av-openhome-org:serviceId:Playlist"
	Type    string // e.g. "urn:av-openhome-org:service:Playlist:1"
	SCPD    []byte
	Actions map[string]ActionFunc
}

// DeviceDesc describes one advertised root device (the renderer
// advertises two: a upnpav-compat identity and an OpenHome identity,
// per spec §3).
type DeviceDesc struct {
	UDN          string
	DeviceType   string
	FriendlyName string
	Manufacturer string
	ModelName    string
	Services     []ServiceDesc
}

// Transport is the narrow interface internal/device depends on,
// keeping the core free of any direct net/http or SSDP dependency.
type Transport interface {
	// RegisterService mounts dev's SOAP control, SCPD and eventing
	// endpoints under the transport's HTTP mux.
	RegisterService(dev DeviceDesc) error
	// Notify publishes a LastChange-style event for one service: names
	// and values are parallel arrays of changed state variables.
	Notify(serviceID string, names, values []string)
	// Advertise starts SSDP announcement for every registered device.
	Advertise(httpPort int) error
	// Shutdown sends SSDP byebye and stops advertising.
	Shutdown()
	// Handler returns the assembled HTTP mux (description, control,
	// eventing, and the debug SSE feed).
	Handler() http.Handler
}
