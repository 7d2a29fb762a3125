package upnp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// subscriber is one GENA SUBSCRIBE registration for a service.
type subscriber struct {
	sid      string
	callback string
	seq      int
	expires  time.Time
}

// Server is the concrete Transport implementation: chi-routed SOAP
// control/description endpoints plus a minimal GENA eventing
// publisher, backed by an SSDP advertiser.
type Server struct {
	router  chi.Router
	ssdp    *ssdpAdvertiser
	baseURL string

	mu       sync.Mutex
	devices  []DeviceDesc
	services map[string]ServiceDesc // by serviceID
	subs     map[string][]*subscriber
}

// NewServer builds a transport whose description/control/eventing URLs
// are rooted at baseURL (e.g. "http://192.168.1.5:49152").
func NewServer(baseURL string) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		services: map[string]ServiceDesc{},
		subs:     map[string][]*subscriber{},
	}
	s.router.Get("/description.xml", s.serveDeviceDescription)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Mux exposes the underlying router so callers (internal/device) can
// mount auxiliary handlers, e.g. the debug SSE feed.
func (s *Server) Mux() chi.Router { return s.router }

// Advertise starts SSDP announcement for every device registered so
// far, using baseURL+"/description.xml" as the advertised location.
func (s *Server) Advertise(httpPort int) error {
	s.mu.Lock()
	devs := append([]DeviceDesc(nil), s.devices...)
	s.mu.Unlock()

	s.ssdp = newSSDPAdvertiser()
	return s.ssdp.start(devs, s.baseURL+"/description.xml")
}

// Shutdown sends SSDP byebye and releases the advertiser sockets.
func (s *Server) Shutdown() {
	if s.ssdp != nil {
		s.ssdp.stop()
	}
}

// RegisterService mounts dev's per-service SCPD, control and eventing
// endpoints, named by service ID so each is stable across restarts.
func (s *Server) RegisterService(dev DeviceDesc) error {
	s.mu.Lock()
	s.devices = append(s.devices, dev)
	for _, svc := range dev.Services {
		s.services[svc.ID] = svc
	}
	s.mu.Unlock()

	for _, svc := range dev.Services {
		svc := svc
		base := servicePathBase(svc.ID)
		s.router.Get(base+"/scpd.xml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/xml; charset=utf-8")
			w.Write(svc.SCPD)
		})
		s.router.Post(base+"/control", func(w http.ResponseWriter, r *http.Request) {
			s.serveControl(svc, w, r)
		})
		s.router.MethodFunc("SUBSCRIBE", base+"/event", func(w http.ResponseWriter, r *http.Request) {
			s.serveSubscribe(svc.ID, w, r)
		})
		s.router.MethodFunc("UNSUBSCRIBE", base+"/event", func(w http.ResponseWriter, r *http.Request) {
			s.serveUnsubscribe(svc.ID, w, r)
		})
	}
	return nil
}

func servicePathBase(serviceID string) string {
	parts := strings.Split(serviceID, ":")
	name := parts[len(parts)-1]
	return "/" + strings.ToLower(name)
}

func (s *Server) serveDeviceDescription(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	devs := append([]DeviceDesc(nil), s.devices...)
	s.mu.Unlock()

	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<root xmlns="urn:schemas-upnp-org:device-1-0"><specVersion><major>1</major><minor>0</minor></specVersion>`)
	for _, d := range devs {
		fmt.Fprintf(&b, `<device><deviceType>%s</deviceType><friendlyName>%s</friendlyName>`+
			`<manufacturer>%s</manufacturer><modelName>%s</modelName><UDN>%s</UDN><serviceList>`,
			xesc(d.DeviceType), xesc(d.FriendlyName), xesc(d.Manufacturer), xesc(d.ModelName), xesc(d.UDN))
		for _, svc := range d.Services {
			base := servicePathBase(svc.ID)
			fmt.Fprintf(&b, `<service><serviceType>%s</serviceType><serviceId>%s</serviceId>`+
				`<SCPDURL>%s</SCPDURL><controlURL>%s</controlURL><eventSubURL>%s</eventSubURL></service>`,
				xesc(svc.Type), xesc(svc.ID), base+"/scpd.xml", base+"/control", base+"/event")
		}
		b.WriteString(`</serviceList></device>`)
	}
	b.WriteString(`</root>`)

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	io.WriteString(w, b.String())
}

// soapBody decodes the immediate string-valued children of the first
// element nested two levels inside a SOAP envelope (Envelope/Body/
// Action), into a flat name->value map. Actions here never nest
// structured arguments, so this token walk is sufficient without a
// generic reflective unmarshal.
func soapBody(body []byte) (action string, args map[string]string, err error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	args = map[string]string{}
	depth := 0
	var curArg string
	var curVal strings.Builder
	for {
		tok, terr := dec.Token()
		if terr == io.EOF {
			break
		}
		if terr != nil {
			return "", nil, terr
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 3 {
				action = t.Name.Local
			} else if depth == 4 {
				curArg = t.Name.Local
				curVal.Reset()
			}
		case xml.CharData:
			if depth == 4 {
				curVal.Write(t)
			}
		case xml.EndElement:
			if depth == 4 {
				args[curArg] = curVal.String()
			}
			depth--
		}
	}
	if action == "" {
		return "", nil, fmt.Errorf("upnp: could not locate action element in SOAP body")
	}
	return action, args, nil
}

func (s *Server) serveControl(svc ServiceDesc, w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	action, args, err := soapBody(body)
	if err != nil {
		log.Errorf("upnp: %s: %v", svc.ID, err)
		writeSoapFault(w, 402, "Invalid Args")
		return
	}
	fn, ok := svc.Actions[action]
	if !ok {
		writeSoapFault(w, 401, "Invalid Action")
		return
	}
	out, err := fn(args)
	if err != nil {
		log.Errorf("upnp: %s.%s failed: %v", svc.ID, action, err)
		writeSoapFault(w, 501, "Action Failed")
		return
	}
	writeSoapResponse(w, svc.Type, action, out)
}

func writeSoapResponse(w http.ResponseWriter, serviceType, action string, out map[string]string) {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body>`)
	fmt.Fprintf(&b, `<u:%sResponse xmlns:u="%s">`, action, xesc(serviceType))
	for k, v := range out {
		fmt.Fprintf(&b, `<%s>%s</%s>`, k, xesc(v), k)
	}
	fmt.Fprintf(&b, `</u:%sResponse>`, action)
	b.WriteString(`</s:Body></s:Envelope>`)
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	io.WriteString(w, b.String())
}

func writeSoapFault(w http.ResponseWriter, code int, desc string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault><faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring><detail><UPnPError xmlns="urn:schemas-upnp-org:control-1-0"><errorCode>%d</errorCode><errorDescription>%s</errorDescription></UPnPError></detail></s:Fault></s:Body></s:Envelope>`, code, xesc(desc))
}

func xesc(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// serveSubscribe implements GENA SUBSCRIBE: a fresh subscription gets
// a SID and the current state of every variable (sent as the first
// NOTIFY), matching UPnP eventing's "subscribe implies an initial
// event" rule.
func (s *Server) serveSubscribe(serviceID string, w http.ResponseWriter, r *http.Request) {
	callback := strings.Trim(r.Header.Get("Callback"), "<>")
	if callback == "" {
		http.Error(w, "missing Callback", http.StatusPreconditionFailed)
		return
	}
	sub := &subscriber{
		sid:      "uuid:" + uuid.New().String(),
		callback: callback,
		expires:  time.Now().Add(5 * time.Minute),
	}
	s.mu.Lock()
	s.subs[serviceID] = append(s.subs[serviceID], sub)
	s.mu.Unlock()

	w.Header().Set("SID", sub.sid)
	w.Header().Set("TIMEOUT", "Second-300")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) serveUnsubscribe(serviceID string, w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get("SID")
	s.mu.Lock()
	list := s.subs[serviceID]
	kept := list[:0]
	for _, sub := range list {
		if sub.sid != sid {
			kept = append(kept, sub)
		}
	}
	s.subs[serviceID] = kept
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

// Notify sends a GENA NOTIFY to every live subscriber of serviceID
// with a LastChange-equivalent propertyset body.
func (s *Server) Notify(serviceID string, names, values []string) {
	s.mu.Lock()
	subs := append([]*subscriber(nil), s.subs[serviceID]...)
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">`)
	for i, n := range names {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		fmt.Fprintf(&b, `<e:property><%s>%s</%s></e:property>`, n, xesc(v), n)
	}
	b.WriteString(`</e:propertyset>`)
	payload := b.String()

	for _, sub := range subs {
		sub := sub
		go func() {
			req, err := http.NewRequest("NOTIFY", sub.callback, strings.NewReader(payload))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "text/xml; charset=utf-8")
			req.Header.Set("NT", "upnp:event")
			req.Header.Set("NTS", "upnp:propchange")
			req.Header.Set("SID", sub.sid)
			req.Header.Set("SEQ", strconv.Itoa(sub.seq))
			sub.seq++
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				log.Debugf("upnp: NOTIFY to %s failed: %v", sub.callback, err)
				return
			}
			resp.Body.Close()
		}()
	}
}
