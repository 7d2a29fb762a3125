// Package product implements the OpenHome Product service: the
// source multiplexer that advertises the renderer's available inputs
// (playlist, optional radio, optional songcast receiver/sender
// pairings, externally-scripted sources) and switches which one is
// "active", persisting the selection across restarts.
package product

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/helper"
	"github.com/jfdockes/upmpdcli-go/internal/model"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

var declaredOrder = []string{"SourceXml", "SourceIndex", "SourceXmlChangeCount"}

// Activatable is implemented by every multiplexed source service:
// setActive(false) freezes/saves its upnp-visible state; setActive
// (true) restores it. Satisfied by playlist.Service, radio.Service,
// and the songcast receiver shim.
type Activatable interface {
	SetActive(on bool) bool
}

// SongcastController starts/stops the sender/receiver helper pairing
// associated with a songcast-backed source, implemented by
// internal/songcast.
type SongcastController interface {
	StartFor(sourceName string) bool
	Stop() bool
}

// Source is one advertised input.
type Source struct {
	Name       string // display name, e.g. "Playlist", "Radio", "Songcast"
	Type       string // OpenHome source type: Playlist, Receiver, Radio, ...
	SystemName string // stable machine name used by SetSourceBySystemName
	Visible    bool

	Service  Activatable
	Songcast SongcastController // non-nil for songcast-backed sources
}

// StateStore persists and recalls the selected source name across
// restarts (the "upmstate" resume-hint file of spec §6).
type StateStore interface {
	Get(name, section string) (string, bool)
	Set(name, value, section string) bool
}

// Config carries the device-description and standby-helper knobs.
type Config struct {
	Manufacturer, ManufacturerInfo, ManufacturerURL, ManufacturerImageURI string
	ModelName, ModelInfo, ModelURL, ModelImageURI                        string
	ProductName, ProductInfo, ProductURL, ProductImageURI, ProductRoom   string
	OnStandby                                                            string
}

// Service is the OpenHome Product implementation.
type Service struct {
	*eventbase.Base
	facade   *mpdfacade.Facade
	notifier eventbase.Notifier
	cfg      Config
	state    StateStore

	mu            sync.Mutex
	sources       []Source
	currentIndex  int
	standby       bool
	xmlChangeCount int
}

// New builds the service from a pre-assembled source list (playlist
// first per spec §4.10) and restores the persisted selection if one
// is recorded.
func New(serviceID string, facade *mpdfacade.Facade, notifier eventbase.Notifier, cfg Config, state StateStore, sources []Source) *Service {
	s := &Service{facade: facade, notifier: notifier, cfg: cfg, state: state, sources: sources}
	s.Base = eventbase.New(serviceID, "Product", declaredOrder, s.makeState)

	idx := 0
	if state != nil {
		if name, ok := state.Get("lastsource", ""); ok {
			for i, src := range sources {
				if src.SystemName == name {
					idx = i
					break
				}
			}
		}
	}
	s.currentIndex = idx
	if idx < len(sources) && sources[idx].Service != nil {
		sources[idx].Service.SetActive(true)
	}
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]string{
		"SourceXml":            s.sourceXMLLocked(),
		"SourceIndex":          fmt.Sprintf("%d", s.currentIndex),
		"SourceXmlChangeCount": fmt.Sprintf("%d", s.xmlChangeCount),
	}
}

func (s *Service) sourceXMLLocked() string {
	var b strings.Builder
	b.WriteString("<SourceList>")
	for _, src := range s.sources {
		fmt.Fprintf(&b, `<Source><Name>%s</Name><Type>%s</Type><Visible>%t</Visible></Source>`,
			xesc(src.Name), xesc(src.Type), src.Visible)
	}
	b.WriteString("</SourceList>")
	return b.String()
}

func xesc(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// Manufacturer/Model/Product implement the corresponding constant-
// field actions.
func (s *Service) Manufacturer() (name, info, url, imageURI string) {
	return s.cfg.Manufacturer, s.cfg.ManufacturerInfo, s.cfg.ManufacturerURL, s.cfg.ManufacturerImageURI
}
func (s *Service) Model() (name, info, url, imageURI string) {
	return s.cfg.ModelName, s.cfg.ModelInfo, s.cfg.ModelURL, s.cfg.ModelImageURI
}
func (s *Service) Product() (name, info, url, imageURI, room string) {
	return s.cfg.ProductName, s.cfg.ProductInfo, s.cfg.ProductURL, s.cfg.ProductImageURI, s.cfg.ProductRoom
}

// Standby implements Product.Standby / Product.SetStandby.
func (s *Service) Standby() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standby
}

func (s *Service) SetStandby(on bool) bool {
	s.mu.Lock()
	s.standby = on
	s.mu.Unlock()
	if s.cfg.OnStandby != "" {
		arg := "0"
		if on {
			arg = "1"
		}
		go runHook(s.cfg.OnStandby + " " + arg)
	}
	return true
}

// SourceCount implements Product.SourceCount.
func (s *Service) SourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

// SourceXml implements Product.SourceXml.
func (s *Service) SourceXml() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceXMLLocked()
}

// SourceIndex implements Product.SourceIndex.
func (s *Service) SourceIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// Attributes implements Product.Attributes: a fixed capability list.
func (s *Service) Attributes() string {
	return "Info Time Volume Playlist Credentials"
}

// SourceXmlChangeCount implements Product.SourceXmlChangeCount.
func (s *Service) SourceXmlChangeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.xmlChangeCount
}

// Source implements Product.Source: name/type/systemName for index i.
func (s *Service) Source(i int) (systemName, srcType, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.sources) {
		return "", "", "", false
	}
	src := s.sources[i]
	return src.SystemName, src.Type, src.Name, true
}

// SetSourceIndex implements Product.SetSourceIndex, switching the
// active source per spec §4.10: deactivate outgoing (stopping any
// associated songcast helper), activate incoming (starting its
// songcast helper if applicable), persist the selection.
func (s *Service) SetSourceIndex(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.sources) || i == s.currentIndex {
		s.mu.Unlock()
		return i >= 0 && i < len(s.sources)
	}
	outgoing := s.sources[s.currentIndex]
	incoming := s.sources[i]
	s.currentIndex = i
	s.mu.Unlock()

	if outgoing.Service != nil {
		outgoing.Service.SetActive(false)
	}
	if outgoing.Songcast != nil {
		outgoing.Songcast.Stop()
	}
	if incoming.Service != nil {
		if !incoming.Service.SetActive(true) {
			log.Errorf("product: activating source %q failed", incoming.Name)
		}
	}
	if incoming.Songcast != nil {
		incoming.Songcast.StartFor(incoming.SystemName)
	}
	if s.state != nil {
		s.state.Set("lastsource", incoming.SystemName, "")
	}
	s.mu.Lock()
	s.xmlChangeCount++
	s.mu.Unlock()
	if s.notifier != nil {
		s.OnEvent(s.notifier, &model.Status{})
	}
	return true
}

// SetSourceIndexByName implements Product.SetSourceIndexByName.
func (s *Service) SetSourceIndexByName(name string) bool {
	s.mu.Lock()
	idx := -1
	for i, src := range s.sources {
		if src.Name == name {
			idx = i
			break
		}
	}
	s.mu.Unlock()
	if idx < 0 {
		return false
	}
	return s.SetSourceIndex(idx)
}

// SetSourceBySystemName implements Product.SetSourceBySystemName.
func (s *Service) SetSourceBySystemName(name string) bool {
	s.mu.Lock()
	idx := -1
	for i, src := range s.sources {
		if src.SystemName == name {
			idx = i
			break
		}
	}
	s.mu.Unlock()
	if idx < 0 {
		return false
	}
	return s.SetSourceIndex(idx)
}

func runHook(cmdline string) {
	if err := helper.Run(cmdline); err != nil {
		log.Errorf("product: onstandby hook failed: %v", err)
	}
}
