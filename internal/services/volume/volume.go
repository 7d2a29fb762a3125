// Package volume implements the OpenHome Volume service: an absolute
// 0-100 volume plus a mute flag derived from it, layered over the MPD
// facade's own volume control.
package volume

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// declaredOrder fixes the LastChange-style emission order so event
// bodies are byte-stable across runs (see Open Question decision 1 in
// DESIGN.md).
var declaredOrder = []string{
	"VolumeMax", "VolumeLimit", "VolumeUnity", "VolumeSteps",
	"VolumeMilliDbPerStep", "Balance", "BalanceMax", "Fade", "FadeMax",
	"Volume", "Mute",
}

const milliDBPerStep = "1024"

// Service is the OpenHome Volume service implementation.
type Service struct {
	*eventbase.Base
	facade *mpdfacade.Facade
}

// New builds the service and subscribes it to the facade's mixer
// events, so a volume change anywhere (including an external control
// script) is reflected in LastChange.
func New(serviceID string, facade *mpdfacade.Facade, notifier eventbase.Notifier) *Service {
	s := &Service{facade: facade}
	s.Base = eventbase.New(serviceID, "Volume", declaredOrder, s.makeState)
	facade.Subscribe(mpdfacade.MixerEvt, func(st *model.Status) {
		s.OnEvent(notifier, st)
	})
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	vol := st.Volume
	mute := "0"
	if s.facade.Muted() {
		mute = "1"
	}
	return map[string]string{
		"VolumeMax":            "100",
		"VolumeLimit":          "100",
		"VolumeUnity":          "100",
		"VolumeSteps":          "100",
		"VolumeMilliDbPerStep": milliDBPerStep,
		"Balance":              "0",
		"BalanceMax":           "0",
		"Fade":                 "0",
		"FadeMax":              "0",
		"Volume":               strconv.Itoa(vol),
		"Mute":                 mute,
	}
}

// SetVolume implements Volume.SetVolume: sets the absolute 0-100
// value.
func (s *Service) SetVolume(v int) bool {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return s.facade.SetVolume(v)
}

// VolumeInc/VolumeDec implement the relative step actions.
func (s *Service) VolumeInc() bool { return s.SetVolume(s.facade.Volume() + 1) }
func (s *Service) VolumeDec() bool { return s.SetVolume(s.facade.Volume() - 1) }

// SetMute implements Volume.SetMute: delegates to the facade's
// premute-recall synthesis (spec §4.2), so SetMute(true) then
// SetMute(false) restores the exact pre-mute volume.
func (s *Service) SetMute(on bool) bool {
	return s.facade.SetMute(on)
}

// SelectPreset implements Volume.SetPreset: the only preset the
// renderer advertises is "FactoryDefaults", which resets to 50.
func (s *Service) SelectPreset(name string) bool {
	if name != "FactoryDefaults" {
		return false
	}
	return s.facade.SetVolume(50)
}

// Presets lists the constant preset names this service advertises.
func (s *Service) Presets() []string { return []string{"FactoryDefaults"} }

func (s *Service) Mute() bool       { return s.facade.Muted() }
func (s *Service) Volume() int      { return s.facade.Volume() }
