package device

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var volumeStateVars = []string{
	"VolumeMax", "VolumeLimit", "VolumeUnity", "VolumeSteps",
	"VolumeMilliDbPerStep", "Balance", "BalanceMax", "Fade", "FadeMax",
	"Volume", "Mute",
}

var volumeActionNames = []string{
	"Characteristics", "SetVolume", "VolumeInc", "VolumeDec", "Volume",
	"SetMute", "Mute", "SetBalance", "BalanceInc", "BalanceDec", "Balance",
	"SetFade", "FadeInc", "FadeDec", "Fade", "SetVolumeLimit", "VolumeLimit",
	"SetPreset", "Presets",
}

// volumeService is the narrow surface dispatch_volume.go needs,
// satisfied by volume.Service.
type volumeService struct {
	SetVolume    func(int) bool
	VolumeInc    func() bool
	VolumeDec    func() bool
	Volume       func() int
	SetMute      func(bool) bool
	Mute         func() bool
	SelectPreset func(string) bool
	Presets      func() []string
}

func volumeActions(v volumeService) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"Characteristics": func(args map[string]string) (map[string]string, error) {
			return map[string]string{
				"VolumeMax": "100", "VolumeUnity": "100", "VolumeSteps": "100",
				"VolumeMilliDbPerStep": "1024", "BalanceMax": "0", "FadeMax": "0",
			}, nil
		},
		"SetVolume": func(args map[string]string) (map[string]string, error) {
			v.SetVolume(atoiOr(args["Value"], 0))
			return map[string]string{}, nil
		},
		"VolumeInc": func(args map[string]string) (map[string]string, error) {
			v.VolumeInc()
			return map[string]string{}, nil
		},
		"VolumeDec": func(args map[string]string) (map[string]string, error) {
			v.VolumeDec()
			return map[string]string{}, nil
		},
		"Volume": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(v.Volume())}, nil
		},
		"SetMute": func(args map[string]string) (map[string]string, error) {
			v.SetMute(atob(args["Value"]))
			return map[string]string{}, nil
		},
		"Mute": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": btoa(v.Mute())}, nil
		},
		"SetBalance":     func(args map[string]string) (map[string]string, error) { return map[string]string{}, nil },
		"BalanceInc":     func(args map[string]string) (map[string]string, error) { return map[string]string{}, nil },
		"BalanceDec":     func(args map[string]string) (map[string]string, error) { return map[string]string{}, nil },
		"Balance": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": "0"}, nil
		},
		"SetFade": func(args map[string]string) (map[string]string, error) { return map[string]string{}, nil },
		"FadeInc": func(args map[string]string) (map[string]string, error) { return map[string]string{}, nil },
		"FadeDec": func(args map[string]string) (map[string]string, error) { return map[string]string{}, nil },
		"Fade": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": "0"}, nil
		},
		"SetVolumeLimit": func(args map[string]string) (map[string]string, error) { return map[string]string{}, nil },
		"VolumeLimit": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": "100"}, nil
		},
		"SetPreset": func(args map[string]string) (map[string]string, error) {
			v.SelectPreset(args["Name"])
			return map[string]string{}, nil
		},
		"Presets": func(args map[string]string) (map[string]string, error) {
			list := ""
			for i, p := range v.Presets() {
				if i > 0 {
					list += ","
				}
				list += p
			}
			return map[string]string{"Value": list}, nil
		},
	}
}
