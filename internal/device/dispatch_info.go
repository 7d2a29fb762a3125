package device

import "github.com/jfdockes/upmpdcli-go/internal/upnp"

var infoStateVars = []string{
	"TrackCount", "DetailsCount", "MetatextCount",
	"Uri", "Metadata", "Metatext",
	"Duration", "BitRate", "BitDepth", "SampleRate", "Lossless", "CodecName",
}

var infoActionNames = []string{"Counters", "Track", "Details", "Metatext"}

func infoActions(snapshot func() map[string]string) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"Counters": func(args map[string]string) (map[string]string, error) {
			st := snapshot()
			return map[string]string{
				"TrackCount": st["TrackCount"], "DetailsCount": st["DetailsCount"],
				"MetatextCount": st["MetatextCount"],
			}, nil
		},
		"Track": func(args map[string]string) (map[string]string, error) {
			st := snapshot()
			return map[string]string{"Uri": st["Uri"], "Metadata": st["Metadata"]}, nil
		},
		"Details": func(args map[string]string) (map[string]string, error) {
			st := snapshot()
			return map[string]string{
				"Duration": st["Duration"], "BitRate": st["BitRate"], "BitDepth": st["BitDepth"],
				"SampleRate": st["SampleRate"], "Lossless": st["Lossless"], "CodecName": st["CodecName"],
			}, nil
		},
		"Metatext": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": snapshot()["Metatext"]}, nil
		},
	}
}
