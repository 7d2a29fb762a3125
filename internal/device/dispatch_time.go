package device

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var timeStateVars = []string{"TrackCount", "Duration", "Seconds"}
var timeActionNames = []string{"Time"}

func timeActions(data func() (trackCount, duration, seconds int)) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"Time": func(args map[string]string) (map[string]string, error) {
			tc, dur, sec := data()
			return map[string]string{
				"TrackCount": strconv.Itoa(tc), "Duration": strconv.Itoa(dur), "Seconds": strconv.Itoa(sec),
			}, nil
		},
	}
}
