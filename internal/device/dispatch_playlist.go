package device

import (
	"strconv"
	"strings"

	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var playlistStateVars = []string{
	"TransportState", "Repeat", "Shuffle", "TracksMax", "Id", "IdArray", "ProtocolInfo",
}

var playlistActionNames = []string{
	"Play", "Pause", "Stop", "Next", "Previous", "SetRepeat", "Repeat",
	"SetShuffle", "Shuffle", "SeekSecondAbsolute", "SeekSecondRelative",
	"SeekId", "SeekIndex", "TransportState", "Id", "Read", "ReadList",
	"Insert", "DeleteId", "DeleteAll", "TracksMax", "IdArray", "IdArrayChanged",
	"ProtocolInfo",
}

// playlistService is the surface dispatch_playlist.go needs from
// playlist.Service.
type playlistService struct {
	Play               func() bool
	Pause              func() bool
	Stop               func() bool
	NextTrack          func() bool
	PreviousTrack      func() bool
	SetRepeat          func(bool) bool
	SetShuffle         func(bool) bool
	SeekSecondAbsolute func(int) bool
	SeekSecondRelative func(int) bool
	SeekID             func(int) bool
	SeekIndex          func(int) bool
	RepeatState        func() bool
	ShuffleState       func() bool
	TransportState     func() string
	ID                 func() int
	Read               func(int) (string, bool)
	Insert             func(afterID int, uri, metadata string) (int, bool)
	DeleteID           func(int) bool
	DeleteAll          func() bool
	TracksMaxConst     func() int
	IDArray            func() (string, string)
	IDArrayChanged     func(string) bool
	ProtocolInfo       func() string
}

func playlistActions(p playlistService) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"Play":  func(args map[string]string) (map[string]string, error) { p.Play(); return map[string]string{}, nil },
		"Pause": func(args map[string]string) (map[string]string, error) { p.Pause(); return map[string]string{}, nil },
		"Stop":  func(args map[string]string) (map[string]string, error) { p.Stop(); return map[string]string{}, nil },
		"Next":  func(args map[string]string) (map[string]string, error) { p.NextTrack(); return map[string]string{}, nil },
		"Previous": func(args map[string]string) (map[string]string, error) {
			p.PreviousTrack()
			return map[string]string{}, nil
		},
		"SetRepeat": func(args map[string]string) (map[string]string, error) {
			p.SetRepeat(atob(args["Value"]))
			return map[string]string{}, nil
		},
		"Repeat": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": btoa(p.RepeatState())}, nil
		},
		"SetShuffle": func(args map[string]string) (map[string]string, error) {
			p.SetShuffle(atob(args["Value"]))
			return map[string]string{}, nil
		},
		"Shuffle": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": btoa(p.ShuffleState())}, nil
		},
		"SeekSecondAbsolute": func(args map[string]string) (map[string]string, error) {
			p.SeekSecondAbsolute(atoiOr(args["Value"], 0))
			return map[string]string{}, nil
		},
		"SeekSecondRelative": func(args map[string]string) (map[string]string, error) {
			p.SeekSecondRelative(atoiOr(args["Value"], 0))
			return map[string]string{}, nil
		},
		"SeekId": func(args map[string]string) (map[string]string, error) {
			p.SeekID(atoiOr(args["Value"], 0))
			return map[string]string{}, nil
		},
		"SeekIndex": func(args map[string]string) (map[string]string, error) {
			p.SeekIndex(atoiOr(args["Value"], 0))
			return map[string]string{}, nil
		},
		"TransportState": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": p.TransportState()}, nil
		},
		"Id": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(p.ID())}, nil
		},
		"Read": func(args map[string]string) (map[string]string, error) {
			didl, _ := p.Read(atoiOr(args["Id"], 0))
			return map[string]string{"Metadata": didl}, nil
		},
		"ReadList": func(args map[string]string) (map[string]string, error) {
			ids := parseIDList(args["IdList"])
			var b strings.Builder
			for _, id := range ids {
				didl, _ := p.Read(id)
				b.WriteString(didl)
			}
			return map[string]string{"TrackList": b.String()}, nil
		},
		"Insert": func(args map[string]string) (map[string]string, error) {
			newID, ok := p.Insert(atoiOr(args["AfterId"], 0), args["Uri"], args["Metadata"])
			if !ok {
				return nil, errInvalidParam
			}
			return map[string]string{"NewId": strconv.Itoa(newID)}, nil
		},
		"DeleteId": func(args map[string]string) (map[string]string, error) {
			if !p.DeleteID(atoiOr(args["Value"], 0)) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"DeleteAll": func(args map[string]string) (map[string]string, error) {
			p.DeleteAll()
			return map[string]string{}, nil
		},
		"TracksMax": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(p.TracksMaxConst())}, nil
		},
		"IdArray": func(args map[string]string) (map[string]string, error) {
			token, arr := p.IDArray()
			return map[string]string{"Token": token, "Array": arr}, nil
		},
		"IdArrayChanged": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": btoa(p.IDArrayChanged(args["Token"]))}, nil
		},
		"ProtocolInfo": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": p.ProtocolInfo()}, nil
		},
	}
}

func parseIDList(s string) []int {
	fields := strings.Fields(s)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			out = append(out, n)
		}
	}
	return out
}
