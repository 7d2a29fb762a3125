package mpdfacade

import (
	"strconv"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// attrInt parses an mpd.Attrs numeric field, defaulting to dflt when
// the key is absent or unparsable -- mirrors the original's habit of
// treating missing/garbled MPD fields as "unknown" rather than erroring.
func attrInt(a mpd.Attrs, key string, dflt int) int {
	v, ok := a[key]
	if !ok {
		return dflt
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return dflt
	}
	return n
}

func attrUint(a mpd.Attrs, key string, dflt uint) uint {
	return uint(attrInt(a, key, int(dflt)))
}

func attrFloat(a mpd.Attrs, key string, dflt float32) float32 {
	v, ok := a[key]
	if !ok {
		return dflt
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return dflt
	}
	return float32(f)
}

func mapState(s string) model.PlayState {
	switch s {
	case "play":
		return model.StatePlaying
	case "pause":
		return model.StatePaused
	case "stop":
		return model.StateStopped
	default:
		return model.StateUnknown
	}
}

// mapSong translates one mpd.Attrs song record (as returned by
// CurrentSong / PlaylistInfo) into a Track, the Go equivalent of
// MPDCli::mapSong.
func mapSong(a mpd.Attrs) model.Track {
	var t model.Track
	t.Resource.URI = a["file"]
	t.Artist = a["Artist"]
	t.Album = a["Album"]
	t.Title = a["Title"]
	t.Genre = a["Genre"]
	t.Date = a["Date"]
	t.TrackNum = a["Track"]
	if id, ok := a["Id"]; ok {
		t.MPDID, _ = strconv.Atoi(id)
	}
	if secs, ok := a["duration"]; ok {
		if f, err := strconv.ParseFloat(secs, 64); err == nil {
			t.Resource.DurationSecs = uint32(f)
		}
	} else if secs, ok := a["Time"]; ok {
		if n, err := strconv.Atoi(secs); err == nil {
			t.Resource.DurationSecs = uint32(n)
		}
	}
	return t
}

// snapshotStatus builds a model.Status from the MPD "status" Attrs
// reply, folding in volume overrides and the previous snapshot (so
// trackcounter/detailscounter can be derived) the same way
// MPDCli::updStatus does.
func snapshotStatus(a mpd.Attrs, prev model.Status, volume int) model.Status {
	st := model.Status{}
	st.Volume = volume
	st.Repeat = a["repeat"] == "1"
	st.Random = a["random"] == "1"
	st.Single = a["single"] == "1"
	st.Consume = a["consume"] == "1"
	st.QueueLen = attrInt(a, "playlistlength", 0)
	st.QueueVersion = attrInt(a, "playlist", 0)
	st.State = mapState(a["state"])
	st.Crossfade = attrUint(a, "xfade", 0)
	st.MixRampDB = attrFloat(a, "mixrampdb", 0)
	st.MixRampDelay = attrFloat(a, "mixrampdelay", 0)
	st.SongPos = attrInt(a, "song", -1)
	st.SongID = attrInt(a, "songid", -1)
	if e, ok := a["elapsed"]; ok {
		if f, err := strconv.ParseFloat(e, 64); err == nil {
			st.ElapsedMS = uint(f * 1000)
		}
	}
	st.DurationMS = attrUint(a, "time", 0) * 1000
	st.BitrateKbps = attrUint(a, "bitrate", 0)
	if af, ok := a["audio"]; ok {
		// "samplerate:bits:channels"
		var sr, bits, ch int
		n, _ := parseAudioFormat(af)
		sr, bits, ch = n[0], n[1], n[2]
		st.SampleRateHz = uint(sr)
		st.BitDepth = uint(bits)
		st.Channels = uint(ch)
	}
	st.ErrorMessage = a["error"]

	st.TrackCounter = prev.TrackCounter
	st.DetailsCounter = prev.DetailsCounter
	return st
}

func parseAudioFormat(s string) ([3]int, bool) {
	var out [3]int
	parts := splitN3(s, ':')
	for i, p := range parts {
		if i > 2 {
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out, true
}

func splitN3(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
