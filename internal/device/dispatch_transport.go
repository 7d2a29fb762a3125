package device

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var transportStateVars = []string{
	"TransportState", "TransportStatus", "PlaybackStorageMedium",
	"PossiblePlaybackStorageMedia", "CurrentPlayMode", "TransportPlaySpeed",
	"CurrentTrack", "NumberOfTracks", "CurrentTrackDuration",
	"CurrentMediaDuration", "CurrentTrackURI", "CurrentTrackMetaData",
	"AVTransportURI", "AVTransportURIMetaData", "NextAVTransportURI",
	"NextAVTransportURIMetaData", "RelativeTimePosition", "AbsoluteTimePosition",
	"CurrentTransportActions", "LastChange",
}

var transportActionNames = []string{
	"SetAVTransportURI", "SetNextAVTransportURI", "GetPositionInfo",
	"GetTransportInfo", "GetMediaInfo", "GetDeviceCapabilities", "SetPlayMode",
	"GetTransportSettings", "GetCurrentTransportActions", "Stop", "Play",
	"Pause", "Next", "Previous", "Seek",
}

// transportService is the surface dispatch_transport.go needs from
// transport.Service.
type transportService struct {
	SetAVTransportURI     func(uri, metadata string) bool
	SetNextAVTransportURI func(uri, metadata string) bool
	GetPositionInfo       func() (track int, duration, uri, meta, relTime, absTime string)
	GetTransportInfo      func() (state, status, speed string)
	GetMediaInfo          func() (numTracks int, duration, uri, meta, nextURI, nextMeta, playMedium string)
	GetDeviceCapabilities func() (media, possiblePlayModes string)
	SetPlayMode           func(mode string) bool
	GetTransportSettings  func() (playMode, recQuality string)
	GetCurrentTransportActions func() string
	Stop                  func() bool
	PlayCmd               func() bool
	Pause                 func() bool
	Next                  func() bool
	Previous              func() bool
	Seek                  func(unit, target string) bool
}

func transportActions(t transportService) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"SetAVTransportURI": func(args map[string]string) (map[string]string, error) {
			if !t.SetAVTransportURI(args["CurrentURI"], args["CurrentURIMetaData"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"SetNextAVTransportURI": func(args map[string]string) (map[string]string, error) {
			if !t.SetNextAVTransportURI(args["NextURI"], args["NextURIMetaData"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"GetPositionInfo": func(args map[string]string) (map[string]string, error) {
			track, dur, uri, meta, rel, abs := t.GetPositionInfo()
			return map[string]string{
				"Track": strconv.Itoa(track), "TrackDuration": dur, "TrackURI": uri,
				"TrackMetaData": meta, "RelTime": rel, "AbsTime": abs,
			}, nil
		},
		"GetTransportInfo": func(args map[string]string) (map[string]string, error) {
			state, status, speed := t.GetTransportInfo()
			return map[string]string{
				"CurrentTransportState": state, "CurrentTransportStatus": status,
				"CurrentSpeed": speed,
			}, nil
		},
		"GetMediaInfo": func(args map[string]string) (map[string]string, error) {
			n, dur, uri, meta, nextURI, nextMeta, medium := t.GetMediaInfo()
			return map[string]string{
				"NrTracks": strconv.Itoa(n), "MediaDuration": dur, "CurrentURI": uri,
				"CurrentURIMetaData": meta, "NextURI": nextURI, "NextURIMetaData": nextMeta,
				"PlayMedium": medium,
			}, nil
		},
		"GetDeviceCapabilities": func(args map[string]string) (map[string]string, error) {
			media, modes := t.GetDeviceCapabilities()
			return map[string]string{"PlayMedia": media, "PossiblePlaybackStorageMedia": modes}, nil
		},
		"SetPlayMode": func(args map[string]string) (map[string]string, error) {
			if !t.SetPlayMode(args["NewPlayMode"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"GetTransportSettings": func(args map[string]string) (map[string]string, error) {
			mode, quality := t.GetTransportSettings()
			return map[string]string{"PlayMode": mode, "RecQualityMode": quality}, nil
		},
		"GetCurrentTransportActions": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Actions": t.GetCurrentTransportActions()}, nil
		},
		"Stop": func(args map[string]string) (map[string]string, error) {
			t.Stop()
			return map[string]string{}, nil
		},
		"Play": func(args map[string]string) (map[string]string, error) {
			t.PlayCmd()
			return map[string]string{}, nil
		},
		"Pause": func(args map[string]string) (map[string]string, error) {
			t.Pause()
			return map[string]string{}, nil
		},
		"Next": func(args map[string]string) (map[string]string, error) {
			t.Next()
			return map[string]string{}, nil
		},
		"Previous": func(args map[string]string) (map[string]string, error) {
			t.Previous()
			return map[string]string{}, nil
		},
		"Seek": func(args map[string]string) (map[string]string, error) {
			if !t.Seek(args["Unit"], args["Target"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
	}
}
