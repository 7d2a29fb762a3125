// Package transport implements the UPnP AVTransport compatibility
// service: the classic "current track / next track" two-item
// lookahead view that predates OpenHome Playlist, bundled into a
// single eventable LastChange XML fragment per the AVTransport wire
// convention.
package transport

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jfdockes/upmpdcli-go/internal/didl"
	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// declaredOrder fixes the LastChange attribute emission order; the
// original tunes this empirically and spec §9's Open Question (a)
// says to preserve whatever order is observed, so it's fixed here
// rather than derived from map iteration.
var declaredOrder = []string{
	"TransportState", "TransportStatus", "PlaybackStorageMedium",
	"PossiblePlaybackStorageMedia", "CurrentPlayMode", "TransportPlaySpeed",
	"CurrentTrack", "NumberOfTracks", "CurrentTrackDuration",
	"CurrentMediaDuration", "CurrentTrackURI", "CurrentTrackMetaData",
	"AVTransportURI", "AVTransportURIMetaData", "NextAVTransportURI",
	"NextAVTransportURIMetaData", "RelativeTimePosition", "AbsoluteTimePosition",
	"CurrentTransportActions",
}

// syntheticMarker is stamped into a track's DIDLFragment when the
// service synthesized it (rather than receiving it from a control
// point) -- spec §4.5's metadata-source-priority rule uses it to
// decide whether to regenerate from MPD on the next refresh.
const syntheticMarker = "<!--upmpdcli-go:synthetic-->"

// Facade is the narrowed MPD facade surface this service drives.
type Facade interface {
	Status() model.Status
	Subscribe(mask mpdfacade.EventMask, fn mpdfacade.EventFunc)
	Play(pos int) bool
	Pause(on bool) bool
	TogglePause() bool
	Stop() bool
	Next() bool
	Previous() bool
	Seek(seconds int) bool
	Repeat(on bool) bool
	RandomPlay(on bool) bool
	Single(on bool) bool
	Consume(on bool) bool
	ClearQueue() bool
	Insert(uri string, pos int, meta model.Track) int
	DeletePosRange(start, end uint) bool
	GetQueueData() ([]model.Track, bool)
}

// Registry is the small sibling-accessor surface transport-compat
// needs, breaking the original's bidirectional service<->device
// reference cycle per spec §9 "Cyclic references".
type Registry interface {
	RadioActive() bool
	PlaylistURIMeta(uri string) (string, bool)
}

// Config carries the configuration-derived policy knobs spec §6 lists
// under AVTransport-compat behaviors.
type Config struct {
	OwnQueue          bool
	AutoPlay          bool
	KeepConsume       bool
	CheckContentFormat bool
}

// Service is the AVTransport-compat implementation.
type Service struct {
	*eventbase.Base
	facade Facade
	reg    Registry
	cfg    Config
	sink   func(mime string) bool

	mu         sync.Mutex
	curURI     string
	curMeta    string
	nextURI    string
	nextMeta   string
	playMode   string
}

// New builds the service. sink, if non-nil, validates a URI's MIME
// against the ConnectionManager's advertised sink list when
// cfg.CheckContentFormat is set.
func New(serviceID string, facade Facade, notifier eventbase.Notifier, reg Registry, cfg Config, sink func(mime string) bool) *Service {
	s := &Service{facade: facade, reg: reg, cfg: cfg, sink: sink, playMode: "NORMAL"}
	s.Base = eventbase.New(serviceID, "AVTransport", declaredOrder, s.makeState)
	facade.Subscribe(mpdfacade.QueueEvt|mpdfacade.PlayerEvt|mpdfacade.OptsEvt, func(st *model.Status) {
		s.refreshMetadata(st)
		s.OnEvent(notifier, st)
	})
	return s
}

// refreshMetadata implements spec §4.5's metadata-source-priority
// rule on every status refresh.
func (s *Service) refreshMetadata(st *model.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reg != nil && s.reg.RadioActive() {
		s.curMeta = syntheticFromSong(st.CurrentSong)
		return
	}
	if strings.Contains(s.curMeta, syntheticMarker) {
		s.curMeta = syntheticFromSong(st.CurrentSong)
		return
	}
	if st.CurrentSong.Resource.URI == s.nextURI && s.nextURI != "" {
		s.curURI = s.nextURI
		s.curMeta = s.nextMeta
		s.nextURI, s.nextMeta = "", ""
		return
	}
	if st.CurrentSong.Resource.URI != "" && st.CurrentSong.Resource.URI != s.curURI {
		s.curURI = st.CurrentSong.Resource.URI
		if s.reg != nil {
			if meta, ok := s.reg.PlaylistURIMeta(s.curURI); ok {
				s.curMeta = meta
				return
			}
		}
		s.curMeta = syntheticFromSong(st.CurrentSong)
	}
}

func syntheticFromSong(t model.Track) string {
	return didl.Encode(t) + syntheticMarker
}

func (s *Service) makeState(st *model.Status) map[string]string {
	s.mu.Lock()
	curURI, curMeta := s.curURI, s.curMeta
	nextURI, nextMeta := s.nextURI, s.nextMeta
	mode := s.playMode
	s.mu.Unlock()

	numTracks := "0"
	if curURI != "" {
		numTracks = "1"
	}
	return map[string]string{
		"TransportState":               eventbase.TransportState(st.State),
		"TransportStatus":              "OK",
		"PlaybackStorageMedium":        "NETWORK",
		"PossiblePlaybackStorageMedia": "NETWORK",
		"CurrentPlayMode":              mode,
		"TransportPlaySpeed":           "1",
		"CurrentTrack":                 "1",
		"NumberOfTracks":               numTracks,
		"CurrentTrackDuration":         formatTime(st.DurationMS),
		"CurrentMediaDuration":         formatTime(st.DurationMS),
		"CurrentTrackURI":              curURI,
		"CurrentTrackMetaData":         stripMarker(curMeta),
		"AVTransportURI":               curURI,
		"AVTransportURIMetaData":       stripMarker(curMeta),
		"NextAVTransportURI":           nextURI,
		"NextAVTransportURIMetaData":   stripMarker(nextMeta),
		"RelativeTimePosition":         formatTime(st.ElapsedMS),
		"AbsoluteTimePosition":         formatTime(st.ElapsedMS),
		"CurrentTransportActions":      transportActions(st.State),
	}
}

func stripMarker(meta string) string { return strings.Replace(meta, syntheticMarker, "", 1) }

func formatTime(ms uint) string {
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
}

func transportActions(st model.PlayState) string {
	switch st {
	case model.StatePlaying:
		return "Stop,Pause,Seek,Next,Previous"
	case model.StatePaused:
		return "Stop,Play,Seek,Next,Previous"
	default:
		return "Play"
	}
}

// SetAVTransportURI implements AVTransport.SetAVTransportURI per spec
// §4.5's policy: validate format (if enabled), clear and reset the
// queue if we own it, insert the new URI, then either auto-play or
// preserve the prior transport state.
func (s *Service) SetAVTransportURI(uri, metadata string) bool {
	if s.cfg.CheckContentFormat && s.sink != nil {
		if !s.sink(mimeFromURI(uri)) {
			return false
		}
	}
	wasPlaying := s.facade.Status().State == model.StatePlaying

	if s.cfg.OwnQueue {
		s.facade.ClearQueue()
		s.facade.Repeat(false)
		s.facade.RandomPlay(false)
		s.facade.Single(false)
		if !s.cfg.KeepConsume {
			s.facade.Consume(false)
		}
		tr := model.Track{DIDLFragment: metadata}
		tr.Resource.URI = uri
		if s.facade.Insert(uri, 0, tr) < 0 {
			return false
		}
	}

	s.mu.Lock()
	s.curURI, s.curMeta = uri, metadata
	s.mu.Unlock()

	if s.cfg.AutoPlay || wasPlaying {
		return s.facade.Play(0)
	}
	return true
}

// SetNextAVTransportURI implements AVTransport.SetNextAVTransportURI:
// with queue ownership, the queue is trimmed to two entries (current
// + next) to bound memory, matching spec §4.5.
func (s *Service) SetNextAVTransportURI(uri, metadata string) bool {
	if s.cfg.OwnQueue {
		st := s.facade.Status()
		if st.SongPos < 0 {
			// setNext with nothing playing is a state-mismatch per
			// spec §7 -- surfaced as invalid-param by the caller.
			return false
		}
		queue, ok := s.facade.GetQueueData()
		if !ok {
			return false
		}
		if len(queue) > st.SongPos+1 {
			s.facade.DeletePosRange(uint(st.SongPos+1), uint(len(queue)))
		}
		tr := model.Track{DIDLFragment: metadata}
		tr.Resource.URI = uri
		if s.facade.Insert(uri, st.SongPos+1, tr) < 0 {
			return false
		}
	}
	s.mu.Lock()
	s.nextURI, s.nextMeta = uri, metadata
	s.mu.Unlock()
	return true
}

// GetPositionInfo implements AVTransport.GetPositionInfo.
func (s *Service) GetPositionInfo() (track int, duration, uri, meta, relTime, absTime string) {
	st := s.facade.Status()
	s.mu.Lock()
	defer s.mu.Unlock()
	t := 0
	if s.curURI != "" {
		t = 1
	}
	return t, formatTime(st.DurationMS), s.curURI, stripMarker(s.curMeta), formatTime(st.ElapsedMS), formatTime(st.ElapsedMS)
}

// GetTransportInfo implements AVTransport.GetTransportInfo.
func (s *Service) GetTransportInfo() (state, status, speed string) {
	return eventbase.TransportState(s.facade.Status().State), "OK", "1"
}

// GetMediaInfo implements AVTransport.GetMediaInfo.
func (s *Service) GetMediaInfo() (numTracks int, duration, uri, meta, nextURI, nextMeta, playMedium string) {
	st := s.facade.Status()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	if s.curURI != "" {
		n = 1
	}
	return n, formatTime(st.DurationMS), s.curURI, stripMarker(s.curMeta), s.nextURI, stripMarker(s.nextMeta), "NETWORK"
}

// GetDeviceCapabilities implements AVTransport.GetDeviceCapabilities.
func (s *Service) GetDeviceCapabilities() (media, possiblePlayModes string) {
	return "NETWORK", "NORMAL,SHUFFLE,REPEAT_ONE,REPEAT_ALL,RANDOM,DIRECT_1"
}

// SetPlayMode implements AVTransport.SetPlayMode: spec §9 Open
// Question (c) says play-mode changes are silently ignored while we
// own the queue -- retained verbatim.
func (s *Service) SetPlayMode(mode string) bool {
	if s.cfg.OwnQueue {
		return true
	}
	repeat, random, single, ok := ModeToFlags(mode)
	if !ok {
		return false
	}
	s.facade.Repeat(repeat)
	s.facade.RandomPlay(random)
	s.facade.Single(single)
	s.mu.Lock()
	s.playMode = mode
	s.mu.Unlock()
	return true
}

// GetTransportSettings implements AVTransport.GetTransportSettings.
func (s *Service) GetTransportSettings() (playMode, recQuality string) {
	st := s.facade.Status()
	mode := FlagsToMode(st.Repeat, st.Random, st.Single)
	return mode, "NOT_IMPLEMENTED"
}

// GetCurrentTransportActions implements
// AVTransport.GetCurrentTransportActions.
func (s *Service) GetCurrentTransportActions() string {
	return transportActions(s.facade.Status().State)
}

func (s *Service) Stop() bool  { return s.facade.Stop() }
func (s *Service) PlayCmd() bool { return s.facade.Play(s.facade.Status().SongPos) }
func (s *Service) Pause() bool { return s.facade.TogglePause() }
func (s *Service) Next() bool  { return s.facade.Next() }
func (s *Service) Previous() bool { return s.facade.Previous() }

// Seek implements AVTransport.Seek. Both REL_TIME and ABS_TIME are
// interpreted as an absolute track position, since media here always
// has exactly one track (spec §4.5).
func (s *Service) Seek(unit, target string) bool {
	switch unit {
	case "REL_TIME", "ABS_TIME":
		secs, err := parseTimeToSeconds(target)
		if err != nil {
			return false
		}
		return s.facade.Seek(secs)
	default:
		return false
	}
}

func parseTimeToSeconds(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("transport: bad time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}
	return h*3600 + m*60 + sec, nil
}

func mimeFromURI(uri string) string {
	switch {
	case strings.HasSuffix(uri, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(uri, ".flac"):
		return "audio/x-flac"
	case strings.HasSuffix(uri, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(uri, ".ogg"):
		return "application/ogg"
	default:
		return "audio/mpeg"
	}
}

// ModeToFlags implements the forward half of the play-mode <->
// (repeat, random, single) bijection (spec §4.5's table, testable
// property 5).
func ModeToFlags(mode string) (repeat, random, single, ok bool) {
	switch mode {
	case "NORMAL":
		return false, false, false, true
	case "SHUFFLE":
		return false, true, false, true
	case "REPEAT_ONE":
		return true, false, true, true
	case "REPEAT_ALL":
		return true, false, false, true
	case "RANDOM":
		return true, true, false, true
	case "DIRECT_1":
		return false, false, true, true
	default:
		return false, false, false, false
	}
}

// FlagsToMode implements the reverse half: the (repeat, random,
// single) triple that doesn't match any declared mode falls through
// to NORMAL.
func FlagsToMode(repeat, random, single bool) string {
	switch {
	case !repeat && !random && !single:
		return "NORMAL"
	case !repeat && random && !single:
		return "SHUFFLE"
	case repeat && !random && single:
		return "REPEAT_ONE"
	case repeat && !random && !single:
		return "REPEAT_ALL"
	case repeat && random && !single:
		return "RANDOM"
	case !repeat && !random && single:
		return "DIRECT_1"
	default:
		return "NORMAL"
	}
}

// LastChangeXML renders names/values (as produced by
// eventbase.Base.GetEventData) into the AVTransport LastChange wire
// fragment: an <Event> wrapping one <InstanceID val="0"> with one
// self-closing child element per changed variable.
func LastChangeXML(names, values []string) string {
	var b strings.Builder
	b.WriteString(`<Event xmlns="urn:schemas-upnp-org:metadata-1-0/AVT/"><InstanceID val="0">`)
	for i, n := range names {
		fmt.Fprintf(&b, `<%s val="%s"/>`, n, xmlEscapeAttr(values[i]))
	}
	b.WriteString(`</InstanceID></Event>`)
	return b.String()
}

func xmlEscapeAttr(s string) string {
	r := strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")
	return r.Replace(s)
}
