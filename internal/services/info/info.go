// Package info implements the OpenHome Info service: static and
// current-track format details (duration, bitrate, sample rate,
// codec, lossless flag) plus the current track's URI and metadata,
// with an out-of-band override the radio service uses to show a
// station's static name as metadata and the running song as metatext.
package info

import (
	"strconv"
	"sync"

	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/model"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

var declaredOrder = []string{
	"TrackCount", "DetailsCount", "MetatextCount",
	"Uri", "Metadata", "Metatext",
	"Duration", "BitRate", "BitDepth", "SampleRate", "Lossless", "CodecName",
}

// Config selects whether metadata/metatext collapse into one field
// (the "ohmetaismetatext"-style configuration key).
type Config struct {
	MergeMetaAndText bool
}

// Service is the OpenHome Info implementation.
type Service struct {
	*eventbase.Base
	facade *mpdfacade.Facade
	cfg    Config

	mu           sync.Mutex
	overrideMeta string
	overrideText string
	hasOverride  bool
}

func New(serviceID string, facade *mpdfacade.Facade, notifier eventbase.Notifier, cfg Config) *Service {
	s := &Service{facade: facade, cfg: cfg}
	s.Base = eventbase.New(serviceID, "Info", declaredOrder, s.makeState)
	facade.Subscribe(mpdfacade.PlayerEvt|mpdfacade.QueueEvt, func(st *model.Status) {
		s.OnEvent(notifier, st)
	})
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	s.mu.Lock()
	meta, text, hasOverride := s.overrideMeta, s.overrideText, s.hasOverride
	s.mu.Unlock()

	uri := st.CurrentSong.Resource.URI
	if !hasOverride {
		meta = ""
		text = st.CurrentSong.Title
	} else if s.cfg.MergeMetaAndText {
		meta = text
	}

	codec, lossless, known := model.MimeToCodec(st.CurrentSong.Resource.MIME)
	if !known {
		codec = "UNKNOWN"
	}
	return map[string]string{
		"TrackCount":    strconv.Itoa(st.TrackCounter),
		"DetailsCount":  strconv.Itoa(st.DetailsCounter),
		"MetatextCount": strconv.Itoa(st.TrackCounter),
		"Uri":           uri,
		"Metadata":      meta,
		"Metatext":      text,
		"Duration":      strconv.Itoa(int(st.DurationMS / 1000)),
		"BitRate":       strconv.Itoa(int(st.BitrateKbps)),
		"BitDepth":      strconv.Itoa(int(st.BitDepth)),
		"SampleRate":    strconv.Itoa(int(st.SampleRateHz)),
		"Lossless":      boolStr(lossless),
		"CodecName":     codec,
	}
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SetMetadata implements the out-of-band radio-service hook (spec
// §4.7): metadata reports the static channel name, metatext the
// currently running song.
func (s *Service) SetMetadata(metadata, metatext string) {
	s.mu.Lock()
	s.overrideMeta = metadata
	s.overrideText = metatext
	s.hasOverride = true
	s.mu.Unlock()
}

// ClearMetadata reverts to the default (non-radio) reporting mode.
func (s *Service) ClearMetadata() {
	s.mu.Lock()
	s.hasOverride = false
	s.mu.Unlock()
}

// Snapshot returns the current state as the OpenHome Info actions
// (Counters, Track, Details, Metatext) report it.
func (s *Service) Snapshot() map[string]string {
	st := s.facade.Status()
	return s.makeState(&st)
}
