// Package playlist implements the OpenHome Playlist service: the full
// play queue, addressed by ids that stay stable across an MPD restart
// (which reassigns its own ids), with base64 id-array eventing and a
// persistent URI->DIDL metadata cache so entries keep their title/
// artist/art even after MPD forgets them.
package playlist

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/didl"
	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/metacache"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// TracksMax is the constant capacity the service advertises, matching
// the original's hard-coded OHPL_TRACKSMAX.
const TracksMax = 8192

var declaredOrder = []string{
	"TransportState", "Repeat", "Shuffle", "TracksMax",
	"Id", "IdArray", "ProtocolInfo",
}

// Facade is the subset of *mpdfacade.Facade the playlist service
// drives, narrowed to a local interface so it can be exercised with a
// test double without a live MPD connection (see Open Question
// decision in DESIGN.md's "Cyclic references" section).
type Facade interface {
	Status() model.Status
	Subscribe(mask mpdfacade.EventMask, fn mpdfacade.EventFunc)
	Play(pos int) bool
	PlayID(id int) bool
	Pause(on bool) bool
	Stop() bool
	Next() bool
	Previous() bool
	Repeat(on bool) bool
	RandomPlay(on bool) bool
	Seek(seconds int) bool
	ClearQueue() bool
	Insert(uri string, pos int, meta model.Track) int
	InsertAfterID(uri string, id int, meta model.Track) int
	DeleteID(id int) bool
	GetQueueData() ([]model.Track, bool)
	SaveState(seekMS int) (model.State, bool)
	RestoreState(st model.State) bool
}

// entry is one queue slot: the service's own stable id, the current
// MPD id backing it (which may change across restarts), the URI it
// was inserted with, and its DIDL metadata.
type entry struct {
	ohID  int
	mpdID int
	uri   string
	didl  string
}

// Service is the OpenHome Playlist implementation.
type Service struct {
	*eventbase.Base
	facade Facade
	cache  *metacache.Cache

	mu          sync.Mutex
	entries     []entry
	nextID      int
	queueVers   int
	arrayToken  int
	active      bool
	savedState  model.State
	haveSaved   bool
}

// New builds the service, subscribes it to queue/player events and
// seeds its entry list from whatever MPD already has queued (e.g. a
// warm restart).
func New(serviceID string, facade Facade, notifier eventbase.Notifier, cache *metacache.Cache) *Service {
	s := &Service{facade: facade, cache: cache, nextID: 1, active: true}
	s.Base = eventbase.New(serviceID, "Playlist", declaredOrder, s.makeState)
	s.resync()
	facade.Subscribe(mpdfacade.QueueEvt|mpdfacade.PlayerEvt, func(st *model.Status) {
		s.mu.Lock()
		changed := st.QueueVersion != s.queueVers
		s.mu.Unlock()
		if changed {
			s.resync()
		}
		s.OnEvent(notifier, st)
	})
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	s.mu.Lock()
	effective := st
	if !s.active && s.haveSaved {
		effective = &s.savedState.Status
	}
	ids := make([]uint32, len(s.entries))
	for i, e := range s.entries {
		ids[i] = uint32(e.ohID)
	}
	curID := 0
	for _, e := range s.entries {
		if e.mpdID == effective.SongID {
			curID = e.ohID
			break
		}
	}
	s.mu.Unlock()
	return map[string]string{
		"TransportState": eventbase.TransportState(effective.State),
		"Repeat":         boolStr(effective.Repeat),
		"Shuffle":        boolStr(effective.Random),
		"TracksMax":      strconv.Itoa(TracksMax),
		"Id":             strconv.Itoa(curID),
		"IdArray":        encodeIDArray(ids),
		"ProtocolInfo":   protocolInfo,
	}
}

const protocolInfo = "http-get:*:audio/mpeg:*,http-get:*:audio/x-flac:*,http-get:*:audio/wav:*,http-get:*:application/ogg:*,http-get:*:audio/mp4:*"

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// encodeIDArray base64-encodes ids as a sequence of big-endian uint32,
// the wire form OpenHome Playlist's IdArray action and LastChange
// variable both use.
func encodeIDArray(ids []uint32) string {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint32(buf[i*4:], id)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// resync re-reads the MPD queue and rebuilds the ohID<->mpdID mapping
// by URI+position, synthesizing fresh ids for anything unrecognized
// (a cold MPD restart forgets all its own ids, but not its queue
// contents) -- the "stable ids" behavior spec §4.4 requires.
//
// While the service is inactive the MPD queue belongs to whichever
// source is currently active (e.g. Radio) and no longer reflects this
// service's own playlist, so resync is a no-op: s.entries stays frozen
// at whatever it held at the moment SetActive(false) ran, and upnp
// accessors keep reporting that saved view per spec §4.4.
func (s *Service) resync() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		return
	}
	queue, ok := s.facade.GetQueueData()
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.entries
	next := make([]entry, 0, len(queue))
	used := make(map[int]bool, len(prev))
	for _, tr := range queue {
		var match *entry
		for i := range prev {
			if used[i] {
				continue
			}
			if prev[i].uri == tr.Resource.URI {
				match = &prev[i]
				used[i] = true
				break
			}
		}
		if match != nil {
			e := *match
			e.mpdID = tr.MPDID
			next = append(next, e)
			continue
		}
		meta, _ := s.cache.Get(tr.Resource.URI)
		if meta == "" {
			meta = didl.Encode(tr)
		}
		next = append(next, entry{ohID: s.nextID, mpdID: tr.MPDID, uri: tr.Resource.URI, didl: meta})
		s.nextID++
	}
	s.entries = next
	s.queueVers = s.facade.Status().QueueVersion
	s.arrayToken++
}

// Play implements Playlist.Play.
func (s *Service) Play() bool { return s.facade.Play(0) }

// Pause implements Playlist.Pause.
func (s *Service) Pause() bool { return s.facade.Pause(true) }

// Stop implements Playlist.Stop.
func (s *Service) Stop() bool { return s.facade.Stop() }

func (s *Service) NextTrack() bool     { return s.facade.Next() }
func (s *Service) PreviousTrack() bool { return s.facade.Previous() }

func (s *Service) SetRepeat(on bool) bool  { return s.facade.Repeat(on) }
func (s *Service) SetShuffle(on bool) bool { return s.facade.RandomPlay(on) }

func (s *Service) RepeatState() bool  { return s.facade.Status().Repeat }
func (s *Service) ShuffleState() bool { return s.facade.Status().Random }

func (s *Service) SeekSecondAbsolute(secs int) bool { return s.facade.Seek(secs) }
func (s *Service) SeekSecondRelative(delta int) bool {
	st := s.facade.Status()
	target := int(st.ElapsedMS/1000) + delta
	if target < 0 {
		target = 0
	}
	return s.facade.Seek(target)
}

// SeekID implements Playlist.SeekId: jump directly to the track with
// the given stable id.
func (s *Service) SeekID(id int) bool {
	s.mu.Lock()
	mpdID := -1
	for _, e := range s.entries {
		if e.ohID == id {
			mpdID = e.mpdID
			break
		}
	}
	s.mu.Unlock()
	if mpdID < 0 {
		return false
	}
	return s.facade.PlayID(mpdID)
}

// SeekIndex implements Playlist.SeekIndex: jump to the track at
// 0-based queue position index.
func (s *Service) SeekIndex(index int) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.entries) {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	return s.facade.Play(index)
}

// effectiveStatus returns the frozen status saved by SetActive(false)
// while the service is inactive, or the live facade status while
// active, so every accessor -- not just makeState's events -- agrees
// with the saved view spec §4.4 requires while deactivated.
func (s *Service) effectiveStatus() model.Status {
	s.mu.Lock()
	active := s.active
	saved := s.savedState
	have := s.haveSaved
	s.mu.Unlock()
	if !active && have {
		return saved.Status
	}
	return s.facade.Status()
}

// TransportState implements Playlist.TransportState.
func (s *Service) TransportState() string {
	return eventbase.TransportState(s.effectiveStatus().State)
}

// ID implements Playlist.Id: the stable id of the current track, or 0.
func (s *Service) ID() int {
	st := s.effectiveStatus()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.mpdID == st.SongID {
			return e.ohID
		}
	}
	return 0
}

// Read implements Playlist.Read: the DIDL-Lite metadata for one id.
func (s *Service) Read(id int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ohID == id {
			return e.didl, true
		}
	}
	return "", false
}

// ReadList implements Playlist.ReadList: metadata for each id in ids,
// skipping any that are no longer present in the queue.
func (s *Service) ReadList(ids []int) []struct {
	ID   int
	Didl string
} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]struct {
		ID   int
		Didl string
	}, 0, len(ids))
	for _, id := range ids {
		for _, e := range s.entries {
			if e.ohID == id {
				out = append(out, struct {
					ID   int
					Didl string
				}{id, e.didl})
				break
			}
		}
	}
	return out
}

// Insert implements Playlist.Insert: stores the metadata in the
// persistent cache first (so it survives even if the MPD insertion
// below fails partway through), then inserts into MPD after afterID
// (0 meaning "at the head"), and returns the new stable id.
func (s *Service) Insert(afterID int, uri, metadata string) (int, bool) {
	if metadata != "" {
		s.cache.Set(uri, metadata)
	}
	tr := trackFromDidl(uri, metadata)

	var mpdID int
	if afterID == 0 {
		mpdID = s.facade.Insert(uri, 0, tr)
	} else {
		s.mu.Lock()
		afterMpdID := -1
		for _, e := range s.entries {
			if e.ohID == afterID {
				afterMpdID = e.mpdID
				break
			}
		}
		s.mu.Unlock()
		if afterMpdID < 0 {
			return 0, false
		}
		mpdID = s.facade.InsertAfterID(uri, afterMpdID, tr)
	}
	if mpdID < 0 {
		return 0, false
	}
	s.resync()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.mpdID == mpdID && e.uri == uri {
			return e.ohID, true
		}
	}
	return 0, false
}

// DeleteID implements Playlist.DeleteId.
func (s *Service) DeleteID(id int) bool {
	s.mu.Lock()
	mpdID := -1
	for _, e := range s.entries {
		if e.ohID == id {
			mpdID = e.mpdID
			break
		}
	}
	s.mu.Unlock()
	if mpdID < 0 {
		return false
	}
	if !s.facade.DeleteID(mpdID) {
		return false
	}
	s.resync()
	return true
}

// DeleteAll implements Playlist.DeleteAll.
func (s *Service) DeleteAll() bool {
	if !s.facade.ClearQueue() {
		return false
	}
	s.resync()
	return true
}

// TracksMax implements Playlist.TracksMax.
func (s *Service) TracksMaxConst() int { return TracksMax }

// IDArray implements Playlist.IdArray: a change token plus the
// base64-encoded id sequence.
func (s *Service) IDArray() (token string, array string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint32, len(s.entries))
	for i, e := range s.entries {
		ids[i] = uint32(e.ohID)
	}
	return strconv.Itoa(s.arrayToken), encodeIDArray(ids)
}

// IDArrayChanged implements Playlist.IdArrayChanged: whether the array
// has changed since the caller last observed token.
func (s *Service) IDArrayChanged(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token != strconv.Itoa(s.arrayToken)
}

// ProtocolInfo implements Playlist.ProtocolInfo.
func (s *Service) ProtocolInfo() string { return protocolInfo }

// URIMeta looks up the DIDL-Lite metadata cached for uri, satisfying
// the device.Registry sibling accessor transport-compat uses to
// recover metadata for a track the control point queued directly
// (without going through this service) per spec §9's "Cyclic
// references" resolution.
func (s *Service) URIMeta(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.uri == uri {
			return e.didl, true
		}
	}
	if s.cache != nil {
		return s.cache.Get(uri)
	}
	return "", false
}

// SetActive(false) freezes the upnp-visible view by saving MPD state
// and clearing its queue; SetActive(true) restores it. Used by the
// product/source-select multiplexer when switching away from, or back
// to, the playlist source (spec §4.4 "Active/inactive").
func (s *Service) SetActive(on bool) bool {
	s.mu.Lock()
	wasActive := s.active
	s.mu.Unlock()
	if on == wasActive {
		return true
	}
	if !on {
		st, ok := s.facade.SaveState(0)
		if !ok {
			return false
		}
		s.mu.Lock()
		s.savedState = st
		s.haveSaved = true
		s.active = false
		s.mu.Unlock()
		s.facade.ClearQueue()
		return true
	}
	s.mu.Lock()
	st := s.savedState
	have := s.haveSaved
	s.active = true
	s.mu.Unlock()
	if !have {
		return true
	}
	if !s.facade.RestoreState(st) {
		log.Errorf("playlist: restore state failed on reactivation")
		return false
	}
	s.resync()
	return true
}

func trackFromDidl(uri, metadata string) model.Track {
	t := model.Track{DIDLFragment: metadata}
	t.Resource.URI = uri
	return t
}
