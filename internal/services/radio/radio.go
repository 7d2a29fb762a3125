// Package radio implements the OpenHome Radio service: a fixed list
// of configured channels (static URL, or a metadata-script-driven
// dynamic stream), plus a writable channel 0 for arbitrary
// control-point-supplied URLs. Dynamic metadata from a channel's
// script is routed to the Info service rather than this service's own
// channel metadata, so the station's logo/name stays put while the
// now-playing song changes underneath it.
package radio

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"sync"
	"time"

	goccyjson "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/helper"
	"github.com/jfdockes/upmpdcli-go/internal/model"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

var declaredOrder = []string{
	"TransportState", "Id", "IdArray", "ChannelsMax", "ProtocolInfo",
}

// HelperTimeout bounds a single invocation of a channel's resolver,
// metadata or art script.
const HelperTimeout = 8 * time.Second

// minRetryInterval is the floor spec §8 property 9 requires: a
// failing metadata script is retried no sooner than this.
const minRetryInterval = 2 * time.Second

// Channel is one configured radio station, static or script-driven.
type Channel struct {
	Title        string
	URL          string
	ArtURL       string
	ArtScript    string
	MetaScript   string
	PreferScript bool
}

// scriptReply is the JSON object a metadata script prints to stdout.
type scriptReply struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	ArtURL   string `json:"artUrl"`
	AudioURL string `json:"audioUrl"`
	Reload   int    `json:"reload"`
}

// dynamic holds the mutable, script-refreshed state for the currently
// selected channel.
type dynamic struct {
	title, artist, art, audioURL string
	nextEval                     time.Time
	playPending                  bool
	lastArtKey                   string
	retryBackoff                 time.Duration
}

// Facade is the narrowed MPD facade surface the radio service drives.
type Facade interface {
	Status() model.Status
	Subscribe(mask mpdfacade.EventMask, fn mpdfacade.EventFunc)
	Insert(uri string, pos int, meta model.Track) int
	ClearQueue() bool
	Single(on bool) bool
	Play(pos int) bool
	Stop() bool
	SaveState(seekMS int) (model.State, bool)
	RestoreState(st model.State) bool
}

// InfoSink is the Info service's narrow surface the radio service
// pushes dynamic now-playing metadata onto (spec §4.9).
type InfoSink interface {
	SetMetadata(metadata, metatext string)
	ClearMetadata()
}

// TransportFlag lets the radio service tell transport-compat that
// radio is active, so URI stasis isn't mistaken for "still the same
// track" there (spec §4.9's last paragraph).
type TransportFlag interface {
	SetRadioActive(on bool)
}

// StateStore persists the selected channel index keyed by the
// channel's stable identity (its static URL, or its metadata script
// command line when the URL is empty).
type StateStore interface {
	Get(name, section string) (string, bool)
	Set(name, value, section string) bool
}

// Service is the OpenHome Radio implementation.
type Service struct {
	*eventbase.Base
	facade       Facade
	info         InfoSink
	xport        TransportFlag
	state        StateStore
	resolverPath string

	mu       sync.Mutex
	channels []Channel // index 0 reserved for the ad-hoc control-point channel
	curIndex int
	dyn      dynamic
	active   bool
	saved    model.State
	haveSave bool
}

// New builds the service from the configured channel list (channel 0,
// the ad-hoc slot, is prepended automatically) and restores the
// persisted selection. resolverPath is the external playlist-to-
// stream-URL helper (spec §6's "Stream-URL resolver", the original's
// bundled rdpl2stream/fetchStream.py) invoked by Play for a channel
// with a static URL.
func New(serviceID string, facade Facade, notifier eventbase.Notifier, info InfoSink, xport TransportFlag, state StateStore, configured []Channel, resolverPath string) *Service {
	channels := append([]Channel{{Title: "Radio"}}, configured...)
	s := &Service{facade: facade, info: info, xport: xport, state: state, channels: channels, resolverPath: resolverPath, active: true}
	s.Base = eventbase.New(serviceID, "Radio", declaredOrder, s.makeState)

	if state != nil {
		if idxStr, ok := state.Get("lastradiochannel", ""); ok {
			if n, err := strconv.Atoi(idxStr); err == nil && n >= 0 && n < len(channels) {
				s.curIndex = n
			}
		}
	}

	facade.Subscribe(mpdfacade.PlayerEvt|mpdfacade.QueueEvt, func(st *model.Status) {
		s.onStatusRefresh(st)
		s.OnEvent(notifier, st)
	})
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]string{
		"TransportState": eventbase.TransportState(st.State),
		"Id":             strconv.Itoa(s.curIndex),
		"IdArray":        encodeIDArray(len(s.channels)),
		"ChannelsMax":    strconv.Itoa(len(s.channels)),
		"ProtocolInfo":   "http-get:*:audio/mpeg:*,http-get:*:application/ogg:*",
	}
}

func encodeIDArray(n int) string {
	buf := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(i))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// IDArray implements Radio.IdArray: a change token plus the
// base64-encoded sequence of every configured channel's index, the
// same encoding makeState uses for the eventable IdArray variable.
// There is no intervening queue-edit concept for Radio's static
// channel list (unlike Playlist's), so the token is just the channel
// count -- it only ever changes if the configured channel list itself
// is rebuilt, which doesn't happen after New returns.
func (s *Service) IDArray() (token string, array string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strconv.Itoa(len(s.channels)), encodeIDArray(len(s.channels))
}

// IDArrayChanged implements Radio.IdArrayChanged: whether the channel
// array has changed since the caller last observed token.
func (s *Service) IDArrayChanged(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token != strconv.Itoa(len(s.channels))
}

// onStatusRefresh implements the "on each status refresh" half of the
// play algorithm (spec §4.9 steps 2-4): re-invoking the metadata
// script when its re-eval time has been reached, and fetching station
// art once per (title, artist) change.
func (s *Service) onStatusRefresh(st *model.Status) {
	s.mu.Lock()
	idx := s.curIndex
	playPending := s.dyn.playPending
	dueForEval := s.channels[idx].MetaScript != "" &&
		(s.dyn.nextEval.IsZero() || !time.Now().Before(s.dyn.nextEval))
	ch := s.channels[idx]
	s.mu.Unlock()

	if st.State != model.StatePlaying && !playPending {
		return
	}
	if ch.MetaScript == "" {
		return
	}
	if !dueForEval && !playPending {
		return
	}
	s.evalMetaScript(ch, playPending)
}

func (s *Service) evalMetaScript(ch Channel, playPending bool) {
	out, err := helper.RunMetaScript(ch.MetaScript, int(s.facade.Status().ElapsedMS), HelperTimeout)
	if err != nil {
		// Script failure isolation (property 9): keep the previous
		// dynamic metadata, schedule a reduced-interval retry, don't
		// stop playback.
		log.Warnf("radio: metadata script failed: %v", err)
		s.mu.Lock()
		if s.dyn.retryBackoff == 0 {
			s.dyn.retryBackoff = minRetryInterval
		} else {
			s.dyn.retryBackoff *= 2
			if s.dyn.retryBackoff > 30*time.Second {
				s.dyn.retryBackoff = 30 * time.Second
			}
		}
		s.dyn.nextEval = time.Now().Add(s.dyn.retryBackoff)
		s.mu.Unlock()
		return
	}
	var reply scriptReply
	if err := goccyjson.Unmarshal([]byte(out), &reply); err != nil {
		log.Warnf("radio: metadata script produced unparseable JSON: %v", err)
		return
	}

	s.mu.Lock()
	s.dyn.retryBackoff = 0
	changed := reply.Title != s.dyn.title || reply.Artist != s.dyn.artist
	s.dyn.title, s.dyn.artist = reply.Title, reply.Artist
	if reply.Reload > 0 {
		s.dyn.nextEval = time.Now().Add(time.Duration(reply.Reload) * time.Second)
	} else {
		s.dyn.nextEval = time.Now().Add(minRetryInterval)
	}
	newAudio := reply.AudioURL != "" && reply.AudioURL != s.dyn.audioURL
	if reply.AudioURL != "" {
		s.dyn.audioURL = reply.AudioURL
	}
	shouldPlay := playPending
	s.dyn.playPending = false
	s.mu.Unlock()

	if newAudio {
		s.facade.Insert(reply.AudioURL, 0, model.Track{})
	}
	if shouldPlay {
		s.facade.Play(0)
	}
	if reply.ArtURL != "" {
		s.mu.Lock()
		s.dyn.art = reply.ArtURL
		s.mu.Unlock()
	} else if changed {
		s.fetchArt()
	}

	if s.info != nil {
		s.mu.Lock()
		text := s.dyn.artist
		if s.dyn.title != "" {
			if text != "" {
				text = s.dyn.title + " - " + text
			} else {
				text = s.dyn.title
			}
		}
		s.mu.Unlock()
		s.info.SetMetadata(reply.Title, text)
	}
}

func (s *Service) fetchArt() {
	s.mu.Lock()
	script := s.channels[s.curIndex].ArtScript
	key := s.dyn.title + "\x00" + s.dyn.artist
	already := s.dyn.lastArtKey == key
	s.dyn.lastArtKey = key
	s.mu.Unlock()
	if script == "" || already {
		return
	}
	url, err := helper.RunArtScript(script, HelperTimeout)
	if err != nil {
		log.Warnf("radio: art script failed: %v", err)
		return
	}
	s.mu.Lock()
	s.dyn.art = url
	s.mu.Unlock()
}

// Play implements Radio.Play: the channel play algorithm of spec
// §4.9.
func (s *Service) Play() bool {
	s.mu.Lock()
	ch := s.channels[s.curIndex]
	s.mu.Unlock()

	if s.xport != nil {
		s.xport.SetRadioActive(true)
	}

	if ch.URL != "" {
		if s.resolverPath == "" {
			log.Errorf("radio: no stream resolver script configured, cannot play %q", ch.URL)
			return false
		}
		streamURL, err := helper.ResolveStreamURL(s.resolverPath, ch.URL, HelperTimeout)
		if err != nil || streamURL == "" {
			log.Errorf("radio: stream resolver failed for %q: %v", ch.URL, err)
			return false
		}
		s.facade.Insert(streamURL, 0, model.Track{Name: ch.Title})
		s.facade.Single(true)
		return s.facade.Play(0)
	}

	if ch.MetaScript != "" {
		s.facade.ClearQueue()
		s.mu.Lock()
		s.dyn.playPending = true
		s.dyn.nextEval = time.Time{}
		s.mu.Unlock()
		return true
	}
	return false
}

func (s *Service) Stop() bool {
	if s.xport != nil {
		s.xport.SetRadioActive(false)
	}
	if s.info != nil {
		s.info.ClearMetadata()
	}
	return s.facade.Stop()
}

func (s *Service) TransportState() string { return eventbase.TransportState(s.facade.Status().State) }

func (s *Service) ID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curIndex
}

// SetID implements Radio.SetId: select a configured channel by index.
func (s *Service) SetID(id int) bool {
	s.mu.Lock()
	if id < 0 || id >= len(s.channels) {
		s.mu.Unlock()
		return false
	}
	s.curIndex = id
	s.dyn = dynamic{}
	s.mu.Unlock()
	if s.state != nil {
		s.state.Set("lastradiochannel", strconv.Itoa(id), "")
	}
	return true
}

// SetChannel implements Radio.SetChannel: overwrite the ad-hoc channel
// 0 with a control-point-supplied URL/metadata pair.
func (s *Service) SetChannel(uri, metadata string) bool {
	s.mu.Lock()
	s.channels[0] = Channel{Title: metadata, URL: uri}
	s.curIndex = 0
	s.dyn = dynamic{}
	s.mu.Unlock()
	return true
}

// Channel returns the configured channel at index id, for read/readList.
func (s *Service) Channel(id int) (Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.channels) {
		return Channel{}, false
	}
	return s.channels[id], true
}

func (s *Service) ChannelsMax() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

func (s *Service) SeekSecondAbsolute(secs int) bool { return false }
func (s *Service) SeekSecondRelative(delta int) bool { return false }

func (s *Service) ProtocolInfo() string {
	return "http-get:*:audio/mpeg:*,http-get:*:application/ogg:*"
}

// SetActive(false) saves MPD state and stops (spec §4.9's last
// paragraph); SetActive(true) restores it.
func (s *Service) SetActive(on bool) bool {
	s.mu.Lock()
	was := s.active
	s.mu.Unlock()
	if on == was {
		return true
	}
	if !on {
		st, ok := s.facade.SaveState(0)
		s.mu.Lock()
		s.saved, s.haveSave, s.active = st, ok, false
		s.mu.Unlock()
		return s.Stop()
	}
	s.mu.Lock()
	st, have := s.saved, s.haveSave
	s.active = true
	s.mu.Unlock()
	if have {
		return s.facade.RestoreState(st)
	}
	return true
}
