// Package mpdfacade wraps an MPD server connection with the behaviors
// the renderer needs on top of the bare protocol: a kept-alive command
// connection with automatic reconnect-and-retry, a second connection
// dedicated to MPD's "idle" event notifications, a play-time poller
// that fills the gap between idle events while a track is playing, an
// insert-after-id shortcut that avoids a full queue re-read on the
// common case, and save/restore of the full player state across a
// source switch.
package mpdfacade

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/helper"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// EventMask selects which MPD idle subsystems a subscriber cares
// about. Values mirror MPD's own idle.h bit assignments so a
// subscription mask composes directly from the idle subsystem names.
type EventMask int

const (
	QueueEvt  EventMask = 0x4
	PlayerEvt EventMask = 0x8
	MixerEvt  EventMask = 0x10
	OptsEvt   EventMask = 0x40
)

var idleSubsystems = []string{"playlist", "player", "mixer", "options"}

var idleSubsystemMask = map[string]EventMask{
	"playlist": QueueEvt,
	"player":   PlayerEvt,
	"mixer":    MixerEvt,
	"options":  OptsEvt,
}

// EventFunc receives the refreshed status snapshot whenever a
// subscribed subsystem fires.
type EventFunc func(*model.Status)

type subscription struct {
	mask EventMask
	fn   EventFunc
}

// Facade is a single MPD server connection, management goroutines and
// all. It is safe for concurrent use; callers never see the
// underlying *mpd.Client.
type Facade struct {
	host, port, password string
	timeout              time.Duration

	onStart, onPlay, onPause, onStop string
	onVolumeChange                  []string
	getExternalVolume               []string
	externalVolumeControl           bool

	connMu sync.Mutex
	conn   *mpd.Client

	mu           sync.RWMutex
	status       model.Status
	cachedVolume int

	haveAddTagID bool

	lastInsertID   int
	lastInsertPos  int
	lastInsertVers int

	muted       bool
	premuteVol  int

	subMu sync.Mutex
	subs  []subscription

	idleStop   chan struct{}
	idleDone   chan struct{}
	pollMu     sync.Mutex
	pollCancel chan struct{}
	running    bool
}

// Options configures a new Facade. Zero values are sane defaults
// except Host, which is required.
type Options struct {
	Host, Port, Password   string
	TimeoutMS              int
	OnStart, OnPlay        string
	OnPause, OnStop        string
	OnVolumeChange         []string
	GetExternalVolume      []string
	ExternalVolumeControl  bool
}

// New opens the command connection and starts the idle/event loop.
// It returns a non-nil Facade even on connection failure; call OK to
// check, exactly like the original's constructor, so the service tree
// can be built and retried without restarting the process.
func New(opts Options) *Facade {
	timeout := 2000 * time.Millisecond
	if opts.TimeoutMS > 0 {
		timeout = time.Duration(opts.TimeoutMS) * time.Millisecond
	}
	f := &Facade{
		host:                  opts.Host,
		port:                  opts.Port,
		password:              opts.Password,
		timeout:               timeout,
		onStart:               opts.OnStart,
		onPlay:                opts.OnPlay,
		onPause:               opts.OnPause,
		onStop:                opts.OnStop,
		onVolumeChange:        opts.OnVolumeChange,
		getExternalVolume:     opts.GetExternalVolume,
		externalVolumeControl: opts.ExternalVolumeControl,
		cachedVolume:          50,
		lastInsertID:          -1,
		lastInsertPos:         -1,
		lastInsertVers:        -1,
	}
	if f.port == "" {
		f.port = "6600"
	}
	f.connMu.Lock()
	ok := f.openConnLocked()
	f.connMu.Unlock()
	if ok {
		f.haveAddTagID = f.checkForCommand("addtagid")
		f.updateStatus()
		f.StartEventLoop()
	}
	return f
}

// OK reports whether the command connection is currently usable.
func (f *Facade) OK() bool {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	return f.conn != nil
}

// ForceInternalVControl drops any external-volume-script
// configuration, used on the auxiliary songcast facade that must
// scale its own stream even when the main renderer delegates volume
// to an external script.
func (f *Facade) ForceInternalVControl() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getExternalVolume = nil
	if f.externalVolumeControl {
		f.onVolumeChange = nil
	}
	f.externalVolumeControl = false
}

func (f *Facade) addr() string {
	return fmt.Sprintf("%s:%s", f.host, f.port)
}

// openConnLocked replaces the command connection. Caller holds connMu.
func (f *Facade) openConnLocked() bool {
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	var c *mpd.Client
	var err error
	if f.password != "" {
		c, err = mpd.DialAuthenticated("tcp", f.addr(), f.password)
	} else {
		c, err = mpd.Dial("tcp", f.addr())
	}
	if err != nil {
		log.Errorf("mpdfacade: connect to %s failed: %v", f.addr(), err)
		return false
	}
	f.conn = c
	return true
}

// showErrorLocked inspects the last error against the connection and
// reopens it on a closed-connection condition, mirroring
// MPDCli::showError's reconnect-on-MPD_ERROR_CLOSED behavior. Callers
// hold connMu.
func (f *Facade) showErrorLocked(who string, err error) bool {
	if err == nil {
		return false
	}
	log.Errorf("mpdfacade: %s failed: %v", who, err)
	return f.openConnLocked()
}

// retry runs cmd up to twice, reopening the connection between
// attempts on failure, matching the original's RETRY_CMD macro.
func (f *Facade) retry(who string, cmd func() error) bool {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil && !f.openConnLocked() {
		return false
	}
	for i := 0; i < 2; i++ {
		if err := cmd(); err == nil {
			return true
		} else if i == 1 || !f.showErrorLocked(who, err) {
			return false
		}
	}
	return false
}

func (f *Facade) checkForCommand(name string) bool {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return false
	}
	cmds, err := f.conn.Command("commands").Strings("command")
	if err != nil {
		return false
	}
	for _, c := range cmds {
		if c == name {
			return true
		}
	}
	return false
}

// updateStatus refreshes the cached status snapshot and runs the
// configured onstart/onplay/onpause/onstop hooks on state transitions,
// the same triggers MPDCli::updStatus fires.
func (f *Facade) updateStatus() bool {
	f.connMu.Lock()
	if f.conn == nil && !f.openConnLocked() {
		f.connMu.Unlock()
		return false
	}
	a, err := f.conn.Status()
	if err != nil {
		if !f.openConnLocked() {
			f.connMu.Unlock()
			return false
		}
		a, err = f.conn.Status()
		if err != nil {
			f.connMu.Unlock()
			return false
		}
	}
	f.connMu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	volume := -1
	if f.externalVolumeControl && len(f.getExternalVolume) > 0 {
		volume = f.runExternalVolume()
	} else {
		volume = attrInt(a, "volume", -1)
	}
	if volume >= 0 {
		f.cachedVolume = volume
	} else {
		volume = f.cachedVolume
	}

	prevState := f.status.State
	next := snapshotStatus(a, f.status, volume)
	f.runTransitionHooks(prevState, next.State)

	if next.SongPos >= 0 {
		prevURI := f.status.CurrentSong.Resource.URI
		f.connMu.Lock()
		cur, _ := f.conn.CurrentSong()
		nxt, _ := f.conn.PlaylistInfo(next.SongPos+1, next.SongPos+2)
		f.connMu.Unlock()
		next.CurrentSong = mapSong(cur)
		if len(nxt) > 0 {
			next.NextSong = mapSong(nxt[0])
		}
		if next.CurrentSong.Resource.URI != prevURI {
			next.TrackCounter++
			next.DetailsCounter = 0
		}
		if next.BitrateKbps > 0 {
			next.CurrentSong.Resource.BitrateKbps = uint32(next.BitrateKbps)
			next.CurrentSong.Resource.SampleRateHz = uint32(next.SampleRateHz)
			next.CurrentSong.Resource.BitsPerSample = uint16(next.BitDepth)
			next.CurrentSong.Resource.Channels = uint16(next.Channels)
		}
	}
	f.status = next
	return true
}

func (f *Facade) runTransitionHooks(prev, next model.PlayState) {
	run := func(cmd string) {
		if cmd == "" {
			return
		}
		if err := helper.Run(cmd); err != nil {
			log.Errorf("mpdfacade: hook %q failed: %v", cmd, err)
		}
	}
	switch next {
	case model.StateStopped:
		if prev == model.StatePlaying || prev == model.StatePaused {
			run(f.onStop)
		}
	case model.StatePlaying:
		if prev == model.StateUnknown || prev == model.StateStopped || prev == model.StatePaused {
			run(f.onPlay)
		}
	case model.StatePaused:
		if prev == model.StatePlaying {
			run(f.onPause)
		}
	}
}

func (f *Facade) runExternalVolume() int {
	out, err := helper.Backtick(f.getExternalVolume)
	if err != nil {
		log.Errorf("mpdfacade: external volume command failed: %v", err)
		return -1
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return -1
	}
	return n
}

// Status returns a copy of the last refreshed snapshot. The idle loop
// keeps it current, so callers should not need to force a refresh.
func (f *Facade) Status() model.Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

// Subscribe registers fn to be called with the fresh status whenever
// one of the subsystems in mask fires. Called by services during
// construction, exactly as subscribe() is in the original.
func (f *Facade) Subscribe(mask EventMask, fn EventFunc) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	f.subs = append(f.subs, subscription{mask: mask, fn: fn})
}

func (f *Facade) dispatch(mask EventMask) {
	st := f.Status()
	f.subMu.Lock()
	subs := append([]subscription(nil), f.subs...)
	f.subMu.Unlock()
	for _, s := range subs {
		if s.mask&mask != 0 {
			s.fn(&st)
		}
	}
}
