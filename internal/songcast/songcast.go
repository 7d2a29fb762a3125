// Package songcast implements the sender/receiver swap orchestrator:
// not an OpenHome service itself, but the mechanism behind the
// product multiplexer's songcast-backed sources. Enabling one either
// spawns a sender helper and redirects the root facade to a secondary
// MPD fed from its fifo (internal mode), or hands off entirely to an
// external script that manages its own sender (external mode).
package songcast

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/helper"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

// HealthCheckInterval is how often the active secondary facade is
// probed for liveness once a swap has completed.
const HealthCheckInterval = 5 * time.Second

// StartTimeout bounds the sender-starter helper invocation.
const StartTimeout = 10 * time.Second

// Receiver is the narrow OpenHome Receiver surface this orchestrator
// drives: set the upstream sender's URI/metadata, start and stop
// playback.
type Receiver interface {
	SetSender(uri, metadata string) bool
	Play() bool
	Stop() bool
}

// FacadeHolder exposes the swappable root MPD facade pointer, guarded
// by a sync.RWMutex on the caller's side (internal/device.Context in
// the assembled tree).
type FacadeHolder interface {
	Facade() *mpdfacade.Facade
	SetFacade(f *mpdfacade.Facade)
}

// Config carries the per-renderer songcast knobs (spec §4.11 plus the
// `scstreamscaled`/`scscriptgracesecs`/`scstreamcodec` supplemented
// settings from original_source/src/ohsndrcv.cxx).
type Config struct {
	StarterCmd     string // internal-sender starter, e.g. "upmpdcli-sendersartup"
	MPDPort        string // aux MPD's port, passed to the starter with -p
	FriendlyName   string
	ScaleStream    bool
	StreamCodec    string
	GraceTimeout   time.Duration
}

// Orchestrator owns the lifecycle of at most one active songcast
// pairing at a time.
type Orchestrator struct {
	holder FacadeHolder
	rcv    Receiver
	cfg    Config

	mu          sync.Mutex
	active      bool
	internal    bool
	secondary   *mpdfacade.Facade
	origFacade  *mpdfacade.Facade
	iuri, imeta string // cached internal sender URI/metadata, reused on restart
	stopHealth  chan struct{}
}

// New builds an orchestrator bound to the device's swappable facade
// pointer and the OpenHome Receiver service it drives.
func New(holder FacadeHolder, rcv Receiver, cfg Config) *Orchestrator {
	return &Orchestrator{holder: holder, rcv: rcv, cfg: cfg}
}

// StartFor begins a songcast pairing: script == "" selects the
// internal sender (reusing a prior sender+aux-mpd pair across
// start/stop/start, per spec §4.11); a non-empty script is the
// external-source path and always restarts.
func (o *Orchestrator) StartFor(script string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	primary := o.holder.Facade()
	if primary == nil {
		log.Error("songcast: no primary facade to pair against")
		return false
	}
	primary.Stop()

	var uri, meta string
	needRead := script != "" || o.secondary == nil

	if needRead {
		out, err := o.runStarter(script)
		if err != nil {
			log.Errorf("songcast: starter failed: %v", err)
			return false
		}
		var perr error
		uri, meta, perr = parseStarterOutput(out)
		if perr != nil {
			log.Errorf("songcast: %v", perr)
			return false
		}
		if script == "" {
			o.iuri, o.imeta = uri, meta
		}
	} else {
		uri, meta = o.iuri, o.imeta
	}

	if script == "" && needRead {
		sec := mpdfacade.New(mpdfacade.Options{Host: "localhost", Port: o.cfg.MPDPort})
		if !sec.OK() {
			log.Error("songcast: could not connect to auxiliary MPD")
			return false
		}
		o.secondary = sec
	}

	if !o.rcv.SetSender(uri, meta) || !o.rcv.Play() {
		log.Error("songcast: receiver could not start playback")
		o.teardownLocked()
		return false
	}

	if script == "" {
		copyState(primary, o.secondary, 0)
		if o.cfg.ScaleStream {
			o.secondary.ForceInternalVControl()
		}
		o.origFacade = primary
		if o.cfg.ScaleStream {
			primary.SetVolume(100)
		}
		o.secondary.TakeEvents(primary)
		o.holder.SetFacade(o.secondary)
		o.internal = true
	} else {
		o.origFacade = nil
		o.internal = false
	}

	o.active = true
	o.startHealthCheckLocked()
	return true
}

// Stop tears a pairing down: internal mode copies state back to the
// primary facade and restores it as active; external mode simply
// stops the receiver.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active {
		return true
	}
	o.rcv.Stop()
	o.teardownLocked()
	return true
}

func (o *Orchestrator) teardownLocked() {
	if o.stopHealth != nil {
		close(o.stopHealth)
		o.stopHealth = nil
	}
	if o.internal && o.origFacade != nil && o.secondary != nil {
		copyState(o.secondary, o.origFacade, -1)
		o.secondary.StopEventLoop()
		o.origFacade.TakeEvents(o.secondary)
		o.holder.SetFacade(o.origFacade)
	}
	o.origFacade = nil
	o.active = false
}

// startHealthCheckLocked runs Open Question (b)'s deliberate redesign:
// probe the secondary facade once the swap lands and on a periodic
// ticker while active, demoting (falling back to the primary) instead
// of dangling silently if it goes away.
func (o *Orchestrator) startHealthCheckLocked() {
	if !o.internal {
		return
	}
	stop := make(chan struct{})
	o.stopHealth = stop
	sec := o.secondary
	go func() {
		if !sec.Available() {
			log.Warn("songcast: auxiliary MPD unavailable immediately after swap")
			o.demote()
			return
		}
		ticker := time.NewTicker(HealthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !sec.Available() {
					log.Warn("songcast: auxiliary MPD became unavailable, falling back to primary")
					o.demote()
					return
				}
			}
		}
	}()
}

// demote falls back to the primary facade after a secondary health
// check failure, without touching the receiver (which the control
// point must still explicitly stop/retarget).
func (o *Orchestrator) demote() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active || !o.internal || o.origFacade == nil {
		return
	}
	log.Error("songcast: demoting to primary facade after health-check failure")
	o.secondary.StopEventLoop()
	o.origFacade.TakeEvents(o.secondary)
	o.holder.SetFacade(o.origFacade)
	o.origFacade = nil
	o.active = false
}

func copyState(src, dest *mpdfacade.Facade, seekMS int) bool {
	st, ok := src.SaveState(seekMS)
	if !ok {
		log.Error("songcast: saveState failed")
		return false
	}
	return dest.RestoreState(st)
}

// runStarter spawns the internal sender starter (script=="") or the
// external source script, per spec §4.11's argument conventions.
func (o *Orchestrator) runStarter(script string) (string, error) {
	grace := o.cfg.GraceTimeout
	if grace == 0 {
		grace = helper.GraceTimeout
	}
	if script == "" {
		args := []string{o.cfg.StarterCmd, "-p", o.cfg.MPDPort, "-f", helper.ShellQuote(o.cfg.FriendlyName)}
		if !o.cfg.ScaleStream {
			args = append(args, "-e")
		}
		if o.cfg.StreamCodec != "" && !strings.EqualFold(o.cfg.StreamCodec, "PCM") {
			args = append(args, "-C", o.cfg.StreamCodec)
		}
		return helper.RunShellGraced(strings.Join(args, " "), StartTimeout, grace)
	}
	cmdline := fmt.Sprintf("%s -f %s", script, helper.ShellQuote(o.cfg.FriendlyName))
	return helper.RunShellGraced(cmdline, StartTimeout, grace)
}

// parseStarterOutput decodes the starter's single reply line: "Ok
// <mpdport> URI <base64-uri> METADATA <base64-metadata>" (spec
// §4.11's "parse one line of output containing a mode token, a port,
// an encoded URI, and an encoded metadata string").
func parseStarterOutput(line string) (uri, meta string, err error) {
	toks := strings.Fields(line)
	if len(toks) != 6 || toks[0] != "Ok" {
		return "", "", fmt.Errorf("songcast: unexpected starter output: %q", line)
	}
	if _, err := strconv.Atoi(toks[1]); err != nil {
		return "", "", fmt.Errorf("songcast: bad port in starter output: %q", line)
	}
	uriRaw, err := base64.StdEncoding.DecodeString(toks[3])
	if err != nil {
		return "", "", fmt.Errorf("songcast: bad URI encoding: %w", err)
	}
	metaRaw, err := base64.StdEncoding.DecodeString(toks[5])
	if err != nil {
		return "", "", fmt.Errorf("songcast: bad metadata encoding: %w", err)
	}
	return string(uriRaw), string(metaRaw), nil
}
