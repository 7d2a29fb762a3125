package mpdfacade

import (
	"time"

	"github.com/fhs/gompd/v2/mpd"
	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// StartEventLoop launches the idle-connection goroutine if it is not
// already running. Safe to call more than once.
func (f *Facade) StartEventLoop() {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		log.Info("mpdfacade: event loop already started")
		return
	}
	f.running = true
	f.idleStop = make(chan struct{})
	f.idleDone = make(chan struct{})
	f.mu.Unlock()

	go f.eventLoop(f.idleStop, f.idleDone)
}

// StopEventLoop signals the idle goroutine to exit and waits for it.
func (f *Facade) StopEventLoop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	stop, done := f.idleStop, f.idleDone
	f.mu.Unlock()

	close(stop)
	<-done

	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
}

// TakeEvents moves from's subscriptions onto f and starts f's event
// loop, stopping from's. Used when a songcast facade swap promotes a
// secondary connection to primary.
func (f *Facade) TakeEvents(from *Facade) {
	from.StopEventLoop()

	from.subMu.Lock()
	subs := append([]subscription(nil), from.subs...)
	from.subMu.Unlock()

	f.subMu.Lock()
	f.subs = subs
	f.subMu.Unlock()

	f.StartEventLoop()
}

// ShouldExit is the shutdown hook the device registry calls on every
// facade before process exit.
func (f *Facade) ShouldExit() {
	f.StopEventLoop()
}

func (f *Facade) eventLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		w, err := f.dialWatcher()
		if err != nil {
			log.Infof("mpdfacade: idle connection failed: %v", err)
			select {
			case <-time.After(2 * time.Second):
				continue
			case <-stop:
				return
			}
		}

		f.updateStatus()
		f.pollerCtl(f.Status().State)

	inner:
		for {
			select {
			case <-stop:
				w.Close()
				f.pollerCtl(model.StateStopped)
				return
			case subsystem, ok := <-w.Event:
				if !ok {
					w.Close()
					break inner
				}
				mask, known := idleSubsystemMask[subsystem]
				if !known {
					continue
				}
				f.updateStatus()
				f.pollerCtl(f.Status().State)
				f.dispatch(mask)
				// Rate-limit: big list insertions fire many queue
				// events in a row, and updating on every one is
				// wasteful.
				time.Sleep(time.Second)
			case err, ok := <-w.Error:
				if !ok {
					continue
				}
				log.Errorf("mpdfacade: idle watcher error: %v", err)
			}
		}
		// Connection dropped: reconnect unless told to stop.
		select {
		case <-stop:
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *Facade) dialWatcher() (*mpd.Watcher, error) {
	var w *mpd.Watcher
	var err error
	if f.password != "" {
		w, err = mpd.NewWatcher("tcp", f.addr(), f.password, idleSubsystems...)
	} else {
		w, err = mpd.NewWatcher("tcp", f.addr(), "", idleSubsystems...)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// pollerCtl starts or stops the play-time poller depending on state,
// matching MPDCli::pollerCtl: MPD doesn't emit idle events purely for
// elapsed-time advancing, so while playing we poll status once a
// second to keep OHTime/AVTransport position reports current.
func (f *Facade) pollerCtl(st model.PlayState) {
	f.pollMu.Lock()
	defer f.pollMu.Unlock()
	if st == model.StatePlaying {
		if f.pollCancel == nil {
			f.pollCancel = make(chan struct{})
			go f.timePoller(f.pollCancel)
		}
	} else if f.pollCancel != nil {
		close(f.pollCancel)
		f.pollCancel = nil
	}
}

func (f *Facade) timePoller(cancel <-chan struct{}) {
	for {
		f.updateStatus()
		f.dispatch(PlayerEvt)
		select {
		case <-cancel:
			return
		case <-time.After(time.Second):
		}
	}
}
