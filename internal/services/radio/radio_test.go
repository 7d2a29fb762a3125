package radio

import (
	"testing"

	"github.com/jfdockes/upmpdcli-go/internal/model"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

type fakeFacade struct {
	queue      []model.Track
	state      model.PlayState
	single     bool
	savedState model.State
	haveSaved  bool
}

func (f *fakeFacade) Status() model.Status {
	st := model.Status{State: f.state}
	if len(f.queue) > 0 {
		st.CurrentSong = f.queue[0]
	}
	return st
}
func (f *fakeFacade) Subscribe(mpdfacade.EventMask, mpdfacade.EventFunc) {}
func (f *fakeFacade) Insert(uri string, pos int, meta model.Track) int {
	tr := meta
	tr.Resource.URI = uri
	f.queue = append([]model.Track{tr}, f.queue...)
	return len(f.queue)
}
func (f *fakeFacade) ClearQueue() bool { f.queue = nil; return true }
func (f *fakeFacade) Single(on bool) bool {
	f.single = on
	return true
}
func (f *fakeFacade) Play(pos int) bool { f.state = model.StatePlaying; return true }
func (f *fakeFacade) Stop() bool        { f.state = model.StateStopped; return true }
func (f *fakeFacade) SaveState(seekMS int) (model.State, bool) {
	f.haveSaved = true
	return f.savedState, true
}
func (f *fakeFacade) RestoreState(st model.State) bool { return true }

type fakeNotifier struct{}

func (fakeNotifier) NotifyEvent(string, []string, []string) {}

type fakeXport struct{ active bool }

func (x *fakeXport) SetRadioActive(on bool) { x.active = on }

type fakeInfo struct {
	meta, text  string
	cleared     bool
}

func (f *fakeInfo) SetMetadata(metadata, metatext string) { f.meta, f.text = metadata, metatext }
func (f *fakeInfo) ClearMetadata()                        { f.cleared = true }

// TestStaticChannelPlay covers spec.md §8 scenario E: playing a
// channel with a static URL inserts the stream and sets Single so the
// queue doesn't advance into silence.
func TestStaticChannelPlay(t *testing.T) {
	ff := &fakeFacade{}
	xp := &fakeXport{}
	s := New("uuid:radio", ff, fakeNotifier{}, nil, xp, nil, []Channel{
		{Title: "Test FM", URL: "http://stream.example/test.mp3"},
	}, "/bin/echo")
	if !s.SetID(1) {
		t.Fatalf("SetID(1) failed")
	}
	if !s.Play() {
		t.Fatalf("Play failed")
	}
	if len(ff.queue) != 1 || ff.queue[0].Resource.URI != "http://stream.example/test.mp3" {
		t.Fatalf("unexpected queue: %+v", ff.queue)
	}
	if !ff.single {
		t.Fatalf("expected Single(true) for a static radio channel")
	}
	if ff.state != model.StatePlaying {
		t.Fatalf("state = %v, want Playing", ff.state)
	}
	if !xp.active {
		t.Fatalf("expected transport RadioActive to be set")
	}
}

// TestMetaScriptFailureIsolation covers property 9: a metadata-script
// failure must not crash or clear existing dynamic metadata, and must
// schedule a retry rather than retrying immediately forever.
func TestMetaScriptFailureIsolation(t *testing.T) {
	ff := &fakeFacade{}
	s := New("uuid:radio", ff, fakeNotifier{}, &fakeInfo{}, &fakeXport{}, nil, []Channel{
		{Title: "Script FM", MetaScript: "/bin/false"},
	}, "/bin/echo")
	if !s.SetID(1) {
		t.Fatalf("SetID(1) failed")
	}
	if !s.Play() {
		t.Fatalf("Play failed")
	}
	s.mu.Lock()
	pending := s.dyn.playPending
	s.mu.Unlock()
	if !pending {
		t.Fatalf("expected playPending after Play() on a script channel")
	}

	s.evalMetaScript(s.channels[1], true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dyn.retryBackoff == 0 {
		t.Fatalf("expected a retry backoff to be scheduled after script failure")
	}
	if !s.dyn.playPending {
		t.Fatalf("playPending should survive a script failure so playback is retried, not abandoned")
	}
}

// TestSetActiveSaveRestore covers the radio half of property 10.
func TestSetActiveSaveRestore(t *testing.T) {
	ff := &fakeFacade{}
	s := New("uuid:radio", ff, fakeNotifier{}, &fakeInfo{}, &fakeXport{}, nil, nil, "/bin/echo")

	if !s.SetActive(false) {
		t.Fatalf("SetActive(false) failed")
	}
	if !ff.haveSaved {
		t.Fatalf("expected facade state to be saved on deactivation")
	}
	if ff.state != model.StateStopped {
		t.Fatalf("expected Stop() on deactivation")
	}
	if !s.SetActive(true) {
		t.Fatalf("SetActive(true) failed")
	}
}
