package transport

import (
	"testing"

	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// TestPlayModeBijection covers property 5: the six declared modes map
// to distinct (repeat, random, single) triples, and decoding an
// undeclared triple falls through to NORMAL.
func TestPlayModeBijection(t *testing.T) {
	modes := []string{"NORMAL", "SHUFFLE", "REPEAT_ONE", "REPEAT_ALL", "RANDOM", "DIRECT_1"}
	seen := map[[3]bool]string{}
	for _, m := range modes {
		r, rnd, s, ok := ModeToFlags(m)
		if !ok {
			t.Fatalf("ModeToFlags(%s) not ok", m)
		}
		key := [3]bool{r, rnd, s}
		if other, dup := seen[key]; dup {
			t.Fatalf("modes %s and %s map to the same triple", m, other)
		}
		seen[key] = m
		if got := FlagsToMode(r, rnd, s); got != m {
			t.Fatalf("FlagsToMode(%v,%v,%v) = %s, want %s", r, rnd, s, got, m)
		}
	}
	if got := FlagsToMode(true, true, true); got != "NORMAL" {
		t.Fatalf("undeclared triple should fall through to NORMAL, got %s", got)
	}
}

type fakeFacade struct {
	queue []model.Track
	state model.PlayState
	pos   int
}

func (f *fakeFacade) Status() model.Status {
	st := model.Status{State: f.state, SongPos: f.pos}
	if f.pos >= 0 && f.pos < len(f.queue) {
		st.CurrentSong = f.queue[f.pos]
	}
	return st
}
func (f *fakeFacade) Subscribe(mpdfacade.EventMask, mpdfacade.EventFunc) {}
func (f *fakeFacade) Play(pos int) bool                                  { f.pos = pos; f.state = model.StatePlaying; return true }
func (f *fakeFacade) Pause(on bool) bool {
	if on {
		f.state = model.StatePaused
	} else {
		f.state = model.StatePlaying
	}
	return true
}
func (f *fakeFacade) TogglePause() bool   { return f.Pause(f.state != model.StatePaused) }
func (f *fakeFacade) Stop() bool          { f.state = model.StateStopped; return true }
func (f *fakeFacade) Next() bool          { f.pos++; return true }
func (f *fakeFacade) Previous() bool      { f.pos--; return true }
func (f *fakeFacade) Seek(int) bool       { return true }
func (f *fakeFacade) Repeat(bool) bool    { return true }
func (f *fakeFacade) RandomPlay(bool) bool { return true }
func (f *fakeFacade) Single(bool) bool    { return true }
func (f *fakeFacade) Consume(bool) bool   { return true }
func (f *fakeFacade) ClearQueue() bool    { f.queue = nil; return true }
func (f *fakeFacade) DeletePosRange(start, end uint) bool {
	if int(end) > len(f.queue) {
		end = uint(len(f.queue))
	}
	f.queue = append(f.queue[:start], f.queue[end:]...)
	return true
}
func (f *fakeFacade) Insert(uri string, pos int, meta model.Track) int {
	tr := meta
	tr.Resource.URI = uri
	if pos < 0 || pos >= len(f.queue) {
		f.queue = append(f.queue, tr)
	} else {
		f.queue = append(f.queue[:pos], append([]model.Track{tr}, f.queue[pos:]...)...)
	}
	return len(f.queue)
}
func (f *fakeFacade) GetQueueData() ([]model.Track, bool) {
	out := make([]model.Track, len(f.queue))
	copy(out, f.queue)
	return out, true
}

type fakeNotifier struct{}

func (fakeNotifier) NotifyEvent(string, []string, []string) {}

type fakeRegistry struct{}

func (fakeRegistry) RadioActive() bool                       { return false }
func (fakeRegistry) PlaylistURIMeta(string) (string, bool)    { return "", false }

// TestScenarioA_Play covers spec.md §8 scenario A: SetAVTransportURI
// followed by Play transitions to PLAYING with the queue holding only
// the new URI.
func TestScenarioA_Play(t *testing.T) {
	ff := &fakeFacade{pos: -1}
	s := New("uuid:avt", ff, fakeNotifier{}, fakeRegistry{}, Config{OwnQueue: true}, nil)

	meta := `<DIDL-Lite><item><res protocolInfo="http-get:*:audio/mpeg:*">http://host/a.mp3</res></item></DIDL-Lite>`
	if !s.SetAVTransportURI("http://host/a.mp3", meta) {
		t.Fatalf("SetAVTransportURI failed")
	}
	if !s.PlayCmd() {
		t.Fatalf("Play failed")
	}
	if len(ff.queue) != 1 || ff.queue[0].Resource.URI != "http://host/a.mp3" {
		t.Fatalf("unexpected queue: %+v", ff.queue)
	}
	if got, _, _ := s.GetTransportInfo(); got != "PLAYING" {
		t.Fatalf("transport state = %s, want PLAYING", got)
	}
}

// TestScenarioB_SetNextTrim covers spec.md §8 scenario B: two
// SetNextAVTransportURI calls retain only the most recent next URI.
func TestScenarioB_SetNextTrim(t *testing.T) {
	ff := &fakeFacade{pos: 0, queue: []model.Track{{Resource: model.Resource{URI: "A"}}, {Resource: model.Resource{URI: "B"}}}}
	s := New("uuid:avt", ff, fakeNotifier{}, fakeRegistry{}, Config{OwnQueue: true}, nil)

	if !s.SetNextAVTransportURI("C1", "") {
		t.Fatalf("first SetNextAVTransportURI failed")
	}
	if !s.SetNextAVTransportURI("C2", "") {
		t.Fatalf("second SetNextAVTransportURI failed")
	}
	if len(ff.queue) != 2 || ff.queue[1].Resource.URI != "C2" {
		t.Fatalf("expected final queue [A, C2], got %+v", ff.queue)
	}
}
