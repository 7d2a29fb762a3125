package playlist

import (
	"strconv"
	"testing"

	"github.com/jfdockes/upmpdcli-go/internal/metacache"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// fakeFacade is a minimal in-memory stand-in for *mpdfacade.Facade,
// just enough to drive the playlist service's queue-owning logic
// without a live MPD connection.
type fakeFacade struct {
	queue   []model.Track
	nextID  int
	vers    int
	playing bool
	songPos int
}

func newFakeFacade() *fakeFacade { return &fakeFacade{nextID: 1} }

func (f *fakeFacade) Status() model.Status {
	st := model.Status{QueueVersion: f.vers, QueueLen: len(f.queue), SongPos: f.songPos}
	if f.songPos >= 0 && f.songPos < len(f.queue) {
		st.SongID = f.queue[f.songPos].MPDID
	}
	return st
}
func (f *fakeFacade) Subscribe(mask mpdfacade.EventMask, fn mpdfacade.EventFunc) {}
func (f *fakeFacade) Play(pos int) bool                                          { f.songPos = pos; return true }
func (f *fakeFacade) PlayID(id int) bool {
	for i, t := range f.queue {
		if t.MPDID == id {
			f.songPos = i
			return true
		}
	}
	return false
}
func (f *fakeFacade) Pause(on bool) bool       { return true }
func (f *fakeFacade) Stop() bool               { f.songPos = -1; return true }
func (f *fakeFacade) Next() bool               { f.songPos++; return true }
func (f *fakeFacade) Previous() bool           { f.songPos--; return true }
func (f *fakeFacade) Repeat(on bool) bool      { return true }
func (f *fakeFacade) RandomPlay(on bool) bool  { return true }
func (f *fakeFacade) Seek(seconds int) bool    { return true }
func (f *fakeFacade) ClearQueue() bool {
	f.queue = nil
	f.vers++
	return true
}

func (f *fakeFacade) Insert(uri string, pos int, meta model.Track) int {
	id := f.nextID
	f.nextID++
	tr := meta
	tr.Resource.URI = uri
	tr.MPDID = id
	if pos < 0 || pos >= len(f.queue) {
		f.queue = append(f.queue, tr)
	} else {
		f.queue = append(f.queue[:pos], append([]model.Track{tr}, f.queue[pos:]...)...)
	}
	f.vers++
	return id
}

func (f *fakeFacade) InsertAfterID(uri string, id int, meta model.Track) int {
	if id == 0 {
		return f.Insert(uri, 0, meta)
	}
	for i, t := range f.queue {
		if t.MPDID == id {
			return f.Insert(uri, i+1, meta)
		}
	}
	return f.Insert(uri, -1, meta)
}

func (f *fakeFacade) DeleteID(id int) bool {
	for i, t := range f.queue {
		if t.MPDID == id {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			f.vers++
			return true
		}
	}
	return false
}

func (f *fakeFacade) GetQueueData() ([]model.Track, bool) {
	out := make([]model.Track, len(f.queue))
	copy(out, f.queue)
	return out, true
}

func (f *fakeFacade) SaveState(seekMS int) (model.State, bool) {
	queue, _ := f.GetQueueData()
	return model.State{Status: f.Status(), Queue: queue}, true
}

func (f *fakeFacade) RestoreState(st model.State) bool {
	f.queue = nil
	f.vers++
	for _, tr := range st.Queue {
		f.Insert(tr.Resource.URI, -1, tr)
	}
	return true
}

type fakeNotifier struct{ calls int }

func (n *fakeNotifier) NotifyEvent(serviceID string, names, values []string) { n.calls++ }

// TestInsertAndIDArray exercises scenario C from spec.md §8: insert
// into an empty queue, read the id array back, and observe
// IdArrayChanged flip only across the next structural change.
func TestInsertAndIDArray(t *testing.T) {
	ff := newFakeFacade()
	s := New("uuid:pl", ff, &fakeNotifier{}, metacache.New())

	id1, ok := s.Insert(0, "u1", "m1")
	if !ok {
		t.Fatalf("Insert failed")
	}
	token, arr := s.IDArray()
	if arr == "" {
		t.Fatalf("expected non-empty id array")
	}
	if s.IDArrayChanged(token) {
		t.Fatalf("IdArrayChanged should be false for the just-observed token")
	}

	if _, ok := s.Insert(0, "u2", "m2"); !ok {
		t.Fatalf("second Insert failed")
	}
	if !s.IDArrayChanged(token) {
		t.Fatalf("IdArrayChanged should be true after a structural change")
	}

	didl, ok := s.Read(id1)
	if !ok || didl != "m1" {
		t.Fatalf("Read(%d) = %q, %v; want m1, true", id1, didl, ok)
	}
}

// TestSeekIDAndDeleteID verifies id-addressed operations route to the
// matching MPD id even after ids have been reassigned by a resync.
func TestSeekIDAndDeleteID(t *testing.T) {
	ff := newFakeFacade()
	s := New("uuid:pl", ff, &fakeNotifier{}, metacache.New())

	id1, _ := s.Insert(0, "u1", "")
	id2, _ := s.Insert(id1, "u2", "")

	if !s.SeekID(id2) {
		t.Fatalf("SeekID(%d) failed", id2)
	}
	if ff.songPos != 1 {
		t.Fatalf("songPos = %d, want 1", ff.songPos)
	}

	if !s.DeleteID(id1) {
		t.Fatalf("DeleteID(%d) failed", id1)
	}
	if _, ok := s.Read(id1); ok {
		t.Fatalf("expected id1 to be gone after delete")
	}
}

// TestSetActiveSaveRestore covers property 10's transfer half for the
// playlist service directly: deactivating saves the queue, clearing
// it in MPD; reactivating restores it verbatim.
func TestSetActiveSaveRestore(t *testing.T) {
	ff := newFakeFacade()
	s := New("uuid:pl", ff, &fakeNotifier{}, metacache.New())
	s.Insert(0, "u1", "")
	s.Insert(0, "u2", "")

	if !s.SetActive(false) {
		t.Fatalf("SetActive(false) failed")
	}
	if len(ff.queue) != 0 {
		t.Fatalf("expected MPD queue cleared while inactive, got %d entries", len(ff.queue))
	}
	if !s.SetActive(true) {
		t.Fatalf("SetActive(true) failed")
	}
	if len(ff.queue) != 2 {
		t.Fatalf("expected queue restored to 2 entries, got %d", len(ff.queue))
	}
}

// TestFrozenViewWhileInactive covers spec §4.4's "freezes its
// upnp-visible state so that events continue to report the saved
// view": once deactivated, whatever another source (e.g. Radio) does
// to the shared MPD queue must not leak into IdArray/Id/makeState.
func TestFrozenViewWhileInactive(t *testing.T) {
	ff := newFakeFacade()
	s := New("uuid:pl", ff, &fakeNotifier{}, metacache.New())
	id1, _ := s.Insert(0, "u1", "m1")
	s.Insert(0, "u2", "m2")

	tokenBefore, arrBefore := s.IDArray()
	idBefore := s.ID()

	if !s.SetActive(false) {
		t.Fatalf("SetActive(false) failed")
	}

	// Radio (or any other now-active source) takes over the shared
	// facade and churns the MPD queue underneath us.
	ff.ClearQueue()
	ff.Insert("radio-stream", 0, model.Track{})
	ff.Play(0)
	s.resync()

	tokenAfter, arrAfter := s.IDArray()
	if tokenAfter != tokenBefore || arrAfter != arrBefore {
		t.Fatalf("IdArray changed while inactive: before (%s,%s) after (%s,%s)",
			tokenBefore, arrBefore, tokenAfter, arrAfter)
	}
	if got := s.ID(); got != idBefore {
		t.Fatalf("Id() = %d while inactive, want frozen %d", got, idBefore)
	}
	if didl, ok := s.Read(id1); !ok || didl != "m1" {
		t.Fatalf("Read(%d) = %q, %v while inactive; want m1, true", id1, didl, ok)
	}

	live := ff.Status()
	got := s.makeState(&live)
	want := strconv.Itoa(idBefore)
	if got["Id"] != want {
		t.Fatalf("makeState Id = %q while inactive, want %q", got["Id"], want)
	}
}
