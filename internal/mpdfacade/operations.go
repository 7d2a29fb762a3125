package mpdfacade

import (
	"fmt"
	"strings"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/jfdockes/upmpdcli-go/internal/helper"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

// SetVolume sets the player volume in the 0-100 MPD scale. When
// onvolumechange hooks are configured, they run after the change with
// the new value as their single argument.
func (f *Facade) SetVolume(vol int) bool {
	if !f.retryConn("SetVolume", func() error { return f.conn.SetVolume(vol) }) {
		return false
	}
	f.mu.Lock()
	f.cachedVolume = vol
	if vol != 0 {
		f.muted = false
	}
	hooks := append([]string(nil), f.onVolumeChange...)
	f.mu.Unlock()
	for _, h := range hooks {
		go func(cmdline string) {
			_ = helper.Run(fmt.Sprintf("%s %d", cmdline, vol))
		}(h)
	}
	return true
}

// SetMute implements the premute-recall mute synthesis of spec §4.2:
// muting remembers the current volume before forcing it to zero;
// unmuting restores it, defaulting to 1 when the remembered value was
// itself zero. A redundant mute/unmute call (already in that state) is
// a no-op so repeated calls don't clobber the remembered value.
func (f *Facade) SetMute(on bool) bool {
	f.mu.Lock()
	if on {
		if f.muted {
			f.mu.Unlock()
			return true
		}
		f.premuteVol = f.cachedVolume
		f.muted = true
		f.mu.Unlock()
		return f.SetVolume(0)
	}
	if !f.muted {
		f.mu.Unlock()
		return true
	}
	restore := f.premuteVol
	if restore == 0 {
		restore = 1
	}
	f.muted = false
	f.mu.Unlock()
	return f.SetVolume(restore)
}

// Muted reports the synthesized mute flag (independent of the raw
// volume being zero from some other cause).
func (f *Facade) Muted() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.muted
}

// Volume returns the last known volume, pulling from the external
// script's output when external volume control is configured.
func (f *Facade) Volume() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status.Volume
}

func (f *Facade) TogglePause() bool {
	st := f.Status()
	return f.Pause(st.State != model.StatePaused)
}

func (f *Facade) Pause(onoff bool) bool {
	return f.retryConn("Pause", func() error { return f.conn.Pause(onoff) })
}

func (f *Facade) Play(pos int) bool {
	return f.retryConn("Play", func() error { return f.conn.Play(pos) })
}

func (f *Facade) PlayID(id int) bool {
	return f.retryConn("PlayID", func() error { return f.conn.PlayID(id) })
}

func (f *Facade) Stop() bool {
	return f.retryConn("Stop", func() error { return f.conn.Stop() })
}

func (f *Facade) Next() bool {
	return f.retryConn("Next", func() error { return f.conn.Next() })
}

func (f *Facade) Previous() bool {
	return f.retryConn("Previous", func() error { return f.conn.Previous() })
}

func (f *Facade) Repeat(on bool) bool {
	return f.retryConn("Repeat", func() error { return f.conn.Repeat(on) })
}

func (f *Facade) RandomPlay(on bool) bool {
	return f.retryConn("Random", func() error { return f.conn.Random(on) })
}

func (f *Facade) Single(on bool) bool {
	return f.retryConn("Single", func() error { return f.conn.Single(on) })
}

func (f *Facade) Consume(on bool) bool {
	return f.retryConn("Consume", func() error { return f.conn.Consume(on) })
}

func (f *Facade) Seek(seconds int) bool {
	st := f.Status()
	return f.retryConn("Seek", func() error { return f.conn.Seek(st.SongPos, seconds) })
}

func (f *Facade) ClearQueue() bool {
	return f.retryConn("ClearQueue", func() error { return f.conn.Clear() })
}

// Available runs a cheap round-trip against the connection without
// disturbing player state, used by internal/songcast to detect a
// secondary MPD instance that has gone away mid-session (design
// decision on Open Question (b): probe and demote instead of
// dangling silently).
func (f *Facade) Available() bool {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil && !f.openConnLocked() {
		return false
	}
	if err := f.conn.Ping(); err != nil {
		f.showErrorLocked("Available", err)
		return false
	}
	return true
}

// retryConn is retry() for operations whose body only touches f.conn,
// already holding connMu while it runs.
func (f *Facade) retryConn(who string, body func() error) bool {
	return f.retry(who, body)
}

// Insert adds uri to the queue at pos (-1 appends) and returns the new
// queue id, or -1 on failure. meta's artist/album/title/tracknum are
// pushed back to MPD via addtagid when the server supports it, so a
// "stream info" song shows useful metadata in other MPD clients too.
func (f *Facade) Insert(uri string, pos int, meta model.Track) int {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil && !f.openConnLocked() {
		return -1
	}
	var id int
	var err error
	if pos < 0 {
		id, err = f.conn.AddID(uri, -1)
	} else {
		id, err = f.conn.AddID(uri, pos)
	}
	if err != nil {
		if !f.showErrorLocked("Insert", err) {
			return -1
		}
		if pos < 0 {
			id, err = f.conn.AddID(uri, -1)
		} else {
			id, err = f.conn.AddID(uri, pos)
		}
		if err != nil {
			return -1
		}
	}

	f.mu.Lock()
	f.lastInsertID = id
	f.lastInsertPos = pos
	f.mu.Unlock()

	if f.haveAddTagID {
		f.sendTagDataLocked(id, meta)
	}

	f.connMu.Unlock()
	f.updateStatus()
	f.connMu.Lock()

	f.mu.Lock()
	f.lastInsertVers = f.status.QueueVersion
	f.mu.Unlock()
	return id
}

// InsertAfterID inserts uri right after queue id (0 meaning "at the
// start"), returning the new id. When the previous insert was for the
// same id and the queue hasn't changed since, the new position is
// computed directly instead of re-reading the whole queue -- the
// shortcut that makes bulk playlist loads fast.
func (f *Facade) InsertAfterID(uri string, id int, meta model.Track) int {
	if id == 0 {
		return f.Insert(uri, 0, meta)
	}
	f.updateStatus()

	f.mu.RLock()
	sameRun := f.lastInsertID == id && f.lastInsertPos >= 0 && f.lastInsertVers == f.status.QueueVersion
	lastPos := f.lastInsertPos
	f.mu.RUnlock()

	var newPos int
	if sameRun {
		newPos = lastPos + 1
	} else {
		f.connMu.Lock()
		songs, err := f.conn.PlaylistInfo(-1, -1)
		f.connMu.Unlock()
		if err != nil {
			return -1
		}
		newPos = len(songs)
		for i, s := range songs {
			if attrInt(s, "Id", -1) == id || i == len(songs)-1 {
				newPos = i + 1
				break
			}
		}
	}
	return f.Insert(uri, newPos, meta)
}

func (f *Facade) sendTagDataLocked(id int, meta model.Track) {
	cid := fmt.Sprintf("%d", id)
	f.sendTagLocked(cid, "artist", meta.Artist)
	f.sendTagLocked(cid, "album", meta.Album)
	f.sendTagLocked(cid, "title", meta.Title)
	f.sendTagLocked(cid, "track", meta.TrackNum)
	f.sendTagLocked(cid, "comment", "client=upmpdcli-go;")
}

func (f *Facade) sendTagLocked(cid, tag, data string) {
	if data == "" {
		return
	}
	clean := strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, data)
	_ = f.conn.Command("addtagid", cid, tag, clean).OK()
}

func (f *Facade) DeleteID(id int) bool {
	return f.retryConn("DeleteID", func() error { return f.conn.DeleteID(id) })
}

func (f *Facade) DeletePosRange(start, end uint) bool {
	return f.retryConn("DeletePosRange", func() error { return f.conn.Delete(int(start), int(end)) })
}

func (f *Facade) CurPos() int {
	return f.Status().SongPos
}

// GetQueueData returns the full play queue as Tracks.
func (f *Facade) GetQueueData() ([]model.Track, bool) {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil && !f.openConnLocked() {
		return nil, false
	}
	songs, err := f.conn.PlaylistInfo(-1, -1)
	if err != nil {
		return nil, false
	}
	out := make([]model.Track, 0, len(songs))
	for _, s := range songs {
		out = append(out, mapSong(s))
	}
	return out, true
}

// StatSong fetches one song by position (isID=false) or queue id
// (isID=true); pos=-1 with isID=false means the current song.
func (f *Facade) StatSong(pos int, isID bool) (model.Track, bool) {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil && !f.openConnLocked() {
		return model.Track{}, false
	}
	var song mpd.Attrs
	var err error
	switch {
	case isID:
		var songs []mpd.Attrs
		songs, err = f.conn.PlaylistInfo(-1, -1)
		if err == nil {
			for _, s := range songs {
				if attrInt(s, "Id", -1) == pos {
					song = s
					break
				}
			}
			if song == nil {
				return model.Track{}, false
			}
		}
	case pos == -1:
		song, err = f.conn.CurrentSong()
	default:
		var songs []mpd.Attrs
		songs, err = f.conn.PlaylistInfo(pos, pos+1)
		if err == nil && len(songs) > 0 {
			song = songs[0]
		}
	}
	if err != nil || song == nil {
		return model.Track{}, false
	}
	return mapSong(song), true
}

// SaveState snapshots the status and queue. If seekMS is positive it
// overrides the reported elapsed time, useful when MPD was already
// stopped (and so reports no position) but the caller still knows
// where playback had reached.
func (f *Facade) SaveState(seekMS int) (model.State, bool) {
	if !f.updateStatus() {
		return model.State{}, false
	}
	st := model.State{Status: f.Status()}
	if seekMS > 0 {
		st.Status.ElapsedMS = uint(seekMS)
	}
	queue, ok := f.GetQueueData()
	if !ok {
		return model.State{}, false
	}
	st.Queue = queue
	return st, true
}

// RestoreState clears the queue and replays a previously saved state:
// queue contents, mode flags, volume and transport position.
func (f *Facade) RestoreState(st model.State) bool {
	f.connMu.Lock()
	f.openConnLocked()
	f.connMu.Unlock()
	if !f.OK() {
		return false
	}
	f.ClearQueue()
	for i, tr := range st.Queue {
		if f.Insert(tr.Resource.URI, i, tr) < 0 {
			return false
		}
	}
	f.Repeat(st.Status.Repeat)
	f.RandomPlay(st.Status.Random)
	f.Single(st.Status.Single)
	f.Consume(st.Status.Consume)

	f.mu.Lock()
	f.cachedVolume = st.Status.Volume
	external := f.externalVolumeControl
	f.mu.Unlock()
	if !external {
		f.connMu.Lock()
		if f.conn != nil {
			f.conn.SetVolume(st.Status.Volume)
		}
		f.connMu.Unlock()
	}

	if st.Status.State == model.StatePaused || st.Status.State == model.StatePlaying {
		f.Play(st.Status.SongPos)
		if st.Status.ElapsedMS > 0 {
			f.Seek(int(st.Status.ElapsedMS / 1000))
		}
		if st.Status.State == model.StatePaused {
			f.Pause(true)
		}
	}
	f.connMu.Lock()
	f.openConnLocked()
	f.connMu.Unlock()
	return true
}
