package metacache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{"plain", "has=equals", "has%percent", "line\nbreak\r"} {
		got := decode(encode(s))
		if got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}

func TestSetAndRestorePersists(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "cache.txt")
	if err := os.WriteFile(fn, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Restore(fn)
	if err != nil {
		t.Fatal(err)
	}
	c.Set("mpd://track=1.flac", "<DIDL-Lite>song one</DIDL-Lite>")

	deadline := time.Now().Add(2 * time.Second)
	for {
		data, _ := os.ReadFile(fn)
		if len(data) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for async save")
		}
		time.Sleep(10 * time.Millisecond)
	}

	c2, err := Restore(fn)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := c2.Get("mpd://track=1.flac")
	if !ok || v != "<DIDL-Lite>song one</DIDL-Lite>" {
		t.Fatalf("got %q, %v", v, ok)
	}
}

func TestGetMissing(t *testing.T) {
	c := New()
	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected miss")
	}
}
