package model

import "testing"

func TestPercentDBRoundTrip(t *testing.T) {
	for _, p := range []int{0, 1, 25, 50, 75, 100} {
		db := PercentToDBValue(p)
		got := DBValueToPercent(db)
		if got != p {
			t.Errorf("round trip %d -> %d -> %d", p, db, got)
		}
	}
}

func TestMimeToCodec(t *testing.T) {
	cases := []struct {
		mime     string
		codec    string
		lossless bool
		known    bool
	}{
		{"audio/x-flac", "FLAC", true, true},
		{"AUDIO/MPEG", "MP3", false, true},
		{"application/x-bogus", "UNKNOWN", false, false},
	}
	for _, c := range cases {
		codec, lossless, known := MimeToCodec(c.mime)
		if codec != c.codec || lossless != c.lossless || known != c.known {
			t.Errorf("MimeToCodec(%q) = (%q, %v, %v), want (%q, %v, %v)",
				c.mime, codec, lossless, known, c.codec, c.lossless, c.known)
		}
	}
}
