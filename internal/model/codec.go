package model

import (
	"math"
	"strings"
)

// PercentToDBValue converts an MPD-style 0-100 volume percentage to the
// hundredths-of-a-dB unit OpenHome's Volume service reports, using the
// same quadratic-then-log curve as the original renderer so existing
// control points see identical slider behavior.
func PercentToDBValue(percent int) int {
	if percent == 0 {
		return -10240
	}
	ratio := float64(percent) * float64(percent) / 10000.0
	db := 10 * math.Log10(ratio)
	return int(256 * db)
}

// DBValueToPercent is the inverse of PercentToDBValue, clamped to
// [0, 100].
func DBValueToPercent(dbvalue int) int {
	db := float64(dbvalue) / 256.0
	vol := math.Exp((db / 10) * math.Log(10))
	percent := int(math.Floor(math.Sqrt(vol * 10000.0)))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}

// losslessMimes and lossyMimes are the MIME-to-codec-name tables used
// to fill the DIDL protocolInfo and OpenHome Info bitrate/codec
// fields. Lossless entries additionally mark the stream as lossless.
var losslessMimes = map[string]string{
	"audio/x-flac":          "FLAC",
	"audio/l16":             "L16",
	"application/flac":      "FLAC",
	"application/x-flac":    "FLAC",
	"audio/flac":            "FLAC",
	"audio/x-aiff":          "AIFF",
	"audio/aif":             "AIFF",
	"audio/aiff":            "AIFF",
	"audio/dff":             "DSD",
	"audio/x-dff":           "DSD",
	"audio/dsd":             "DSD",
	"audio/x-dsd":           "DSD",
	"audio/dsf":             "DSD",
	"audio/x-dsf":           "DSD",
	"audio/wav":             "WAV",
	"audio/x-wav":           "WAV",
	"audio/wave":            "WAV",
	"audio/x-monkeys-audio": "APE",
	"audio/x-ape":           "APE",
	"audio/ape":             "APE",
}

var lossyMimes = map[string]string{
	"audio/mpeg":          "MP3",
	"application/ogg":     "VORBIS",
	"audio/aac":           "AAC",
	"audio/m4a":           "MP4",
	"audio/x-m4a":         "MP4",
	"audio/matroska":      "MATROSKA",
	"audio/x-matroska":    "MATROSKA",
	"audio/mp1":           "MP1",
	"audio/mp3":           "MP3",
	"audio/mp4":           "MP4",
	"audio/x-mpeg":        "MP3",
	"audio/ogg":           "VORBIS",
	"audio/vorbis":        "VORBIS",
	"audio/x-ms-wma":      "WMA",
	"audio/x-ogg":         "VORBIS",
	"audio/x-vorbis+ogg":  "VORBIS",
	"audio/x-vorbis":      "VORBIS",
	"audio/x-wavpack":     "WAVPACK",
	"video/mp4":           "MP4",
}

// MimeToCodec resolves a MIME type to a display codec name and a
// lossless flag. The second return value reports whether the MIME was
// recognized at all; an unrecognized MIME maps to ("UNKNOWN", false).
func MimeToCodec(mime string) (codec string, lossless bool, known bool) {
	lower := strings.ToLower(mime)
	if c, ok := losslessMimes[lower]; ok {
		return c, true, true
	}
	if c, ok := lossyMimes[lower]; ok {
		return c, false, true
	}
	return "UNKNOWN", false, false
}
