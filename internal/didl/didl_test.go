package didl

import (
	"strings"
	"testing"

	"github.com/jfdockes/upmpdcli-go/internal/model"
)

func TestEncodeBasicTrack(t *testing.T) {
	tr := model.Track{
		ID:       "1",
		ParentID: "0",
		Title:    "A Song",
		Artist:   "An Artist",
		Resource: model.Resource{URI: "http://host/a.flac", MIME: "audio/x-flac", DurationSecs: 185},
	}
	out := Encode(tr)
	for _, want := range []string{
		`id="1"`, `parentID="0"`, `<dc:title>A Song</dc:title>`,
		`<upnp:artist>An Artist</upnp:artist>`, `http://host/a.flac`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestEncodeEscapesEntities(t *testing.T) {
	tr := model.Track{Title: "Rock & Roll <Live>"}
	out := Encode(tr)
	if strings.Contains(out, "&Roll") || strings.Contains(out, "<Live>") {
		t.Errorf("expected escaped entities, got %s", out)
	}
	if !strings.Contains(out, "&amp;") {
		t.Errorf("expected &amp; escape, got %s", out)
	}
}

func TestEncodeUsesRawFragmentVerbatim(t *testing.T) {
	tr := model.Track{DIDLFragment: `<item id="x"><dc:title>raw</dc:title></item>`}
	out := Encode(tr)
	if !strings.Contains(out, `<item id="x">`) {
		t.Errorf("expected raw fragment passthrough, got %s", out)
	}
}
