package songcast

import "testing"

func TestParseStarterOutput(t *testing.T) {
	// "http://x/y" and "Some Song" base64-encoded.
	line := "Ok 6601 URI aHR0cDovL3gveQ== METADATA U29tZSBTb25n"
	uri, meta, err := parseStarterOutput(line)
	if err != nil {
		t.Fatalf("parseStarterOutput: %v", err)
	}
	if uri != "http://x/y" {
		t.Fatalf("uri = %q", uri)
	}
	if meta != "Some Song" {
		t.Fatalf("meta = %q", meta)
	}
}

func TestParseStarterOutputRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"Ok 6601 URI aHR0cDovL3gveQ==",
		"Fail 6601 URI aHR0cDovL3gveQ== METADATA U29tZSBTb25n",
		"Ok notaport URI aHR0cDovL3gveQ== METADATA U29tZSBTb25n",
	}
	for _, c := range cases {
		if _, _, err := parseStarterOutput(c); err == nil {
			t.Fatalf("expected error for input %q", c)
		}
	}
}

type fakeReceiver struct {
	sentURI, sentMeta string
	playing           bool
	stopped           bool
}

func (r *fakeReceiver) SetSender(uri, metadata string) bool {
	r.sentURI, r.sentMeta = uri, metadata
	return true
}
func (r *fakeReceiver) Play() bool { r.playing = true; return true }
func (r *fakeReceiver) Stop() bool { r.playing = false; r.stopped = true; return true }
