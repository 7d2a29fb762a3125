package device

import "github.com/jfdockes/upmpdcli-go/internal/model"

// trackFromMetadata wraps a raw DIDL-Lite fragment handed in by a
// control point into a Track that re-renders it verbatim, per
// internal/didl's raw-fragment passthrough rule.
func trackFromMetadata(uri, metadata string) model.Track {
	return model.Track{
		Resource:     model.Resource{URI: uri},
		DIDLFragment: metadata,
	}
}
