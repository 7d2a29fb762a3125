// Package connmgr implements the UPnP AV ConnectionManager service:
// a static advertisement of the sink formats the renderer accepts,
// with no connection-tracking state of its own (the renderer accepts
// exactly one implicit connection for its whole lifetime).
package connmgr

import (
	"strconv"
	"strings"

	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

var declaredOrder = []string{"SourceProtocolInfo", "SinkProtocolInfo", "CurrentConnectionIDs"}

// defaultSinkMimes mirrors the original's m_ok_contentformats default
// list: a generic "accept anything over http-get" entry plus common
// MIME types, so strict control points that validate against the
// advertised sink list still find their format listed explicitly.
var defaultSinkMimes = []string{
	"audio/mpeg", "audio/mp4", "audio/x-flac", "audio/flac",
	"audio/x-wav", "audio/wav", "audio/x-aiff", "audio/ogg",
	"application/ogg", "audio/x-ms-wma", "audio/x-matroska",
}

// Service is the ConnectionManager implementation. It has no MPD
// event subscription since it never changes at runtime -- this is
// exactly the original's behavior: sink/source lists are fixed at
// startup from configuration.
type Service struct {
	*eventbase.Base
	sinkProtocolInfo string
}

// New builds the service. extraMimes, if non-empty, overrides the
// built-in default sink list (configuration key checkcontentformat's
// companion list).
func New(serviceID string, facade *mpdfacade.Facade, notifier eventbase.Notifier, extraMimes []string) *Service {
	mimes := defaultSinkMimes
	if len(extraMimes) > 0 {
		mimes = extraMimes
	}
	parts := make([]string, 0, len(mimes))
	for _, m := range mimes {
		parts = append(parts, "http-get:*:"+m+":*")
	}
	s := &Service{sinkProtocolInfo: strings.Join(parts, ",")}
	s.Base = eventbase.New(serviceID, "ConnectionManager", declaredOrder, s.makeState)
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	return map[string]string{
		"SourceProtocolInfo":   "",
		"SinkProtocolInfo":     s.sinkProtocolInfo,
		"CurrentConnectionIDs": "0",
	}
}

// SupportsMime reports whether mime appears in the advertised sink
// list, used by the transport-compat service's setAVTransportURI
// format-validation policy when checkcontentformat is enabled.
func (s *Service) SupportsMime(mime string) bool {
	return strings.Contains(s.sinkProtocolInfo, ":"+mime+":")
}

// GetProtocolInfo implements ConnectionManager.GetProtocolInfo.
func (s *Service) GetProtocolInfo() (source, sink string) {
	return "", s.sinkProtocolInfo
}

// GetCurrentConnectionIDs implements ConnectionManager.
// GetCurrentConnectionIDs: the renderer always reports the single
// implicit connection 0.
func (s *Service) GetCurrentConnectionIDs() string { return "0" }

// GetCurrentConnectionInfo implements
// ConnectionManager.GetCurrentConnectionInfo for connection id 0; any
// other id is invalid.
func (s *Service) GetCurrentConnectionInfo(id int) (rcsID, avTransportID int, protocolInfo, peerConnMgr string, direction string, status string, ok bool) {
	if id != 0 {
		return 0, 0, "", "", "", "", false
	}
	return -1, 0, s.sinkProtocolInfo, "", "Input", "OK", true
}

func itoa(n int) string { return strconv.Itoa(n) }
