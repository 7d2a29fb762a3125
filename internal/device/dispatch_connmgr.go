package device

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var connmgrStateVars = []string{"SourceProtocolInfo", "SinkProtocolInfo", "CurrentConnectionIDs"}
var connmgrActionNames = []string{"GetProtocolInfo", "GetCurrentConnectionIDs", "GetCurrentConnectionInfo"}

type connmgrService struct {
	GetProtocolInfo          func() (source, sink string)
	GetCurrentConnectionIDs  func() string
	GetCurrentConnectionInfo func(id int) (rcsID, avTransportID int, protocolInfo, peerConnMgr, direction, status string, ok bool)
}

func connmgrActions(c connmgrService) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"GetProtocolInfo": func(args map[string]string) (map[string]string, error) {
			src, sink := c.GetProtocolInfo()
			return map[string]string{"Source": src, "Sink": sink}, nil
		},
		"GetCurrentConnectionIDs": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"ConnectionIDs": c.GetCurrentConnectionIDs()}, nil
		},
		"GetCurrentConnectionInfo": func(args map[string]string) (map[string]string, error) {
			rcsID, avID, pinfo, peer, dir, status, ok := c.GetCurrentConnectionInfo(atoiOr(args["ConnectionID"], 0))
			if !ok {
				return nil, errInvalidParam
			}
			return map[string]string{
				"RcsID": strconv.Itoa(rcsID), "AVTransportID": strconv.Itoa(avID),
				"ProtocolInfo": pinfo, "PeerConnectionManager": peer,
				"Direction": dir, "Status": status,
			}, nil
		},
	}
}
