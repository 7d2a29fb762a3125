package device

import (
	"strconv"
	"strings"

	"github.com/jfdockes/upmpdcli-go/internal/didl"
	"github.com/jfdockes/upmpdcli-go/internal/model"
	"github.com/jfdockes/upmpdcli-go/internal/services/radio"
	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var radioStateVars = []string{"TransportState", "Id", "IdArray", "ChannelsMax", "ProtocolInfo"}

var radioActionNames = []string{
	"Channel", "ChannelsMax", "Id", "IdArray", "IdArrayChanged", "Pause",
	"Play", "ProtocolInfo", "Read", "ReadList", "SeekSecondAbsolute",
	"SeekSecondRelative", "SetChannel", "SetId", "Stop", "TransportState",
}

type radioService struct {
	Play               func() bool
	Stop               func() bool
	TransportState     func() string
	ID                 func() int
	SetID              func(int) bool
	SetChannel         func(uri, metadata string) bool
	ChannelsMax        func() int
	SeekSecondAbsolute func(int) bool
	SeekSecondRelative func(int) bool
	ProtocolInfo       func() string
	Channel            func(id int) (radio.Channel, bool)
	IDArray            func() (token string, array string)
	IDArrayChanged     func(token string) bool
}

func channelDIDL(id int, ch radio.Channel) string {
	return didl.Encode(model.Track{
		ID: strconv.Itoa(id), Title: ch.Title, ArtURI: ch.ArtURL,
		Resource: model.Resource{URI: ch.URL},
	})
}

func radioActions(r radioService) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"Channel": func(args map[string]string) (map[string]string, error) {
			id := r.ID()
			ch, ok := r.Channel(id)
			if !ok {
				return map[string]string{"Uri": "", "Metadata": ""}, nil
			}
			return map[string]string{"Uri": ch.URL, "Metadata": channelDIDL(id, ch)}, nil
		},
		"ChannelsMax": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(r.ChannelsMax())}, nil
		},
		"Id": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(r.ID())}, nil
		},
		"IdArray": func(args map[string]string) (map[string]string, error) {
			token, array := r.IDArray()
			return map[string]string{"Token": token, "Array": array}, nil
		},
		"IdArrayChanged": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": btoa(r.IDArrayChanged(args["Token"]))}, nil
		},
		"Pause": func(args map[string]string) (map[string]string, error) {
			r.Stop()
			return map[string]string{}, nil
		},
		"Play": func(args map[string]string) (map[string]string, error) {
			r.Play()
			return map[string]string{}, nil
		},
		"ProtocolInfo": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": r.ProtocolInfo()}, nil
		},
		"Read": func(args map[string]string) (map[string]string, error) {
			id := atoiOr(args["Id"], 0)
			ch, ok := r.Channel(id)
			if !ok {
				return nil, errInvalidParam
			}
			return map[string]string{"Metadata": channelDIDL(id, ch)}, nil
		},
		"ReadList": func(args map[string]string) (map[string]string, error) {
			ids := parseIDList(args["IdList"])
			var b strings.Builder
			for _, id := range ids {
				if ch, ok := r.Channel(id); ok {
					b.WriteString(channelDIDL(id, ch))
				}
			}
			return map[string]string{"ChannelList": b.String()}, nil
		},
		"SeekSecondAbsolute": func(args map[string]string) (map[string]string, error) {
			r.SeekSecondAbsolute(atoiOr(args["Value"], 0))
			return map[string]string{}, nil
		},
		"SeekSecondRelative": func(args map[string]string) (map[string]string, error) {
			r.SeekSecondRelative(atoiOr(args["Value"], 0))
			return map[string]string{}, nil
		},
		"SetChannel": func(args map[string]string) (map[string]string, error) {
			if !r.SetChannel(args["Uri"], args["Metadata"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"SetId": func(args map[string]string) (map[string]string, error) {
			if !r.SetID(atoiOr(args["Value"], 0)) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"Stop": func(args map[string]string) (map[string]string, error) {
			r.Stop()
			return map[string]string{}, nil
		},
		"TransportState": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": r.TransportState()}, nil
		},
	}
}
