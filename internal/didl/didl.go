// Package didl renders model.Track values to DIDL-Lite XML fragments,
// the metadata format every UPnP AV and OpenHome control point expects
// in a CurrentURIMetaData or Id/Metadata pair.
package didl

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/jfdockes/upmpdcli-go/internal/model"
)

const nsDIDL = "urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"
const nsDC = "http://purl.org/dc/elements/1.1/"
const nsUPnP = "urn:schemas-upnp-org:metadata-1-0/upnp/"
const nsUpmp = "upmp"

// Encode renders a single track as a complete DIDL-Lite document
// ("<DIDL-Lite>...</DIDL-Lite>"), the form expected as
// CurrentURIMetaData. If the track already carries a raw fragment
// (from an upstream media server that produced its own DIDL), that
// fragment is used verbatim instead of being re-derived.
func Encode(t model.Track) string {
	var b strings.Builder
	b.WriteString(`<DIDL-Lite xmlns="` + nsDIDL + `" xmlns:dc="` + nsDC + `" xmlns:upnp="` + nsUpmp + `">`)
	writeItem(&b, t)
	b.WriteString(`</DIDL-Lite>`)
	return b.String()
}

// EncodeList renders multiple tracks as one DIDL-Lite document, the
// form returned by ContentDirectory Browse / OpenHome Playlist's
// ReadList.
func EncodeList(tracks []model.Track) string {
	var b strings.Builder
	b.WriteString(`<DIDL-Lite xmlns="` + nsDIDL + `" xmlns:dc="` + nsDC + `" xmlns:upnp="` + nsUpmp + `">`)
	for _, t := range tracks {
		writeItem(&b, t)
	}
	b.WriteString(`</DIDL-Lite>`)
	return b.String()
}

func writeItem(b *strings.Builder, t model.Track) {
	if t.DIDLFragment != "" {
		b.WriteString(t.DIDLFragment)
		return
	}
	tag := "item"
	upnpClass := t.UpnpClass
	if upnpClass == "" {
		upnpClass = "object.item.audioItem.musicTrack"
	}
	if t.IsContainer {
		tag = "container"
		if upnpClass == "" {
			upnpClass = "object.container"
		}
	}
	id := t.ID
	if id == "" {
		id = "0"
	}
	parentID := t.ParentID
	if parentID == "" {
		parentID = "0"
	}
	fmt.Fprintf(b, `<%s id="%s" parentID="%s" restricted="1">`, tag, xesc(id), xesc(parentID))
	if t.Title != "" {
		fmt.Fprintf(b, `<dc:title>%s</dc:title>`, xesc(t.Title))
	} else if t.Name != "" {
		fmt.Fprintf(b, `<dc:title>%s</dc:title>`, xesc(t.Name))
	}
	if t.Artist != "" {
		fmt.Fprintf(b, `<upnp:artist>%s</upnp:artist>`, xesc(t.Artist))
	}
	if t.Album != "" {
		fmt.Fprintf(b, `<upnp:album>%s</upnp:album>`, xesc(t.Album))
	}
	if t.Genre != "" {
		fmt.Fprintf(b, `<upnp:genre>%s</upnp:genre>`, xesc(t.Genre))
	}
	if t.Date != "" {
		fmt.Fprintf(b, `<dc:date>%s</dc:date>`, xesc(t.Date))
	}
	if t.ArtURI != "" {
		fmt.Fprintf(b, `<upnp:albumArtURI>%s</upnp:albumArtURI>`, xesc(t.ArtURI))
	}
	fmt.Fprintf(b, `<upnp:class>%s</upnp:class>`, xesc(upnpClass))
	for k, v := range t.UpmpFields {
		fmt.Fprintf(b, `<upmp:%s>%s</upmp:%s>`, xesc(k), xesc(v), xesc(k))
	}
	if !t.IsContainer {
		writeRes(b, t.Resource)
		for _, r := range t.Resources {
			writeRes(b, r)
		}
	}
	fmt.Fprintf(b, `</%s>`, tag)
}

func writeRes(b *strings.Builder, r model.Resource) {
	if r.URI == "" {
		return
	}
	proto := protocolInfo(r.MIME)
	fmt.Fprintf(b, `<res protocolInfo="%s"`, xesc(proto))
	if r.DurationSecs > 0 {
		fmt.Fprintf(b, ` duration="%s"`, xesc(formatDuration(r.DurationSecs)))
	}
	if r.SizeBytes > 0 {
		fmt.Fprintf(b, ` size="%d"`, r.SizeBytes)
	}
	if r.BitrateKbps > 0 {
		fmt.Fprintf(b, ` bitrate="%d"`, r.BitrateKbps*1000/8)
	}
	if r.SampleRateHz > 0 {
		fmt.Fprintf(b, ` sampleFrequency="%d"`, r.SampleRateHz)
	}
	if r.Channels > 0 {
		fmt.Fprintf(b, ` nrAudioChannels="%d"`, r.Channels)
	}
	if r.BitsPerSample > 0 {
		fmt.Fprintf(b, ` bitsPerSample="%d"`, r.BitsPerSample)
	}
	fmt.Fprintf(b, `>%s</res>`, xesc(r.URI))
}

func protocolInfo(mime string) string {
	if mime == "" {
		mime = "audio/mpeg"
	}
	return "http-get:*:" + mime + ":*"
}

func formatDuration(secs uint32) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%d:%02d:%02d.000", h, m, s)
}

func xesc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(stringWriter{&b}, []byte(s))
	return b.String()
}

type stringWriter struct{ b *strings.Builder }

func (w stringWriter) Write(p []byte) (int, error) { return w.b.Write(p) }
