package upnp

import (
	"fmt"

	"github.com/koron/go-ssdp"
	log "github.com/sirupsen/logrus"
)

// ssdpMaxAge is the CACHE-CONTROL max-age advertised in SSDP alive
// notifications.
const ssdpMaxAge = 1800

// ssdpAdvertiser owns one Advertiser per (device, search-target)
// pair: each device advertises itself under upnp:rootdevice, its own
// UDN, its device type, and one entry per embedded service type, per
// the standard SSDP announcement set.
type ssdpAdvertiser struct {
	ads []*ssdp.Advertiser
}

func newSSDPAdvertiser() *ssdpAdvertiser { return &ssdpAdvertiser{} }

func (a *ssdpAdvertiser) start(devices []DeviceDesc, location string) error {
	for _, d := range devices {
		targets := []string{"upnp:rootdevice", d.UDN, d.DeviceType}
		for _, svc := range d.Services {
			targets = append(targets, svc.Type)
		}
		for _, st := range targets {
			usn := d.UDN
			if st != d.UDN {
				usn = d.UDN + "::" + st
			}
			ad, err := ssdp.Advertise(st, usn, location, "upmpdcli-go UPnP/1.0", ssdpMaxAge)
			if err != nil {
				return fmt.Errorf("upnp: ssdp advertise %s: %w", st, err)
			}
			a.ads = append(a.ads, ad)
		}
	}
	for _, ad := range a.ads {
		if err := ad.Alive(); err != nil {
			log.Warnf("upnp: ssdp alive notify failed: %v", err)
		}
	}
	return nil
}

func (a *ssdpAdvertiser) stop() {
	for _, ad := range a.ads {
		if err := ad.Bye(); err != nil {
			log.Debugf("upnp: ssdp byebye failed: %v", err)
		}
		ad.Close()
	}
	a.ads = nil
}
