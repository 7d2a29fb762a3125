package device

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

var productStateVars = []string{"SourceXml", "SourceIndex", "SourceXmlChangeCount"}

var productActionNames = []string{
	"Manufacturer", "Model", "Product", "Standby", "SetStandby",
	"SourceCount", "SourceXml", "SourceIndex", "SetSourceIndex",
	"SetSourceIndexByName", "SetSourceBySystemName", "Source",
	"Attributes", "SourceXmlChangeCount",
}

type productService struct {
	Manufacturer          func() (name, info, url, imageURI string)
	Model                 func() (name, info, url, imageURI string)
	Product               func() (name, info, url, imageURI, room string)
	Standby               func() bool
	SetStandby            func(bool) bool
	SourceCount           func() int
	SourceXml             func() string
	SourceIndex           func() int
	SetSourceIndex        func(int) bool
	SetSourceIndexByName  func(string) bool
	SetSourceBySystemName func(string) bool
	Source                func(int) (systemName, srcType, name string, ok bool)
	Attributes            func() string
	SourceXmlChangeCount  func() int
}

func productActions(p productService) map[string]upnp.ActionFunc {
	return map[string]upnp.ActionFunc{
		"Manufacturer": func(args map[string]string) (map[string]string, error) {
			name, info, url, img := p.Manufacturer()
			return map[string]string{"Name": name, "Info": info, "Url": url, "ImageUri": img}, nil
		},
		"Model": func(args map[string]string) (map[string]string, error) {
			name, info, url, img := p.Model()
			return map[string]string{"Name": name, "Info": info, "Url": url, "ImageUri": img}, nil
		},
		"Product": func(args map[string]string) (map[string]string, error) {
			name, info, url, img, room := p.Product()
			return map[string]string{
				"Name": name, "Info": info, "Url": url, "ImageUri": img, "Room": room,
			}, nil
		},
		"Standby": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": btoa(p.Standby())}, nil
		},
		"SetStandby": func(args map[string]string) (map[string]string, error) {
			p.SetStandby(atob(args["Value"]))
			return map[string]string{}, nil
		},
		"SourceCount": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(p.SourceCount())}, nil
		},
		"SourceXml": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": p.SourceXml()}, nil
		},
		"SourceIndex": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(p.SourceIndex())}, nil
		},
		"SetSourceIndex": func(args map[string]string) (map[string]string, error) {
			if !p.SetSourceIndex(atoiOr(args["Value"], -1)) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"SetSourceIndexByName": func(args map[string]string) (map[string]string, error) {
			if !p.SetSourceIndexByName(args["Value"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"SetSourceBySystemName": func(args map[string]string) (map[string]string, error) {
			if !p.SetSourceBySystemName(args["Value"]) {
				return nil, errInvalidParam
			}
			return map[string]string{}, nil
		},
		"Source": func(args map[string]string) (map[string]string, error) {
			sysName, srcType, name, ok := p.Source(atoiOr(args["Index"], 0))
			if !ok {
				return nil, errInvalidParam
			}
			return map[string]string{"SystemName": sysName, "Type": srcType, "Name": name}, nil
		},
		"Attributes": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": p.Attributes()}, nil
		},
		"SourceXmlChangeCount": func(args map[string]string) (map[string]string, error) {
			return map[string]string{"Value": strconv.Itoa(p.SourceXmlChangeCount())}, nil
		},
	}
}
