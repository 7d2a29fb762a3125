package upnp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSoapBodyDecodesAction(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <u:SetVolume xmlns:u="urn:av-openhome-org:service:Volume:1">
      <Value>42</Value>
    </u:SetVolume>
  </s:Body>
</s:Envelope>`)
	action, args, err := soapBody(body)
	if err != nil {
		t.Fatalf("soapBody: %v", err)
	}
	if action != "SetVolume" {
		t.Fatalf("action = %q", action)
	}
	if args["Value"] != "42" {
		t.Fatalf("args = %+v", args)
	}
}

func TestServicePathBase(t *testing.T) {
	got := servicePathBase("urn:av-openhome-org:serviceId:Playlist")
	if got != "/playlist" {
		t.Fatalf("servicePathBase = %q", got)
	}
}

func TestServeControlDispatchesAction(t *testing.T) {
	s := NewServer("http://127.0.0.1:49494")
	called := false
	svc := ServiceDesc{
		ID:   "urn:av-openhome-org:serviceId:Volume",
		Type: "urn:av-openhome-org:service:Volume:1",
		Actions: map[string]ActionFunc{
			"SetVolume": func(args map[string]string) (map[string]string, error) {
				called = true
				if args["Value"] != "10" {
					t.Fatalf("unexpected args: %+v", args)
				}
				return map[string]string{}, nil
			},
		},
	}
	if err := s.RegisterService(DeviceDesc{UDN: "uuid:dev", Services: []ServiceDesc{svc}}); err != nil {
		t.Fatalf("RegisterService: %v", err)
	}

	body := `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
		`<u:SetVolume xmlns:u="urn:av-openhome-org:service:Volume:1"><Value>10</Value></u:SetVolume>` +
		`</s:Body></s:Envelope>`
	req := httptest.NewRequest(http.MethodPost, "/volume/control", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if !called {
		t.Fatalf("action was not dispatched")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestNotifyNoSubscribersIsNoop(t *testing.T) {
	s := NewServer("http://127.0.0.1:49494")
	s.Notify("urn:av-openhome-org:serviceId:Volume", []string{"Volume"}, []string{"50"})
}
