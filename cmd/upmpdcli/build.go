package main

import (
	"github.com/jfdockes/upmpdcli-go/internal/device"
	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

// buildRootDevice translates the resolved appConfig into a
// device.Config, constructs the HTTP transport, and assembles the
// device. The returned *upnp.Server is handed back so main can expose
// its Handler() if an embedding caller wants to add its own routes.
func buildRootDevice(cfg *appConfig) (*device.RootDevice, *upnp.Server, error) {
	srv := upnp.NewServer(cfg.HTTPBaseURL)

	dcfg := device.Config{
		MPDHost:      cfg.MPDHost,
		MPDPort:      cfg.MPDPort,
		MPDPassword:  cfg.MPDPassword,
		MPDTimeoutMS: cfg.MPDTimeoutMS,

		OnStart: cfg.OnStart, OnPlay: cfg.OnPlay, OnPause: cfg.OnPause, OnStop: cfg.OnStop,
		OnVolumeChange:        cfg.OnVolumeChange,
		GetExternalVolume:     cfg.GetExternalVolume,
		ExternalVolumeControl: cfg.ExternalVolumeControl,

		FriendlyName: cfg.FriendlyName,
		Version:      version,
		CacheDir:     cfg.CacheDir,

		EnableOpenHome: cfg.EnableOpenHome,
		EnableUpnpAV:   cfg.EnableUpnpAV,
		UPnPPort:       cfg.UPnPPort,
		HTTPBaseURL:    cfg.HTTPBaseURL,

		OwnQueue:           cfg.OwnQueue,
		AutoPlay:           cfg.AutoPlay,
		KeepConsume:        cfg.KeepConsume,
		CheckContentFormat: cfg.CheckContentFormat,

		RadioChannels:     cfg.RadioChannels,
		RadioResolverPath: cfg.RadioResolverPath,
		Credentials:   cfg.Credentials,
		Songcast:      cfg.Songcast,
		Product:       cfg.Product,
	}

	rd, err := device.Build(dcfg, srv)
	if err != nil {
		return nil, nil, err
	}
	return rd, srv, nil
}
