package device

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jfdockes/upmpdcli-go/internal/config"
	"github.com/jfdockes/upmpdcli-go/internal/metacache"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/services/connmgr"
	"github.com/jfdockes/upmpdcli-go/internal/services/credentials"
	"github.com/jfdockes/upmpdcli-go/internal/services/info"
	"github.com/jfdockes/upmpdcli-go/internal/services/playlist"
	"github.com/jfdockes/upmpdcli-go/internal/services/product"
	"github.com/jfdockes/upmpdcli-go/internal/services/radio"
	"github.com/jfdockes/upmpdcli-go/internal/services/timesvc"
	"github.com/jfdockes/upmpdcli-go/internal/services/transport"
	"github.com/jfdockes/upmpdcli-go/internal/services/volume"
	"github.com/jfdockes/upmpdcli-go/internal/songcast"
	"github.com/jfdockes/upmpdcli-go/internal/upnp"
)

const (
	sidPlaylist    = "urn:av-openhome-org:serviceId:Playlist"
	sidRadio       = "urn:av-openhome-org:serviceId:Radio"
	sidVolume      = "urn:av-openhome-org:serviceId:Volume"
	sidTime        = "urn:av-openhome-org:serviceId:Time"
	sidInfo        = "urn:av-openhome-org:serviceId:Info"
	sidProduct     = "urn:av-openhome-org:serviceId:Product"
	sidCredentials = "urn:av-openhome-org:serviceId:Credentials"
	sidAVTransport = "urn:upnp-org:serviceId:AVTransport"
	sidConnMgr     = "urn:upnp-org:serviceId:ConnectionManager"

	tpPlaylist    = "urn:av-openhome-org:service:Playlist:1"
	tpRadio       = "urn:av-openhome-org:service:Radio:1"
	tpVolume      = "urn:av-openhome-org:service:Volume:1"
	tpTime        = "urn:av-openhome-org:service:Time:1"
	tpInfo        = "urn:av-openhome-org:service:Info:1"
	tpProduct     = "urn:av-openhome-org:service:Product:1"
	tpCredentials = "urn:av-openhome-org:service:Credentials:1"
	tpAVTransport = "urn:schemas-upnp-org:service:AVTransport:1"
	tpConnMgr     = "urn:schemas-upnp-org:service:ConnectionManager:1"

	dtOpenHome = "urn:av-openhome-org:device:Source:1"
	dtUpnpAV   = "urn:schemas-upnp-org:device:MediaRenderer:1"
)

// RadioChannelConfig is one configured radio channel, before it is
// handed to internal/services/radio as a radio.Channel.
type RadioChannelConfig = radio.Channel

// Config aggregates every configuration key the assembled device
// needs, translated from the CLI/config store by cmd/upmpdcli.
type Config struct {
	MPDHost, MPDPort, MPDPassword string
	MPDTimeoutMS                  int
	OnStart, OnPlay               string
	OnPause, OnStop               string
	OnVolumeChange                []string
	GetExternalVolume             []string
	ExternalVolumeControl         bool

	FriendlyName string
	Version      string
	CacheDir     string

	EnableOpenHome bool
	EnableUpnpAV   bool
	UPnPPort       int
	HTTPBaseURL    string

	OwnQueue           bool
	AutoPlay           bool
	KeepConsume        bool
	CheckContentFormat bool
	ExtraSinkMimes     []string

	MergeMetaAndText bool

	RadioChannels     []radio.Channel
	RadioResolverPath string

	Credentials credentials.Config

	Songcast          *songcast.Config
	SongcastSystemName string

	Product product.Config
}

// RootDevice owns every assembled service, the live facade context,
// and the transport/SSDP lifecycle.
type RootDevice struct {
	cfg       Config
	ctx       *Context
	facade    *mpdfacade.Facade
	transport upnp.Transport
	debug     *upnp.DebugEventStream
	hub       *Hub

	Volume      *volume.Service
	ConnMgr     *connmgr.Service
	Credentials *credentials.Service
	Info        *info.Service
	Playlist    *playlist.Service
	Product     *product.Service
	Radio       *radio.Service
	Time        *timesvc.Service
	Transport   *transport.Service
	Songcast    *songcast.Orchestrator
}

// receiverShim routes a songcast-decoded sender URI/metadata into
// whichever facade is currently live (the secondary, post-swap) by
// inserting and playing it, the simplest faithful reading of spec
// §4.10's "songcast-to-playlist" pairing: the paired service the
// sender feeds is just the live queue.
type receiverShim struct {
	ctx *Context
}

func (r *receiverShim) SetSender(uri, metadata string) bool {
	f := r.ctx.Facade()
	if f == nil {
		return false
	}
	return f.Insert(uri, 0, trackFromMetadata(uri, metadata)) >= 0
}

func (r *receiverShim) Play() bool {
	f := r.ctx.Facade()
	return f != nil && f.Play(0)
}

func (r *receiverShim) Stop() bool {
	f := r.ctx.Facade()
	return f != nil && f.Stop()
}

// Build assembles the facade, the nine services, the songcast
// orchestrator and both advertised device descriptions, but does not
// yet start the event loop or SSDP advertisement (call Start for that).
func Build(cfg Config, srv *upnp.Server) (*RootDevice, error) {
	transportImpl := srv
	facade := mpdfacade.New(mpdfacade.Options{
		Host: cfg.MPDHost, Port: cfg.MPDPort, Password: cfg.MPDPassword,
		TimeoutMS: cfg.MPDTimeoutMS,
		OnStart: cfg.OnStart, OnPlay: cfg.OnPlay, OnPause: cfg.OnPause, OnStop: cfg.OnStop,
		OnVolumeChange: cfg.OnVolumeChange, GetExternalVolume: cfg.GetExternalVolume,
		ExternalVolumeControl: cfg.ExternalVolumeControl,
	})
	if !facade.OK() {
		log.Errorf("device: initial MPD connection failed, continuing degraded")
	}

	ctx := NewContext(facade)

	debug := upnp.NewDebugEventStream(func(path string, h http.Handler) {
		srv.Mux().Handle(path, h)
	})
	hub := NewHub(transportImpl, debug)

	cache, err := metacache.Restore(filepath.Join(cfg.CacheDir, "metacache"))
	if err != nil {
		cache = metacache.New()
	}
	state := config.Open(filepath.Join(cfg.CacheDir, "upmstate"), config.FlagNone)

	volSvc := volume.New(sidVolume, facade, hub)
	connSvc := connmgr.New(sidConnMgr, facade, hub, cfg.ExtraSinkMimes)
	credSvc := credentials.New(sidCredentials, hub, cfg.Credentials)
	infoSvc := info.New(sidInfo, facade, hub, info.Config{MergeMetaAndText: cfg.MergeMetaAndText})
	timeSvc := timesvc.New(sidTime, facade, hub)
	plSvc := playlist.New(sidPlaylist, facade, hub, cache)

	var scOrch *songcast.Orchestrator
	if cfg.Songcast != nil {
		scOrch = songcast.New(ctx, &receiverShim{ctx: ctx}, *cfg.Songcast)
	}

	radioSvc := radio.New(sidRadio, facade, hub, infoSvc, ctx, state, cfg.RadioChannels, cfg.RadioResolverPath)

	reg := NewRegistry(ctx, plSvc)
	xportSvc := transport.New(sidAVTransport, facade, hub, reg, transport.Config{
		OwnQueue: cfg.OwnQueue, AutoPlay: cfg.AutoPlay, KeepConsume: cfg.KeepConsume,
		CheckContentFormat: cfg.CheckContentFormat,
	}, connSvc.SupportsMime)

	sources := []product.Source{
		{Name: "Playlist", Type: "Playlist", SystemName: "Playlist", Visible: true, Service: plSvc},
	}
	if len(cfg.RadioChannels) > 0 {
		sources = append(sources, product.Source{
			Name: "Radio", Type: "Radio", SystemName: "Radio", Visible: true, Service: radioSvc,
		})
	}
	if scOrch != nil {
		name := cfg.SongcastSystemName
		if name == "" {
			name = "Songcast"
		}
		sources = append(sources, product.Source{
			Name: name, Type: "Receiver", SystemName: name, Visible: true,
			Service: plSvc, Songcast: scOrch,
		})
	}

	prodSvc := product.New(sidProduct, facade, hub, cfg.Product, state, sources)

	rd := &RootDevice{
		cfg: cfg, ctx: ctx, facade: facade, transport: transportImpl, hub: hub,
		Volume: volSvc, ConnMgr: connSvc, Credentials: credSvc, Info: infoSvc,
		Playlist: plSvc, Product: prodSvc, Radio: radioSvc, Time: timeSvc,
		Transport: xportSvc, Songcast: scOrch,
	}
	if err := rd.registerServices(); err != nil {
		return nil, fmt.Errorf("device: register services: %w", err)
	}
	return rd, nil
}

func (rd *RootDevice) registerServices() error {
	friendly := expandFriendlyName(rd.cfg.FriendlyName, rd.cfg.Version)

	if rd.cfg.EnableOpenHome {
		dev := upnp.DeviceDesc{
			UDN:          "uuid:" + uuid.New().String(),
			DeviceType:   dtOpenHome,
			FriendlyName: friendly,
			Manufacturer: rd.cfg.Product.Manufacturer,
			ModelName:    rd.cfg.Product.ModelName,
			Services: []upnp.ServiceDesc{
				{ID: sidPlaylist, Type: tpPlaylist, SCPD: buildSCPD(playlistActionNames, playlistStateVars),
					Actions: playlistActions(playlistService{
						Play: rd.Playlist.Play, Pause: rd.Playlist.Pause, Stop: rd.Playlist.Stop,
						NextTrack: rd.Playlist.NextTrack, PreviousTrack: rd.Playlist.PreviousTrack,
						SetRepeat: rd.Playlist.SetRepeat, SetShuffle: rd.Playlist.SetShuffle,
						SeekSecondAbsolute: rd.Playlist.SeekSecondAbsolute, SeekSecondRelative: rd.Playlist.SeekSecondRelative,
						SeekID: rd.Playlist.SeekID, SeekIndex: rd.Playlist.SeekIndex,
						RepeatState: rd.Playlist.RepeatState, ShuffleState: rd.Playlist.ShuffleState,
						TransportState: rd.Playlist.TransportState, ID: rd.Playlist.ID, Read: rd.Playlist.Read,
						Insert: rd.Playlist.Insert, DeleteID: rd.Playlist.DeleteID, DeleteAll: rd.Playlist.DeleteAll,
						TracksMaxConst: rd.Playlist.TracksMaxConst, IDArray: rd.Playlist.IDArray,
						IDArrayChanged: rd.Playlist.IDArrayChanged, ProtocolInfo: rd.Playlist.ProtocolInfo,
					})},
				{ID: sidVolume, Type: tpVolume, SCPD: buildSCPD(volumeActionNames, volumeStateVars),
					Actions: volumeActions(volumeService{
						SetVolume: rd.Volume.SetVolume, VolumeInc: rd.Volume.VolumeInc, VolumeDec: rd.Volume.VolumeDec,
						Volume: rd.Volume.Volume, SetMute: rd.Volume.SetMute, Mute: rd.Volume.Mute,
						SelectPreset: rd.Volume.SelectPreset, Presets: rd.Volume.Presets,
					})},
				{ID: sidTime, Type: tpTime, SCPD: buildSCPD(timeActionNames, timeStateVars),
					Actions: timeActions(rd.Time.Data)},
				{ID: sidInfo, Type: tpInfo, SCPD: buildSCPD(infoActionNames, infoStateVars),
					Actions: infoActions(rd.Info.Snapshot)},
				{ID: sidProduct, Type: tpProduct, SCPD: buildSCPD(productActionNames, productStateVars),
					Actions: productActions(productService{
						Manufacturer: rd.Product.Manufacturer, Model: rd.Product.Model, Product: rd.Product.Product,
						Standby: rd.Product.Standby, SetStandby: rd.Product.SetStandby, SourceCount: rd.Product.SourceCount,
						SourceXml: rd.Product.SourceXml, SourceIndex: rd.Product.SourceIndex,
						SetSourceIndex: rd.Product.SetSourceIndex, SetSourceIndexByName: rd.Product.SetSourceIndexByName,
						SetSourceBySystemName: rd.Product.SetSourceBySystemName, Source: rd.Product.Source,
						Attributes: rd.Product.Attributes, SourceXmlChangeCount: rd.Product.SourceXmlChangeCount,
					})},
				{ID: sidCredentials, Type: tpCredentials, SCPD: buildSCPD(credentialsActionNames, credentialsStateVars),
					Actions: credentialsActions(credentialsService{
						Set: rd.Credentials.Set, Clear: rd.Credentials.Clear, SetEnabled: rd.Credentials.SetEnabled,
						Get: rd.Credentials.Get, Login: rd.Credentials.Login, ReLogin: rd.Credentials.ReLogin,
						GetIds: rd.Credentials.GetIds, GetPublicKey: rd.Credentials.GetPublicKey,
						GetSequenceNumber: rd.Credentials.GetSequenceNumber,
					})},
			},
		}
		if len(rd.cfg.RadioChannels) > 0 {
			dev.Services = append(dev.Services, upnp.ServiceDesc{
				ID: sidRadio, Type: tpRadio, SCPD: buildSCPD(radioActionNames, radioStateVars),
				Actions: radioActions(radioService{
					Play: rd.Radio.Play, Stop: rd.Radio.Stop, TransportState: rd.Radio.TransportState,
					ID: rd.Radio.ID, SetID: rd.Radio.SetID, SetChannel: rd.Radio.SetChannel,
					ChannelsMax: rd.Radio.ChannelsMax, SeekSecondAbsolute: rd.Radio.SeekSecondAbsolute,
					SeekSecondRelative: rd.Radio.SeekSecondRelative, ProtocolInfo: rd.Radio.ProtocolInfo,
					Channel: rd.Radio.Channel, IDArray: rd.Radio.IDArray, IDArrayChanged: rd.Radio.IDArrayChanged,
				}),
			})
		}
		if err := rd.transport.RegisterService(dev); err != nil {
			return err
		}
	}

	if rd.cfg.EnableUpnpAV {
		dev := upnp.DeviceDesc{
			UDN:          "uuid:" + uuid.New().String(),
			DeviceType:   dtUpnpAV,
			FriendlyName: friendly,
			Manufacturer: rd.cfg.Product.Manufacturer,
			ModelName:    rd.cfg.Product.ModelName,
			Services: []upnp.ServiceDesc{
				{ID: sidAVTransport, Type: tpAVTransport, SCPD: buildSCPD(transportActionNames, transportStateVars),
					Actions: transportActions(transportService{
						SetAVTransportURI: rd.Transport.SetAVTransportURI, SetNextAVTransportURI: rd.Transport.SetNextAVTransportURI,
						GetPositionInfo: rd.Transport.GetPositionInfo, GetTransportInfo: rd.Transport.GetTransportInfo,
						GetMediaInfo: rd.Transport.GetMediaInfo, GetDeviceCapabilities: rd.Transport.GetDeviceCapabilities,
						SetPlayMode: rd.Transport.SetPlayMode, GetTransportSettings: rd.Transport.GetTransportSettings,
						GetCurrentTransportActions: rd.Transport.GetCurrentTransportActions, Stop: rd.Transport.Stop,
						PlayCmd: rd.Transport.PlayCmd, Pause: rd.Transport.Pause, Next: rd.Transport.Next,
						Previous: rd.Transport.Previous, Seek: rd.Transport.Seek,
					})},
				{ID: sidConnMgr, Type: tpConnMgr, SCPD: buildSCPD(connmgrActionNames, connmgrStateVars),
					Actions: connmgrActions(connmgrService{
						GetProtocolInfo: rd.ConnMgr.GetProtocolInfo, GetCurrentConnectionIDs: rd.ConnMgr.GetCurrentConnectionIDs,
						GetCurrentConnectionInfo: rd.ConnMgr.GetCurrentConnectionInfo,
					})},
			},
		}
		if err := rd.transport.RegisterService(dev); err != nil {
			return err
		}
	}
	return nil
}

// Start begins the MPD event loop and SSDP advertisement.
func (rd *RootDevice) Start() error {
	rd.facade.StartEventLoop()
	return rd.transport.Advertise(rd.cfg.UPnPPort)
}

// Shutdown stops advertising and the MPD event loop.
func (rd *RootDevice) Shutdown() {
	rd.transport.Shutdown()
	rd.facade.StopEventLoop()
}
