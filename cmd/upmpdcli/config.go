package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jfdockes/upmpdcli-go/internal/config"
	"github.com/jfdockes/upmpdcli-go/internal/services/credentials"
	"github.com/jfdockes/upmpdcli-go/internal/services/product"
	"github.com/jfdockes/upmpdcli-go/internal/services/radio"
	"github.com/jfdockes/upmpdcli-go/internal/songcast"
)

// appConfig is the fully resolved configuration: the file/env/flag
// layers already merged, ready to drive both logging setup and device
// assembly.
type appConfig struct {
	MPDHost, MPDPort, MPDPassword string
	MPDTimeoutMS                  int

	FriendlyName string
	LogFile      string
	LogLevel     string
	PidFile      string
	CacheDir     string

	OwnQueue           bool
	AutoPlay           bool
	KeepConsume        bool
	CheckContentFormat bool

	EnableOpenHome bool
	EnableUpnpAV   bool
	UPnPPort       int
	Iface          string
	HTTPBaseURL    string

	OnStart, OnPlay, OnPause, OnStop string
	OnVolumeChange                   []string
	GetExternalVolume                []string
	ExternalVolumeControl            bool

	Product           product.Config
	Credentials       credentials.Config
	Songcast          *songcast.Config
	RadioChannels     []radio.Channel
	RadioResolverPath string
}

// envOverride returns the UPMPD_<upper(key)> environment value, if
// set, per spec §6 ("Environment variables prefixed UPMPD_ override
// individual config values").
func envOverride(key string) (string, bool) {
	v, ok := os.LookupEnv("UPMPD_" + strings.ToUpper(key))
	return v, ok
}

// getString reads name from the config store, then the environment,
// returning dflt if neither set it.
func getString(store config.Store, name, dflt string) string {
	if v, ok := envOverride(name); ok {
		return v
	}
	if v, ok := store.Get(name, ""); ok {
		return v
	}
	return dflt
}

func getInt(store config.Store, name string, dflt int) int {
	if v, ok := envOverride(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return int(store.GetInt(name, int64(dflt), ""))
}

func getBool(store config.Store, name string, dflt bool) bool {
	if v, ok := envOverride(name); ok {
		return v == "1" || v == "true"
	}
	return store.GetBool(name, dflt, "")
}

func getList(store config.Store, name string) []string {
	v := getString(store, name, "")
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

// loadConfig reads the config file named by -c (if any), then layers
// CLI flags (which win over the file; flags left at their sentinel
// "unset" value fall through to the file/environment), per spec §6's
// flag/env/file precedence.
func loadConfig(f cliFlags) (*appConfig, error) {
	var store config.Store
	if f.configFile != "" {
		s := config.Open(f.configFile, config.FlagNone)
		if !s.OK() {
			return nil, fmt.Errorf("upmpdcli: cannot read config file %s", f.configFile)
		}
		store = s
	} else {
		store = config.New(config.FlagNone)
	}

	cfg := &appConfig{
		MPDHost:      f.mpdHost,
		MPDPort:      strconv.Itoa(f.mpdPort),
		MPDPassword:  getString(store, "mpdpassword", ""),
		MPDTimeoutMS: getInt(store, "mpdtimeoutms", 3000),

		FriendlyName: f.friendlyName,
		LogFile:      f.logFile,
		LogLevel:     f.logLevel,
		PidFile:      getString(store, "pidfile", "/var/run/upmpdcli.pid"),
		CacheDir:     getString(store, "cachedir", "/var/cache/upmpdcli"),

		OwnQueue:           resolveBool(f.ownQueue, getBool(store, "ownqueue", true)),
		AutoPlay:           getBool(store, "avtautoplay", false),
		KeepConsume:        getBool(store, "keepconsume", false),
		CheckContentFormat: getBool(store, "checkcontentformat", true),

		EnableOpenHome: resolveBool(f.openHome, getBool(store, "openhome", true)),
		EnableUpnpAV:   getBool(store, "upnpav", true),
		UPnPPort:       f.upnpPort,
		Iface:          f.iface,

		OnStart: getString(store, "onstart", ""),
		OnPlay:  getString(store, "onplay", ""),
		OnPause: getString(store, "onpause", ""),
		OnStop:  getString(store, "onstop", ""),
		OnVolumeChange:        getList(store, "onvolumechange"),
		GetExternalVolume:     getList(store, "getexternalvolume"),
		ExternalVolumeControl: getBool(store, "externalvolumecontrol", false),

		Product: product.Config{
			Manufacturer:     getString(store, "ohmanufacturername", "upmpdcli-go"),
			ManufacturerInfo: getString(store, "ohmanufacturerinfo", ""),
			ManufacturerURL:  getString(store, "ohmanufacturerurl", ""),
			ModelName:        getString(store, "ohmodelname", "upmpdcli-go"),
			ProductName:      getString(store, "ohproductname", f.friendlyName),
			ProductRoom:      getString(store, "ohproductroom", ""),
			OnStandby:        getString(store, "onstandby", ""),
		},
		Credentials: credentials.Config{
			CacheDir:   getString(store, "cachedir", "/var/cache/upmpdcli") + "/ohcreds",
			SaveToFile: getBool(store, "saveohcredentials", true),
		},

		RadioChannels: loadRadioChannels(store),
		// radioscriptdir points at the directory holding the bundled
		// playlist-to-stream-URL resolver (the original's
		// rdpl2stream/fetchStream.py, invoked with a static channel's
		// URL per spec §6/§4.9 step 1); defaults to a PATH-relative
		// lookup when not installed under an absolute data directory.
		RadioResolverPath: getString(store, "radioscriptdir", "rdpl2stream") + "/fetchStream.py",
	}

	if sc := loadSongcastConfig(store, f.friendlyName); sc != nil {
		cfg.Songcast = sc
	}

	if f.mpdHost == "" {
		cfg.MPDHost = getString(store, "mpdhost", "localhost")
	}

	cfg.HTTPBaseURL = deriveBaseURL(cfg.Iface, cfg.UPnPPort)
	return cfg, nil
}

// resolveBool maps a tri-state CLI int flag (-1 unset, 0/1 explicit)
// onto a config-file default, per spec §6's `-q {0|1}`/`-O {0|1}`.
func resolveBool(flagVal int, fileDefault bool) bool {
	switch flagVal {
	case 0:
		return false
	case 1:
		return true
	default:
		return fileDefault
	}
}

func loadRadioChannels(store config.Store) []radio.Channel {
	var channels []radio.Channel
	for _, section := range store.GetSubKeys() {
		if !strings.HasPrefix(section, "radio ") {
			continue
		}
		title := strings.TrimSpace(strings.TrimPrefix(section, "radio"))
		sub := tempSectionStore(store, section)
		channels = append(channels, radio.Channel{
			Title:        title,
			URL:          sub.Get("url"),
			ArtURL:       sub.Get("artUrl"),
			ArtScript:    sub.Get("artScript"),
			MetaScript:   sub.Get("metaScript"),
			PreferScript: sub.GetBool("preferScript"),
		})
	}
	return channels
}

// sectionView is a tiny read-only accessor scoped to one section name,
// avoiding a Store-interface-wide section parameter at every call site
// in loadRadioChannels.
type sectionView struct {
	store   config.Store
	section string
}

func tempSectionStore(store config.Store, section string) sectionView {
	return sectionView{store: store, section: section}
}

func (v sectionView) Get(name string) string {
	s, _ := v.store.Get(name, v.section)
	return s
}

func (v sectionView) GetBool(name string) bool {
	return v.store.GetBool(name, false, v.section)
}

func loadSongcastConfig(store config.Store, friendlyName string) *songcast.Config {
	if getBool(store, "scnosongcastsource", false) {
		return nil
	}
	starter := getString(store, "scsenderpath", "")
	if starter == "" {
		return nil
	}
	return &songcast.Config{
		StarterCmd:   starter,
		MPDPort:      getString(store, "scsendermpdport", "6700"),
		FriendlyName: friendlyName,
		ScaleStream:  getBool(store, "scstreamscaled", false),
		StreamCodec:  getString(store, "scstreamcodec", "wav"),
		GraceTimeout: time.Duration(getInt(store, "scscriptgracesecs", 10)) * time.Second,
	}
}

func deriveBaseURL(iface string, port int) string {
	host := iface
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}
