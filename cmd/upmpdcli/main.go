// Command upmpdcli bridges an MPD instance onto the network as a UPnP
// AVTransport-compat and OpenHome media renderer.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is the daemon's reported build version, substituted into
// friendlyname's %v token.
const version = "1.0.0-go"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cliFlags struct {
	configFile   string
	mpdHost      string
	mpdPort      int
	logFile      string
	logLevel     string
	daemonize    bool
	friendlyName string
	ownQueue     int
	iface        string
	upnpPort     int
	openHome     int
	showVersion  bool
	msMode       int
}

func newRootCmd() *cobra.Command {
	var f cliFlags
	cmd := &cobra.Command{
		Use:           "upmpdcli",
		Short:         "Expose an MPD instance as a UPnP/OpenHome media renderer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				fmt.Println(version)
				return nil
			}
			return run(f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.configFile, "config", "c", "", "configuration file path")
	fl.StringVarP(&f.mpdHost, "mpdhost", "h", "localhost", "MPD host")
	fl.IntVarP(&f.mpdPort, "mpdport", "p", 6600, "MPD port")
	fl.StringVarP(&f.logFile, "logfile", "d", "", "log file path (empty: stderr)")
	fl.StringVarP(&f.logLevel, "loglevel", "l", "info", "log level")
	fl.BoolVarP(&f.daemonize, "daemonize", "D", false, "run in the background")
	fl.StringVarP(&f.friendlyName, "friendlyname", "f", "UpMpd", "renderer friendly name (%h/%H/%v supported)")
	fl.IntVarP(&f.ownQueue, "ownqueue", "q", -1, "0/1: may the renderer clear the MPD queue (-1: from config)")
	fl.StringVarP(&f.iface, "iface", "i", "", "network interface to advertise on")
	fl.IntVarP(&f.upnpPort, "upnpport", "P", 0, "HTTP port for description/control/eventing (0: any free port)")
	fl.IntVarP(&f.openHome, "openhome", "O", -1, "0/1: advertise the OpenHome device (-1: from config)")
	fl.BoolVarP(&f.showVersion, "version", "v", false, "print version and exit")
	fl.IntVarP(&f.msMode, "msmode", "m", 1, "media-server mode (1: renderer only)")
	return cmd
}

func run(f cliFlags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		log.Errorf("upmpdcli: configuration failed: %v", err)
		return err
	}

	if err := configureLogging(cfg); err != nil {
		log.Errorf("upmpdcli: logging setup failed: %v", err)
		return err
	}

	if f.daemonize {
		if err := daemonize(); err != nil {
			log.Errorf("upmpdcli: daemonize failed: %v", err)
			return err
		}
	}

	if err := writePidfile(cfg.PidFile); err != nil {
		log.Errorf("upmpdcli: pidfile: %v", err)
		return err
	}
	defer os.Remove(cfg.PidFile)

	rd, srv, err := buildRootDevice(cfg)
	if err != nil {
		log.Errorf("upmpdcli: device assembly failed: %v", err)
		return err
	}
	if err := rd.Start(); err != nil {
		log.Errorf("upmpdcli: device start failed: %v", err)
		return err
	}
	defer rd.Shutdown()

	log.Infof("upmpdcli: %s ready on %s", cfg.FriendlyName, cfg.HTTPBaseURL)
	waitForSignal()
	_ = srv
	return nil
}
