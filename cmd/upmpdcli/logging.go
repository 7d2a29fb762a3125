package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// configureLogging points logrus at cfg.LogFile (or stderr) and maps
// spec §7's {fatal, error, warn, info, debug, debug1, debug2} onto
// logrus levels; debug1/debug2 collapse onto Trace (see DESIGN.md).
func configureLogging(cfg *appConfig) error {
	if cfg.LogFile != "" && cfg.LogFile != "stderr" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		log.SetOutput(f)
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

func parseLevel(name string) (log.Level, error) {
	switch name {
	case "debug1", "debug2":
		return log.TraceLevel, nil
	default:
		return log.ParseLevel(name)
	}
}
