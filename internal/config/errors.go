package config

import "errors"

// ErrUnreadable is returned by callers that need an error value (not
// just OK()'s bool) when a store failed to parse or open, e.g.
// internal/device's Status classification.
var ErrUnreadable = errors.New("config: store unreadable")
