// Package device assembles the nine protocol services into two
// advertised UPnP root devices (classic AV and OpenHome), owns the
// live MPD facade pointer the songcast orchestrator swaps, and
// dispatches SOAP actions to the right service method.
package device

import (
	"errors"

	"github.com/jfdockes/upmpdcli-go/internal/config"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

// Status is the small error-classification enum spec §7 asks for:
// action dispatch never lets a Go panic or a raw error escape across
// the device boundary, it converts to one of these.
type Status int

const (
	OK Status = iota
	InvalidParam
	InternalError
)

// errInvalidParam is returned by dispatch functions for a rejected
// action argument (bad id, out-of-range value): FromError classifies
// it as InvalidParam rather than InternalError.
var errInvalidParam = errors.New("device: invalid action parameter")

// FromError classifies err into a dispatch Status, consulting the
// sentinel errors each package defines so a transient MPD hiccup
// reports differently than a caller mistake.
func FromError(err error) Status {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, errInvalidParam):
		return InvalidParam
	case errors.Is(err, config.ErrUnreadable):
		return InvalidParam
	case errors.Is(err, mpdfacade.ErrTransient):
		return InternalError
	default:
		return InternalError
	}
}
