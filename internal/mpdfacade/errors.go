package mpdfacade

import "errors"

// ErrTransient marks an operation that failed because the connection
// was down or a retry was exhausted, as opposed to a caller mistake;
// internal/device's Status classification treats it as recoverable.
var ErrTransient = errors.New("mpdfacade: transient connection error")
