package device

import (
	"errors"
	"testing"

	"github.com/jfdockes/upmpdcli-go/internal/config"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, OK},
		{"invalid param", errInvalidParam, InvalidParam},
		{"wrapped invalid param", errors.New("wrap: " + errInvalidParam.Error()), InternalError},
		{"config unreadable", config.ErrUnreadable, InvalidParam},
		{"transient mpd", mpdfacade.ErrTransient, InternalError},
		{"unknown", errors.New("boom"), InternalError},
	}
	for _, c := range cases {
		if got := FromError(c.err); got != c.want {
			t.Errorf("%s: FromError = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestFromErrorWrapped(t *testing.T) {
	wrapped := errorsWrap(errInvalidParam)
	if got := FromError(wrapped); got != InvalidParam {
		t.Fatalf("FromError(wrapped invalid param) = %v, want InvalidParam", got)
	}
}

func errorsWrap(err error) error {
	return &wrapErr{err}
}

type wrapErr struct{ inner error }

func (w *wrapErr) Error() string { return "context: " + w.inner.Error() }
func (w *wrapErr) Unwrap() error { return w.inner }
