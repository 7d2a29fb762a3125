// Package timesvc implements the OpenHome Time service: track count,
// track duration and current elapsed seconds.
package timesvc

import (
	"strconv"

	"github.com/jfdockes/upmpdcli-go/internal/eventbase"
	"github.com/jfdockes/upmpdcli-go/internal/mpdfacade"
	"github.com/jfdockes/upmpdcli-go/internal/model"
)

var declaredOrder = []string{"TrackCount", "Duration", "Seconds"}

type Service struct {
	*eventbase.Base
	facade *mpdfacade.Facade
}

func New(serviceID string, facade *mpdfacade.Facade, notifier eventbase.Notifier) *Service {
	s := &Service{facade: facade}
	s.Base = eventbase.New(serviceID, "Time", declaredOrder, s.makeState)
	facade.Subscribe(mpdfacade.PlayerEvt, func(st *model.Status) {
		s.OnEvent(notifier, st)
	})
	return s
}

func (s *Service) makeState(st *model.Status) map[string]string {
	return map[string]string{
		"TrackCount": strconv.Itoa(st.TrackCounter),
		"Duration":   strconv.Itoa(int(st.DurationMS / 1000)),
		"Seconds":    strconv.Itoa(int(st.ElapsedMS / 1000)),
	}
}

// Data returns the current (trackCount, duration, seconds) triple as
// the Time action itself reports it.
func (s *Service) Data() (trackCount, duration, seconds int) {
	st := s.facade.Status()
	return st.TrackCounter, int(st.DurationMS / 1000), int(st.ElapsedMS / 1000)
}
