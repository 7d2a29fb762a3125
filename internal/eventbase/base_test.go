package eventbase

import (
	"reflect"
	"testing"

	"github.com/jfdockes/upmpdcli-go/internal/model"
)

type fakeNotifier struct {
	serviceID     string
	names, values []string
}

func (n *fakeNotifier) NotifyEvent(serviceID string, names, values []string) {
	n.serviceID = serviceID
	n.names = names
	n.values = values
}

func TestGetEventDataOnlyEmitsChanges(t *testing.T) {
	calls := 0
	b := New("svc1", "Volume", []string{"Volume", "Mute"}, func(st *model.Status) map[string]string {
		calls++
		return map[string]string{"Volume": "50", "Mute": "0"}
	})

	names, values := b.GetEventData(false, &model.Status{})
	if !reflect.DeepEqual(names, []string{"Volume", "Mute"}) {
		t.Fatalf("first call should emit all vars, got %v", names)
	}
	if !reflect.DeepEqual(values, []string{"50", "0"}) {
		t.Fatalf("unexpected values %v", values)
	}

	names, values = b.GetEventData(false, &model.Status{})
	if len(names) != 0 || len(values) != 0 {
		t.Fatalf("second call with unchanged state should emit nothing, got %v %v", names, values)
	}
}

func TestGetEventDataPreservesDeclaredOrder(t *testing.T) {
	b := New("svc1", "Info", []string{"A", "B", "C"}, func(st *model.Status) map[string]string {
		return map[string]string{"C": "3", "A": "1", "B": "2"}
	})
	names, _ := b.GetEventData(true, &model.Status{})
	if !reflect.DeepEqual(names, []string{"A", "B", "C"}) {
		t.Fatalf("expected declared order A,B,C, got %v", names)
	}
}

func TestOnEventNotifiesOnlyWhenChanged(t *testing.T) {
	val := "1"
	b := New("svc1", "Time", []string{"Seconds"}, func(st *model.Status) map[string]string {
		return map[string]string{"Seconds": val}
	})
	n := &fakeNotifier{}
	b.OnEvent(n, &model.Status{})
	if n.serviceID != "svc1" {
		t.Fatalf("expected notify on first change, got %+v", n)
	}

	n.serviceID = ""
	b.OnEvent(n, &model.Status{})
	if n.serviceID != "" {
		t.Fatalf("expected no notify on unchanged state, got %+v", n)
	}

	val = "2"
	b.OnEvent(n, &model.Status{})
	if n.serviceID != "svc1" || !reflect.DeepEqual(n.names, []string{"Seconds"}) {
		t.Fatalf("expected notify on changed value, got %+v", n)
	}
}
