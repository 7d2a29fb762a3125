package device

import "testing"

func TestVolumeActionsSetAndGet(t *testing.T) {
	var vol int
	var muted bool
	actions := volumeActions(volumeService{
		SetVolume: func(v int) bool { vol = v; return true },
		VolumeInc: func() bool { vol++; return true },
		VolumeDec: func() bool { vol--; return true },
		Volume:    func() int { return vol },
		SetMute:   func(on bool) bool { muted = on; return true },
		Mute:      func() bool { return muted },
		SelectPreset: func(name string) bool { return name == "FactoryDefaults" },
		Presets:      func() []string { return []string{"FactoryDefaults"} },
	})

	if _, err := actions["SetVolume"](map[string]string{"Value": "42"}); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	out, err := actions["Volume"](nil)
	if err != nil || out["Value"] != "42" {
		t.Fatalf("Volume = %v, %v", out, err)
	}

	if _, err := actions["SetMute"](map[string]string{"Value": "1"}); err != nil {
		t.Fatalf("SetMute: %v", err)
	}
	out, err = actions["Mute"](nil)
	if err != nil || out["Value"] != "1" {
		t.Fatalf("Mute = %v, %v", out, err)
	}
}

func TestVolumeActionsBadValueIsInvalidParam(t *testing.T) {
	actions := volumeActions(volumeService{
		SetVolume: func(v int) bool { return true },
		Volume:    func() int { return 0 },
		Mute:      func() bool { return false },
		SetMute:   func(bool) bool { return true },
		VolumeInc: func() bool { return true },
		VolumeDec: func() bool { return true },
		SelectPreset: func(string) bool { return true },
		Presets:      func() []string { return nil },
	})
	if _, err := actions["SetVolume"](map[string]string{"Value": "not-a-number"}); err == nil {
		t.Fatalf("expected error for non-numeric Value")
	}
}
