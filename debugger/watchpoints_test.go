package debugger

import (
	"testing"
)

func TestWatchpointManager_AddWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(0x1000)

	if wp == nil {
		t.Fatal("AddWatchpoint returned nil")
	}

	if wp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", wp.ID)
	}

	if wp.Address != 0x1000 {
		t.Errorf("Expected address 0x1000, got 0x%x", wp.Address)
	}

	if !wp.Enabled {
		t.Error("Watchpoint should be enabled by default")
	}

	if wp.HitCount != 0 {
		t.Errorf("Initial hit count should be 0, got %d", wp.HitCount)
	}
}

func TestWatchpointManager_AddMultiple(t *testing.T) {
	wm := NewWatchpointManager()

	wp1 := wm.AddWatchpoint(0x1000)
	wp2 := wm.AddWatchpoint(0x2000)

	if wp1.ID == wp2.ID {
		t.Error("Watchpoint IDs should be unique")
	}

	if wm.Count() != 2 {
		t.Errorf("Expected 2 watchpoints, got %d", wm.Count())
	}
}

func TestWatchpointManager_DeleteWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(0x1000)

	err := wm.DeleteWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("DeleteWatchpoint failed: %v", err)
	}

	if wm.GetWatchpoint(wp.ID) != nil {
		t.Error("Watchpoint not deleted")
	}

	err = wm.DeleteWatchpoint(999)
	if err == nil {
		t.Error("Expected error when deleting non-existent watchpoint")
	}
}

func TestWatchpointManager_EnableDisable(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(0x1000)

	err := wm.DisableWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("DisableWatchpoint failed: %v", err)
	}

	if wp.Enabled {
		t.Error("Watchpoint not disabled")
	}

	err = wm.EnableWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("EnableWatchpoint failed: %v", err)
	}

	if !wp.Enabled {
		t.Error("Watchpoint not enabled")
	}
}

func TestWatchpointManager_ObserveFirstSeenDoesNotFire(t *testing.T) {
	wm := NewWatchpointManager()
	wm.AddWatchpoint(0x1000)

	hit, fired := wm.Observe(0x1000, 0x42)
	if fired {
		t.Error("first observed value should not fire a watchpoint")
	}
	if hit != nil {
		t.Error("expected nil watchpoint on first observation")
	}
}

func TestWatchpointManager_ObserveFiresOnChange(t *testing.T) {
	wm := NewWatchpointManager()
	wp := wm.AddWatchpoint(0x1000)

	wm.Observe(0x1000, 0x42)

	hit, fired := wm.Observe(0x1000, 0x43)
	if !fired {
		t.Fatal("expected watchpoint to fire on value change")
	}

	if hit.ID != wp.ID {
		t.Errorf("Wrong watchpoint triggered: got %d, want %d", hit.ID, wp.ID)
	}

	if hit.HitCount != 1 {
		t.Errorf("Hit count = %d, want 1", hit.HitCount)
	}

	if hit.LastValue != 0x43 {
		t.Errorf("LastValue not updated: got 0x%x, want 0x43", hit.LastValue)
	}
}

func TestWatchpointManager_ObserveIgnoresUnchangedValue(t *testing.T) {
	wm := NewWatchpointManager()
	wm.AddWatchpoint(0x1000)

	wm.Observe(0x1000, 0x42)

	if _, fired := wm.Observe(0x1000, 0x42); fired {
		t.Error("unchanged value should not fire a watchpoint")
	}
}

func TestWatchpointManager_ObserveIgnoresDisabled(t *testing.T) {
	wm := NewWatchpointManager()
	wp := wm.AddWatchpoint(0x1000)
	wm.Observe(0x1000, 0x42)
	wm.DisableWatchpoint(wp.ID)

	if _, fired := wm.Observe(0x1000, 0x99); fired {
		t.Error("disabled watchpoint should not trigger")
	}
}

func TestWatchpointManager_ObserveIgnoresOtherAddresses(t *testing.T) {
	wm := NewWatchpointManager()
	wm.AddWatchpoint(0x1000)

	if _, fired := wm.Observe(0x2000, 0x42); fired {
		t.Error("watchpoint at a different address should not trigger")
	}
}

func TestWatchpointManager_GetAllWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(0x1000)
	wm.AddWatchpoint(0x2000)
	wm.AddWatchpoint(0x3000)

	all := wm.GetAllWatchpoints()

	if len(all) != 3 {
		t.Errorf("Expected 3 watchpoints, got %d", len(all))
	}
}

func TestWatchpointManager_Clear(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(0x1000)
	wm.AddWatchpoint(0x2000)

	wm.Clear()

	if wm.Count() != 0 {
		t.Errorf("Expected 0 watchpoints after clear, got %d", wm.Count())
	}
}
