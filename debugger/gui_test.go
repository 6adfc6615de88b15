package debugger

import (
	"strings"
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestGUICreation(t *testing.T) {
	insp := newTestInspector(t)

	gui := newGUI(insp)
	if gui == nil {
		t.Fatal("GUI creation returned nil")
	}

	if gui.CommandsView == nil {
		t.Error("CommandsView not initialized")
	}
	if gui.BreakpointsList == nil {
		t.Error("BreakpointsList not initialized")
	}
	if gui.WatchpointsList == nil {
		t.Error("WatchpointsList not initialized")
	}
	if gui.ConsoleOutput == nil {
		t.Error("ConsoleOutput not initialized")
	}
	if gui.Toolbar == nil {
		t.Error("Toolbar not initialized")
	}

	gui.App.Quit()
}

func TestGUIViewUpdates(t *testing.T) {
	insp := newTestInspector(t)
	gui := newGUI(insp)
	defer gui.App.Quit()

	gui.updateCommands()
	gui.updateBreakpoints()
	gui.updateWatchpoints()
	gui.updateConsole()

	if len(gui.CommandsView.Text()) == 0 {
		t.Error("commands view is empty")
	}
}

func TestGUIBreakpointManagement(t *testing.T) {
	insp := newTestInspector(t)
	gui := newGUI(insp)
	defer gui.App.Quit()

	if len(gui.breakpointRows) != 0 {
		t.Errorf("expected 0 breakpoints, got %d", len(gui.breakpointRows))
	}

	target := insp.Commands()[1].Offset
	insp.Breakpoints.AddBreakpoint(target, false, "")
	gui.updateBreakpoints()

	if len(gui.breakpointRows) != 1 {
		t.Errorf("expected 1 breakpoint after adding, got %d", len(gui.breakpointRows))
	}

	gui.clearBreakpoints()
	if len(gui.breakpointRows) != 0 {
		t.Errorf("expected 0 breakpoints after clearing, got %d", len(gui.breakpointRows))
	}
}

func TestGUIStepExecution(t *testing.T) {
	insp := newTestInspector(t)
	gui := newGUI(insp)
	defer gui.App.Quit()

	if insp.Cursor() != 0 {
		t.Fatalf("expected initial cursor 0, got %d", insp.Cursor())
	}

	gui.stepOne()

	if insp.Cursor() != 1 {
		t.Errorf("expected cursor to advance to 1, got %d", insp.Cursor())
	}
}

func TestGUIWithTestDriver(t *testing.T) {
	insp := newTestInspector(t)

	testApp := test.NewApp()
	defer testApp.Quit()

	gui := &GUI{
		Inspector:      insp,
		App:            testApp,
		breakpointRows: []string{},
		watchpointRows: []string{},
	}

	gui.initializeViews()

	if gui.CommandsView == nil {
		t.Error("CommandsView not created")
	}

	gui.updateCommands()
	text := gui.CommandsView.Text()
	if len(text) == 0 {
		t.Error("commands view has no content")
	}
	if !strings.Contains(text, "0x") {
		t.Error("commands view does not show any offsets")
	}
}
