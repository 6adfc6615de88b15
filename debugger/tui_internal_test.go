package debugger

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

// TestExecuteCommandReturnsPromptly verifies executeCommand completes
// quickly: unlike the emulator's stepped VM execution, ReConfig commands
// have no blocking side effects so the TUI never needs to offload them
// to a goroutine.
func TestExecuteCommandReturnsPromptly(t *testing.T) {
	insp := newTestInspector(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewTUIWithScreen(insp, screen)

	done := make(chan bool, 1)
	go func() {
		tui.executeCommand("help")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 2):
		t.Fatal("executeCommand blocked for more than 2 seconds")
	}
}

// TestHandleCommandDispatchesToInspector verifies the command input's
// done handler routes to the inspector and clears the field.
func TestHandleCommandDispatchesToInspector(t *testing.T) {
	insp := newTestInspector(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewTUIWithScreen(insp, screen)
	tui.CommandInput.SetText("step")

	done := make(chan bool, 1)
	go func() {
		tui.handleCommand(tcell.KeyEnter)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Millisecond * 200):
		t.Fatal("handleCommand blocked for more than 200ms")
	}

	if insp.Cursor() != 1 {
		t.Errorf("expected the step command to advance the cursor, got %d", insp.Cursor())
	}
	if tui.CommandInput.GetText() != "" {
		t.Error("expected the command input to be cleared after dispatch")
	}
}

func TestUpdateCommandsViewMarksCursor(t *testing.T) {
	insp := newTestInspector(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewTUIWithScreen(insp, screen)
	tui.UpdateCommandsView()

	text := tui.CommandsView.GetText(true)
	if text == "" {
		t.Fatal("expected the commands view to have content")
	}
	if !strings.Contains(text, "->") {
		t.Errorf("expected the cursor marker \"->\" in the commands view, got %q", text)
	}
}
