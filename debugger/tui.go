package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the terminal front end for an Inspector.
type TUI struct {
	Inspector *Inspector
	App       *tview.Application
	Pages     *tview.Pages

	MainLayout *tview.Flex

	CommandsView    *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI creates a terminal inspector over insp.
func NewTUI(insp *Inspector) *TUI {
	return newTUI(insp, tview.NewApplication())
}

// NewTUIWithScreen creates a terminal inspector bound to an explicit
// tcell screen, for driving the UI under a simulation screen in tests.
func NewTUIWithScreen(insp *Inspector, screen tcell.Screen) *TUI {
	app := tview.NewApplication().SetScreen(screen)
	return newTUI(insp, app)
}

func newTUI(insp *Inspector, app *tview.Application) *TUI {
	t := &TUI{
		Inspector: insp,
		App:       app,
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.CommandsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.CommandsView.SetBorder(true).SetTitle(" Commands ")

	t.BreakpointsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.CommandsView, 0, 2, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 3, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().
		AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	err := t.Inspector.ExecuteCommand(cmd)
	output := t.Inspector.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	t.RefreshAll()
}

// WriteOutput appends text to the output view.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel.
func (t *TUI) RefreshAll() {
	t.UpdateCommandsView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateCommandsView redraws the command listing around the cursor.
func (t *TUI) UpdateCommandsView() {
	t.CommandsView.Clear()

	commands := t.Inspector.Commands()
	cursor := t.Inspector.Cursor()

	lo := cursor - TapeContextBefore
	if lo < 0 {
		lo = 0
	}
	hi := cursor + TapeContextAfter
	if hi > len(commands) {
		hi = len(commands)
	}

	var lines []string
	for i := lo; i < hi; i++ {
		rec := commands[i]
		marker := "  "
		color := "white"
		if i == cursor {
			marker = "->"
			color = "yellow"
		}
		if t.Inspector.Breakpoints.GetBreakpoint(rec.Offset) != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s 0x%08x: %s[white]", color, marker, rec.Offset, rec.Text))
	}
	if len(lines) == 0 {
		lines = append(lines, "[yellow]tape exhausted[white]")
	}

	t.CommandsView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView redraws the breakpoints/watchpoints panel.
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	bps := t.Inspector.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status, color := "enabled", "green"
			if !bp.Enabled {
				status, color = "disabled", "red"
			}
			line := fmt.Sprintf("  %d: [%s]%s[white] 0x%x", bp.ID, color, status, bp.Offset)
			if bp.Condition != "" {
				line += fmt.Sprintf(" if %s", bp.Condition)
			}
			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)
			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	wps := t.Inspector.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			lines = append(lines, fmt.Sprintf("  %d: 0x%x = 0x%x (hits: %d)", wp.ID, wp.Address, wp.LastValue, wp.HitCount))
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI event loop.
func (t *TUI) Run() error {
	t.RefreshAll()

	t.WriteOutput("[green]ReConfig Inspector[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F11 to step\n")
	t.WriteOutput("Type 'help' for the command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop halts the TUI event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}
