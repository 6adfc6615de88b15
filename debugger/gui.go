package debugger

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// GUI is the graphical front end for an Inspector.
type GUI struct {
	Inspector *Inspector
	App       fyne.App
	Window    fyne.Window

	CommandsView    *widget.TextGrid
	BreakpointsList *widget.List
	WatchpointsList *widget.List
	ConsoleOutput   *widget.TextGrid
	StatusLabel     *widget.Label

	Toolbar *widget.Toolbar

	breakpointRows []string
	watchpointRows []string

	consoleBuffer strings.Builder
	consoleMutex  sync.Mutex
}

// guiWriter redirects inspector output to the GUI console.
type guiWriter struct {
	gui *GUI
}

func (w *guiWriter) Write(p []byte) (n int, err error) {
	w.gui.consoleMutex.Lock()
	defer w.gui.consoleMutex.Unlock()

	w.gui.consoleBuffer.Write(p)
	w.gui.updateConsole()
	return len(p), nil
}

// RunGUI launches the graphical inspector over insp.
func (insp *Inspector) RunGUI() error {
	gui := newGUI(insp)
	gui.Window.ShowAndRun()
	return nil
}

func newGUI(insp *Inspector) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("ReConfig Inspector")

	g := &GUI{
		Inspector:      insp,
		App:            myApp,
		Window:         myWindow,
		breakpointRows: []string{},
		watchpointRows: []string{},
	}

	g.initializeViews()
	g.buildLayout()
	g.setupToolbar()

	myWindow.Resize(fyne.NewSize(1200, 800))

	return g
}

func (g *GUI) initializeViews() {
	g.CommandsView = widget.NewTextGrid()
	g.updateCommands()

	g.BreakpointsList = widget.NewList(
		func() int { return len(g.breakpointRows) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(g.breakpointRows[id])
		},
	)

	g.WatchpointsList = widget.NewList(
		func() int { return len(g.watchpointRows) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(g.watchpointRows[id])
		},
	)

	g.ConsoleOutput = widget.NewTextGrid()
	g.ConsoleOutput.SetText("")

	g.StatusLabel = widget.NewLabel("Ready")
}

func (g *GUI) buildLayout() {
	commandsPanel := container.NewBorder(
		widget.NewLabel("Commands"),
		nil, nil, nil,
		container.NewScroll(g.CommandsView),
	)

	breakpointsPanel := container.NewBorder(
		widget.NewLabel("Breakpoints"),
		nil, nil, nil,
		container.NewScroll(g.BreakpointsList),
	)

	watchpointsPanel := container.NewBorder(
		widget.NewLabel("Watchpoints"),
		nil, nil, nil,
		container.NewScroll(g.WatchpointsList),
	)

	consolePanel := container.NewBorder(
		widget.NewLabel("Output"),
		nil, nil, nil,
		container.NewScroll(g.ConsoleOutput),
	)

	rightTop := container.NewVSplit(breakpointsPanel, watchpointsPanel)
	rightTop.SetOffset(0.5)

	rightPanel := container.NewVSplit(rightTop, consolePanel)
	rightPanel.SetOffset(0.6)

	mainSplit := container.NewHSplit(commandsPanel, rightPanel)
	mainSplit.SetOffset(0.6)

	statusBar := container.NewBorder(nil, nil, nil, nil, g.StatusLabel)

	content := container.NewBorder(
		g.Toolbar,
		statusBar,
		nil,
		nil,
		mainSplit,
	)

	g.Window.SetContent(content)
}

func (g *GUI) setupToolbar() {
	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() {
			g.stepOne()
		}),
		widget.NewToolbarAction(theme.MediaFastForwardIcon(), func() {
			g.continueRun()
		}),
		widget.NewToolbarAction(theme.MediaPlayIcon(), func() {
			g.resetRun()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			g.clearBreakpoints()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() {
			g.refreshViews()
		}),
	)
}

func (g *GUI) updateViews() {
	g.updateCommands()
	g.updateBreakpoints()
	g.updateWatchpoints()
	g.updateConsole()
}

// updateCommands redraws the command listing around the current cursor.
func (g *GUI) updateCommands() {
	commands := g.Inspector.Commands()
	cursor := g.Inspector.Cursor()

	lo := cursor - TapeContextBefore
	if lo < 0 {
		lo = 0
	}
	hi := cursor + TapeContextAfter
	if hi > len(commands) {
		hi = len(commands)
	}

	var sb strings.Builder
	for i := lo; i < hi; i++ {
		rec := commands[i]
		prefix := "  "
		if i == cursor {
			prefix = "> "
		}
		if g.Inspector.Breakpoints.GetBreakpoint(rec.Offset) != nil {
			prefix = "* "
		}
		sb.WriteString(fmt.Sprintf("%s0x%08x: %s\n", prefix, rec.Offset, rec.Text))
	}
	if sb.Len() == 0 {
		sb.WriteString("tape exhausted\n")
	}

	g.CommandsView.SetText(sb.String())
}

func (g *GUI) updateBreakpoints() {
	all := g.Inspector.Breakpoints.GetAllBreakpoints()
	g.breakpointRows = make([]string, 0, len(all))

	for _, bp := range all {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		row := fmt.Sprintf("%d: 0x%x (%s)", bp.ID, bp.Offset, status)
		if bp.Condition != "" {
			row += fmt.Sprintf(" if %s", bp.Condition)
		}
		g.breakpointRows = append(g.breakpointRows, row)
	}

	g.BreakpointsList.Refresh()
}

func (g *GUI) updateWatchpoints() {
	all := g.Inspector.Watchpoints.GetAllWatchpoints()
	g.watchpointRows = make([]string, 0, len(all))

	for _, wp := range all {
		g.watchpointRows = append(g.watchpointRows, fmt.Sprintf("%d: 0x%x = 0x%x (hits %d)", wp.ID, wp.Address, wp.LastValue, wp.HitCount))
	}

	g.WatchpointsList.Refresh()
}

func (g *GUI) updateConsole() {
	g.consoleMutex.Lock()
	defer g.consoleMutex.Unlock()

	g.ConsoleOutput.SetText(g.consoleBuffer.String())
}

func (g *GUI) writeStatus(format string, args ...interface{}) {
	g.StatusLabel.SetText(fmt.Sprintf(format, args...))
}

func (g *GUI) stepOne() {
	rec, ok := g.Inspector.Step()
	if !ok {
		g.writeStatus("tape exhausted")
		g.updateViews()
		return
	}
	g.writeStatus("stepped to 0x%x: %s", rec.Offset, rec.Text)
	g.updateViews()
}

func (g *GUI) continueRun() {
	stepped, reason := g.Inspector.Continue()
	if reason != "" {
		g.writeStatus("stopped: %s (%d commands executed)", reason, len(stepped))
	} else {
		g.writeStatus("tape exhausted (%d commands executed)", len(stepped))
	}
	g.updateViews()
}

func (g *GUI) resetRun() {
	g.Inspector.Reset()
	g.writeStatus("reset to the first command")
	g.updateViews()
}

func (g *GUI) clearBreakpoints() {
	g.Inspector.Breakpoints.Clear()
	g.updateBreakpoints()
	g.writeStatus("all breakpoints cleared")
}

func (g *GUI) refreshViews() {
	g.updateViews()
	g.writeStatus("views refreshed")
}
