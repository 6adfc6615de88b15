package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

// Command handler implementations for the interactive inspector prompt.

func parseOffset(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
}

func (insp *Inspector) cmdStep(args []string) error {
	rec, ok := insp.Step()
	if !ok {
		insp.Println("tape exhausted")
		return nil
	}
	insp.Printf("0x%x: %s\n", rec.Offset, rec.Text)
	return nil
}

func (insp *Inspector) cmdContinue(args []string) error {
	stepped, reason := insp.Continue()
	for _, rec := range stepped {
		insp.Printf("0x%x: %s\n", rec.Offset, rec.Text)
	}
	if reason != "" {
		insp.Printf("stopped: %s\n", reason)
	} else {
		insp.Println("tape exhausted")
	}
	return nil
}

func (insp *Inspector) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <offset> [if <condition>]")
	}
	offset, err := parseOffset(args[0])
	if err != nil {
		return fmt.Errorf("invalid offset: %s", args[0])
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := insp.Breakpoints.AddBreakpoint(offset, false, condition)
	if condition != "" {
		insp.Printf("Breakpoint %d at 0x%x (condition: %s)\n", bp.ID, offset, condition)
	} else {
		insp.Printf("Breakpoint %d at 0x%x\n", bp.ID, offset)
	}
	return nil
}

func (insp *Inspector) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <offset>")
	}
	offset, err := parseOffset(args[0])
	if err != nil {
		return fmt.Errorf("invalid offset: %s", args[0])
	}
	bp := insp.Breakpoints.AddBreakpoint(offset, true, "")
	insp.Printf("Temporary breakpoint %d at 0x%x\n", bp.ID, offset)
	return nil
}

func (insp *Inspector) cmdDelete(args []string) error {
	if len(args) == 0 {
		insp.Breakpoints.Clear()
		insp.Println("All breakpoints deleted")
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := insp.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}
	insp.Printf("Breakpoint %d deleted\n", id)
	return nil
}

func (insp *Inspector) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := insp.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}
	insp.Printf("Breakpoint %d enabled\n", id)
	return nil
}

func (insp *Inspector) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := insp.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}
	insp.Printf("Breakpoint %d disabled\n", id)
	return nil
}

func (insp *Inspector) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <addr>")
	}
	addr, err := parseOffset(args[0])
	if err != nil {
		return fmt.Errorf("invalid address: %s", args[0])
	}
	wp := insp.Watchpoints.AddWatchpoint(addr)
	insp.Printf("Watchpoint %d on 0x%x\n", wp.ID, addr)
	return nil
}

func (insp *Inspector) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}
	rec, _ := insp.Current()
	result, err := EvaluateCondition(strings.Join(args, " "), rec.Frame())
	if err != nil {
		return err
	}
	insp.Printf("%v\n", result)
	return nil
}

func (insp *Inspector) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <breakpoints|watchpoints|position>")
	}

	switch strings.ToLower(args[0]) {
	case "breakpoints", "break", "b":
		return insp.showBreakpoints()
	case "watchpoints", "watch", "w":
		return insp.showWatchpoints()
	case "position", "pos", "cursor":
		insp.Printf("command %d of %d\n", insp.cursor, len(insp.commands))
		return nil
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

func (insp *Inspector) showBreakpoints() error {
	all := insp.Breakpoints.GetAllBreakpoints()
	if len(all) == 0 {
		insp.Println("No breakpoints")
		return nil
	}
	insp.Println("Breakpoints:")
	for _, bp := range all {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}
		condition := ""
		if bp.Condition != "" {
			condition = fmt.Sprintf(" if %s", bp.Condition)
		}
		insp.Printf("  %d: 0x%x %s%s%s (hit %d times)\n", bp.ID, bp.Offset, status, temp, condition, bp.HitCount)
	}
	return nil
}

func (insp *Inspector) showWatchpoints() error {
	all := insp.Watchpoints.GetAllWatchpoints()
	if len(all) == 0 {
		insp.Println("No watchpoints")
		return nil
	}
	insp.Println("Watchpoints:")
	for _, wp := range all {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}
		insp.Printf("  %d: 0x%x %s (hit %d times, last value 0x%x)\n", wp.ID, wp.Address, status, wp.HitCount, wp.LastValue)
	}
	return nil
}

func (insp *Inspector) cmdList(args []string) error {
	before, after := TapeContextBeforeCompact, TapeContextAfterCompact
	lo := insp.cursor - before
	if lo < 0 {
		lo = 0
	}
	hi := insp.cursor + after
	if hi > len(insp.commands) {
		hi = len(insp.commands)
	}
	for i := lo; i < hi; i++ {
		rec := insp.commands[i]
		marker := "  "
		if i == insp.cursor {
			marker = "=>"
		}
		insp.Printf("%s 0x%x: %s\n", marker, rec.Offset, rec.Text)
	}
	return nil
}

func (insp *Inspector) cmdSet(args []string) error {
	if len(args) < 3 || args[1] != "=" {
		return fmt.Errorf("usage: set data = <value>")
	}
	if strings.ToLower(args[0]) != "data" {
		return fmt.Errorf("only the data field can be rewritten, got: %s", args[0])
	}
	value, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(args[2]), "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid value: %s", args[2])
	}
	rec, ok := insp.Current()
	if !ok {
		return fmt.Errorf("no current command")
	}
	if err := insp.Rewrite(rec.Offset, value); err != nil {
		return err
	}
	insp.Printf("command at 0x%x rewritten, data = 0x%x\n", rec.Offset, value)
	return nil
}

func (insp *Inspector) cmdReset(args []string) error {
	insp.Reset()
	insp.Println("inspector reset to the first command")
	return nil
}

func (insp *Inspector) cmdHelp(args []string) error {
	insp.Println("ReConfig inspector commands:")
	insp.Println()
	insp.Println("Execution:")
	insp.Println("  step (s)          - Execute one command")
	insp.Println("  continue (c)      - Run until a breakpoint/watchpoint fires")
	insp.Println("  reset             - Rewind to the first command")
	insp.Println()
	insp.Println("Breakpoints:")
	insp.Println("  break (b) <off>   - Set a breakpoint at a tape offset")
	insp.Println("  tbreak (tb) <off> - Set a temporary breakpoint")
	insp.Println("  delete (d) [id]   - Delete breakpoint(s)")
	insp.Println("  enable/disable <id>")
	insp.Println()
	insp.Println("Watchpoints:")
	insp.Println("  watch (w) <addr>  - Watch a register address for value changes")
	insp.Println()
	insp.Println("Inspection:")
	insp.Println("  print (p) <expr>  - Evaluate a condition expression against the current command")
	insp.Println("  list (l)          - Show nearby commands")
	insp.Println("  info (i) <what>   - breakpoints, watchpoints, or position")
	insp.Println()
	insp.Println("Modification:")
	insp.Println("  set data = <hex>  - Rewrite the current command's data field")
	return nil
}

// ExecuteCommand parses and runs one line of inspector input.
func (insp *Inspector) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = insp.LastCommand
	}
	if cmdLine != "" {
		insp.History.Add(cmdLine)
		insp.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "step", "s":
		return insp.cmdStep(args)
	case "continue", "c":
		return insp.cmdContinue(args)
	case "break", "b":
		return insp.cmdBreak(args)
	case "tbreak", "tb":
		return insp.cmdTBreak(args)
	case "delete", "d":
		return insp.cmdDelete(args)
	case "enable":
		return insp.cmdEnable(args)
	case "disable":
		return insp.cmdDisable(args)
	case "watch", "w":
		return insp.cmdWatch(args)
	case "print", "p":
		return insp.cmdPrint(args)
	case "info", "i":
		return insp.cmdInfo(args)
	case "list", "l":
		return insp.cmdList(args)
	case "set":
		return insp.cmdSet(args)
	case "reset":
		return insp.cmdReset(args)
	case "help", "h", "?":
		return insp.cmdHelp(args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}
