package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RunCLI runs the command-line inspector loop over stdin.
func RunCLI(insp *Inspector) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(recfg) ")

		if !scanner.Scan() {
			break
		}

		cmdLine := strings.TrimSpace(scanner.Text())

		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Println("Exiting inspector...")
			break
		}

		if err := insp.ExecuteCommand(cmdLine); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		if output := insp.GetOutput(); output != "" {
			fmt.Print(output)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}

	return nil
}

// RunTUI runs the terminal inspector.
func (insp *Inspector) RunTUI() error {
	tui := NewTUI(insp)
	return tui.Run()
}
