package debugger

// Display update constants.
const (
	// DisplayUpdateFrequency controls how often the TUI redraws during a
	// free-run walk (every N commands), to keep the terminal responsive
	// without flooding it.
	DisplayUpdateFrequency = 100
)

// Tape view constants.
const (
	// TapeContextBefore is the number of commands listed before the cursor
	// in the TUI and GUI command views.
	TapeContextBefore = 32

	// TapeContextAfter bounds the command window listed from the cursor on
	// in the TUI and GUI command views.
	TapeContextAfter = 128

	// TapeContextBeforeCompact and TapeContextAfterCompact bound the
	// command window printed by the list command.
	TapeContextBeforeCompact = 8
	TapeContextAfterCompact  = 16
)

// Hex dump constants.
const (
	// HexDumpRows is the number of rows shown in a tape hex dump.
	HexDumpRows = 16

	// HexDumpColumns is the number of bytes per row in a tape hex dump.
	HexDumpColumns = 16
)

// History view constants.
const (
	// HistoryViewEntries is the number of recent commands shown in the
	// inspector's command-history panel.
	HistoryViewEntries = 16
)
