package domain

// ParsedCommand is the structured form of one terminal input line. Only the
// fields whose syntax matched are populated; Action is always set.
type ParsedCommand struct {
	Action      string
	Title       string
	Description string
	Priority    Priority
	Category    Category
	DueDate     string
	TaskID      string
	Filter      string
}

// CommandResult is the uniform outcome of dispatching one command. Data, when
// present, carries a task list or a stats summary.
type CommandResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HistoryEntry records one executed command for the terminal scrollback.
type HistoryEntry struct {
	Command   string        `json:"command"`
	Result    CommandResult `json:"result"`
	Timestamp string        `json:"timestamp"`
}
