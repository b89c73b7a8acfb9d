package hook

import (
	"encoding/json"
	"strconv"
)

// Event describes a lifecycle event to its hooks.
type Event interface {
	Type() Type
	Env() map[string]string
}

// SessionStartEvent is fired when a session begins.
type SessionStartEvent struct {
	ProjectRoot    string
	InitialMessage string
}

func (SessionStartEvent) Type() Type { return SessionStart }

func (e SessionStartEvent) Env() map[string]string {
	env := map[string]string{"AURORA_PROJECT_ROOT": e.ProjectRoot}
	if e.InitialMessage != "" {
		env["AURORA_INITIAL_MESSAGE"] = e.InitialMessage
	}
	return env
}

// SessionEndEvent is fired when a session ends.
type SessionEndEvent struct {
	MessageCount int
	TotalChars   int
}

func (SessionEndEvent) Type() Type { return SessionEnd }

func (e SessionEndEvent) Env() map[string]string {
	return map[string]string{
		"AURORA_MESSAGE_COUNT": strconv.Itoa(e.MessageCount),
		"AURORA_TOTAL_CHARS":   strconv.Itoa(e.TotalChars),
	}
}

// ToolCallEvent is fired before a tool runs.
type ToolCallEvent struct {
	ToolName string
	ToolID   string
	Input    any
}

func (ToolCallEvent) Type() Type { return BeforeToolCall }

func (e ToolCallEvent) Env() map[string]string {
	return map[string]string{
		"AURORA_TOOL_NAME":  e.ToolName,
		"AURORA_TOOL_ID":    e.ToolID,
		"AURORA_TOOL_INPUT": encodeInput(e.Input),
	}
}

// ToolResultEvent is fired after a tool ran.
type ToolResultEvent struct {
	ToolCallEvent
	Output  string
	IsError bool
}

func (ToolResultEvent) Type() Type { return AfterToolCall }

func (e ToolResultEvent) Env() map[string]string {
	env := e.ToolCallEvent.Env()
	env["AURORA_TOOL_OUTPUT"] = e.Output
	env["AURORA_TOOL_ERROR"] = strconv.FormatBool(e.IsError)
	return env
}

func encodeInput(v any) string {
	if v == nil {
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
