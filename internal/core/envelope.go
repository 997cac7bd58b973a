package core

// ToolEnvelope is the standard response wrapper for all tool calls.
// Every operation returns one; callers never see a raw error or panic.
type ToolEnvelope struct {
	OK      bool       `json:"ok"`
	Message string     `json:"message,omitempty"`
	Result  any        `json:"result,omitempty"`
	Error   *ToolError `json:"error,omitempty"`
}

// ToolError carries a machine-readable code, the underlying message, and
// actionable guidance plus diagnostic context (ids, action) for the caller.
type ToolError struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Guidance string            `json:"guidance,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
}

// Success wraps a result payload with a human-readable message.
func Success(message string, result any) ToolEnvelope {
	return ToolEnvelope{OK: true, Message: message, Result: result}
}

// Failure classifies err and wraps it with diagnostic context.
func Failure(err error, context map[string]string) ToolEnvelope {
	info := Classify(err)
	return ToolEnvelope{
		OK: false,
		Error: &ToolError{
			Code:     info.Code,
			Message:  info.Message,
			Guidance: info.Guidance,
			Context:  context,
		},
	}
}
