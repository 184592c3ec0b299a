package llmclient

import "strings"

// isContextOverflow classifies an error message as a context-window overflow,
// which the LLM client must never retry (§4.2, §7): the client returns the
// null payload immediately instead of burning the fixed retry budget.
func isContextOverflow(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context length"),
		strings.Contains(msg, "context_length"),
		strings.Contains(msg, "maximum context"),
		strings.Contains(msg, "context window"),
		strings.Contains(msg, "too many tokens"),
		strings.Contains(msg, "reduce the length"):
		return true
	default:
		return false
	}
}
