package nltool

import (
	"fmt"
	"strings"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

// MissingParamError reports that an intent reached execution without the
// parameters it needs. Message is user-facing and localized.
type MissingParamError struct {
	Intent  nlp.IntentType
	Params  []string
	Message string
}

func (e *MissingParamError) Error() string {
	return e.Message
}

func missing(intent nlp.IntentType, msg string, params ...string) *MissingParamError {
	return &MissingParamError{Intent: intent, Params: params, Message: msg}
}

// ExecutionError wraps a failure returned by the Executor.
type ExecutionError struct {
	Intent nlp.IntentType
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Intent, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func validationMessages(v nlp.ValidationResult) string {
	msgs := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
