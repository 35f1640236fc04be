package service

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation is returned when the caller breaks the input
	// contract, e.g. relevance flags that do not pair up with the documents.
	ErrContractViolation = errors.New("contract violation")

	// ErrBudgetExceeded is returned when manually selected documents overflow
	// the context window before the last document.
	ErrBudgetExceeded = errors.New("LLM context window exceeded, please de-select some documents or shorten your query")
)

// ConfigLookupError reports a configuration store failure while resolving
// embedding chunk settings.
type ConfigLookupError struct {
	Op  string // "connector" or "document"
	Key string
	Err error
}

func (e *ConfigLookupError) Error() string {
	return fmt.Sprintf("config lookup (%s %s): %v", e.Op, e.Key, e.Err)
}

func (e *ConfigLookupError) Unwrap() error {
	return e.Err
}
