package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a generation request failed
type ErrorKind string

const (
	// KindInvalidInput means the request itself was unusable; no upstream call is made.
	KindInvalidInput ErrorKind = "InvalidInput"
	// KindUpstreamFailure covers every failure of the text-generation call.
	KindUpstreamFailure ErrorKind = "UpstreamFailure"
	// KindMalformedAIResponse means no JSON object could be recovered from the model output.
	KindMalformedAIResponse ErrorKind = "MalformedAIResponse"
	// KindMissingFields means a JSON object was recovered but lacks required keys.
	KindMissingFields ErrorKind = "MissingFields"
	// KindInvalidFields means required keys are present with unusable values.
	KindInvalidFields ErrorKind = "InvalidFields"
)

var (
	// ErrNoJSONObject is the cause when the text holds no '{' ... '}' span.
	ErrNoJSONObject = errors.New("no JSON object found in response")
	// ErrInvalidJSON is the cause when a candidate span was found but did not parse.
	ErrInvalidJSON = errors.New("response contains invalid JSON")
)

// GenerationError is the error returned by every stage of recipe generation
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Cause   error
	// Fields names the missing or invalid keys for KindMissingFields and KindInvalidFields.
	Fields []string
	// Raw is the offending model output, when there is one.
	Raw string
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Cause: cause}
}

// KindOf reports the kind of a generation error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}
