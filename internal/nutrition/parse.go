// internal/nutrition/parse.go
package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"healthai/internal/models"
)

// ErrParse matches every *ParseError.
var ErrParse = errors.New("model reply is not valid nutrition JSON")

// ParseError reports a model reply that could not be decoded into a record.
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse nutrition reply: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// StripFences removes the markdown code fence the model tends to wrap JSON in.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse decodes a model reply into a NutritionRecord. It never returns a
// partially populated record: either the whole payload decodes or the
// result is a *ParseError.
func Parse(raw string) (*models.NutritionRecord, error) {
	payload := StripFences(raw)
	if payload == "" {
		return nil, &ParseError{Payload: payload, Err: errors.New("empty payload")}
	}
	if payload[0] != '{' {
		return nil, &ParseError{Payload: payload, Err: errors.New("payload is not a JSON object")}
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	var record models.NutritionRecord
	if err := dec.Decode(&record); err != nil {
		return nil, &ParseError{Payload: payload, Err: err}
	}

	// Reject trailing content such as a second object or prose after the JSON.
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Payload: payload, Err: errors.New("unexpected data after JSON object")}
	}

	return &record, nil
}
