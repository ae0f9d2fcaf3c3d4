package etherscan

import (
	"fmt"
	"strings"
)

// ForbiddenError is returned when the explorer answers with HTTP 403.
type ForbiddenError struct {
	Body string
	Err  error
}

func (e *ForbiddenError) Error() string {
	if e.Err != nil {
		return "unexpected status code 403 and could not read response body: " + e.Err.Error()
	}
	return "unexpected status code 403: " + e.Body
}

func (e *ForbiddenError) Unwrap() error { return e.Err }

type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("response status was not 200: %d", e.StatusCode)
}

// RequestError means the request never produced a response.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "request failed: " + e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "failed to read response body: " + e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

// EnvelopeError is returned when the response body is not a JSON envelope.
type EnvelopeError struct {
	Err error
}

func (e *EnvelopeError) Error() string {
	return "failed to parse json in response body: " + e.Err.Error()
}

func (e *EnvelopeError) Unwrap() error { return e.Err }

type ABIParseError struct {
	Address string
	Err     error
}

func (e *ABIParseError) Error() string {
	return fmt.Sprintf("failed to parse the ABI json for address %s: %v", e.Address, e.Err)
}

func (e *ABIParseError) Unwrap() error { return e.Err }

// Violation is a single structural problem found in an ABI.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// SchemaError carries every violation found while validating an ABI.
type SchemaError struct {
	Address    string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("ABI for address %s did not match expected schema: %s", e.Address, strings.Join(msgs, "; "))
}
