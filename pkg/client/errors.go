package client

import (
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a response body is not valid JSON or
// lacks keys the caller requires.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents non-2xx statuses outside 4xx/5xx.
	ErrorClassUnexpected ErrorClass = "unexpected"

	// ErrorClassDecode represents bodies that could not be decoded.
	ErrorClassDecode ErrorClass = "decode"
)

// RequestError describes a failed request to the onePA service.
type RequestError struct {
	Endpoint   string
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("onePA %s error (status %d) on %s: %s: %v",
			e.ErrorClass, e.StatusCode, e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("onePA %s error (status %d) on %s: %s",
		e.ErrorClass, e.StatusCode, e.Endpoint, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// ClassOf returns the ErrorClass carried by err, or "" if err is not a request
// or decode failure.
func ClassOf(err error) ErrorClass {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ErrorClass
	}
	if errors.Is(err, ErrUnexpectedShape) {
		return ErrorClassDecode
	}
	return ""
}
