package server

import (
	"context"
	"errors"

	"github.com/desertthunder/workplate/internal/shared"
)

// Kind classifies the outcome of a redirect wait.
type Kind int

const (
	KindCode     Kind = iota // an authorization code was received
	KindTimedOut             // nothing usable arrived before the deadline
	KindFailure              // bind, read, or malformed redirect
	KindCanceled             // the caller's context was cancelled
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindTimedOut:
		return "timed out"
	case KindFailure:
		return "failure"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result contains the outcome of an asynchronous redirect wait.
type Result struct {
	Code string
	err  error
}

// NewResult builds a Result from the return values of [Listener.Await].
func NewResult(code string, err error) Result {
	if err != nil {
		code = ""
	}
	return Result{Code: code, err: err}
}

func (r Result) Error() error {
	return r.err
}

// Kind reports which outcome r holds.
func (r Result) Kind() Kind {
	switch {
	case r.err == nil:
		return KindCode
	case errors.Is(r.err, shared.ErrTimeout):
		return KindTimedOut
	case errors.Is(r.err, context.Canceled):
		return KindCanceled
	default:
		return KindFailure
	}
}
