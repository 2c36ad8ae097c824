// Package errs defines the error kinds shared by every stage of the
// synthesis pipeline. Callers match on kinds with errors.Is against the
// package sentinels, or extract the kind with KindOf.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindToolNotFound
	KindPhonemizationFailed
	KindEmptyTokenization
	KindUnknownVoice
	KindVoiceIndexOutOfRange
	KindVoiceLoadFailed
	KindModelLoadFailed
	KindModelInferenceFailed
	KindAudioIOFailed
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindToolNotFound:         "tool not found",
	KindPhonemizationFailed:  "phonemization failed",
	KindEmptyTokenization:    "empty tokenization",
	KindUnknownVoice:         "unknown voice",
	KindVoiceIndexOutOfRange: "voice index out of range",
	KindVoiceLoadFailed:      "voice load failed",
	KindModelLoadFailed:      "model load failed",
	KindModelInferenceFailed: "model inference failed",
	KindAudioIOFailed:        "audio io failed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrToolNotFound         = &Error{Kind: KindToolNotFound}
	ErrPhonemizationFailed  = &Error{Kind: KindPhonemizationFailed}
	ErrEmptyTokenization    = &Error{Kind: KindEmptyTokenization}
	ErrUnknownVoice         = &Error{Kind: KindUnknownVoice}
	ErrVoiceIndexOutOfRange = &Error{Kind: KindVoiceIndexOutOfRange}
	ErrVoiceLoadFailed      = &Error{Kind: KindVoiceLoadFailed}
	ErrModelLoadFailed      = &Error{Kind: KindModelLoadFailed}
	ErrModelInferenceFailed = &Error{Kind: KindModelInferenceFailed}
	ErrAudioIOFailed        = &Error{Kind: KindAudioIOFailed}
)

// Error is a classified pipeline error. Op names the failing operation,
// Msg carries detail (stderr text, offending name, index), Err the cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// E builds an *Error.
func E(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
