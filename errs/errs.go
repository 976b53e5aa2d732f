// Package errs defines the unified error taxonomy: a small set of kinds
// every driver-specific failure (STAR module errors, Prep HcResult
// codes) gets translated into, plus the orchestrator-level kinds
// (InvalidArgument, Unsupported, NotReady).
//
// Kinds are sentinel-typed errors: callers use errors.Is/errors.As,
// wrapped with github.com/pkg/errors where a cause chain is useful.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a member of the unified taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindHasTip
	KindNoTip
	KindTooLittleLiquid
	KindTooLittleVolume
	KindPositionNotReachable
	KindChannelized
	KindProtocolError
	KindFirmwareError
	KindTimeout
	KindInvalidArgument
	KindUnsupported
	KindNotReady
	KindDeviceConnectionFailed
)

func (k Kind) String() string {
	switch k {
	case KindHasTip:
		return "HasTip"
	case KindNoTip:
		return "NoTip"
	case KindTooLittleLiquid:
		return "TooLittleLiquid"
	case KindTooLittleVolume:
		return "TooLittleVolume"
	case KindPositionNotReachable:
		return "PositionNotReachable"
	case KindChannelized:
		return "Channelized"
	case KindProtocolError:
		return "ProtocolError"
	case KindFirmwareError:
		return "FirmwareError"
	case KindTimeout:
		return "Timeout"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindUnsupported:
		return "Unsupported"
	case KindNotReady:
		return "NotReady"
	case KindDeviceConnectionFailed:
		return "DeviceConnectionFailed"
	default:
		return "Unknown"
	}
}

// Error is the concrete type every taxonomy member is represented as.
type Error struct {
	Kind    Kind
	Message string
	// RawModule/RawTrace/RawResponse carry driver-specific context for
	// FirmwareError / untranslated passthrough cases.
	RawModule   string
	Trace       int
	RawResponse string
	// Channels holds per-channel sub-errors when Kind == KindChannelized,
	// 0-indexed, nil entry meaning "no error on this channel".
	Channels []*Error
	cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind == KindChannelized {
		return fmt.Sprintf("channelized error: %s", e.channelString())
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.RawModule != "" {
		return fmt.Sprintf("%s: %s (module=%s trace=%d)", e.Kind, msg, e.RawModule, e.Trace)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) channelString() string {
	out := ""
	for i, ce := range e.Channels {
		if ce == nil {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%d: %s", i, ce.Error())
	}
	return out
}

// Cause implements the github.com/pkg/errors Causer interface.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match on Kind without requiring identical messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error of the given kind wrapping cause (cause may be nil).
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Wrap attaches a stack-aware cause via github.com/pkg/errors.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause != nil {
		cause = errors.Wrap(cause, message)
	}
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Sentinel returns a bare sentinel for errors.Is comparisons, e.g.
// errors.Is(err, errs.Sentinel(errs.KindNoTip)).
func Sentinel(kind Kind) *Error { return &Error{Kind: kind} }

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// InvalidArgument is a convenience constructor for orchestrator-level
// bounds-violation errors.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Unsupported is a convenience constructor for "driver does not implement
// this operation" errors.
func Unsupported(format string, args ...any) *Error {
	return &Error{Kind: KindUnsupported, Message: fmt.Sprintf(format, args...)}
}

// NotReady is a convenience constructor for "setup not called" errors.
func NotReady(format string, args ...any) *Error {
	return &Error{Kind: KindNotReady, Message: fmt.Sprintf(format, args...)}
}

// Timeout is a convenience constructor for transport-level timeouts.
func Timeout(format string, args ...any) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

// Channelized builds a per-channel error from a sparse map of channel index
// to sub-error.
func Channelized(channels map[int]*Error) *Error {
	if len(channels) == 0 {
		return nil
	}
	max := 0
	for idx := range channels {
		if idx > max {
			max = idx
		}
	}
	slice := make([]*Error, max+1)
	for idx, e := range channels {
		slice[idx] = e
	}
	return &Error{Kind: KindChannelized, Channels: slice}
}

// Retryable reports whether err is a transient failure the codec may
// retry (up to 2 times) before surfacing to the caller:
// DeviceConnectionFailed (Prep GenericBusy or STAR module code 3).
func Retryable(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	return e.Kind == KindDeviceConnectionFailed
}

// MaxRetries is the retry budget for Retryable errors.
const MaxRetries = 2
