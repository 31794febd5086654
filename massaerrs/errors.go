// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package massaerrs defines the typed error kinds shared by the codec, the
// handshake driver and the peer reactor, following the teacher's own
// pattern of named, comparable sentinel errors (see common/error.go).
package massaerrs

import "fmt"

// Kind classifies an error into one of the categories from the error
// handling design: codec bounds, trailing bytes, handshake protocol
// violations, transport failures, channel closure, or a dropped send under
// backpressure.
type Kind int

const (
	KindCodecBounds Kind = iota
	KindCodecTrailing
	KindHandshakeProtocol
	KindTransport
	KindChannelClosed
	KindBackpressureDrop
)

func (k Kind) String() string {
	switch k {
	case KindCodecBounds:
		return "codec bounds exceeded"
	case KindCodecTrailing:
		return "trailing bytes after decode"
	case KindHandshakeProtocol:
		return "handshake protocol error"
	case KindTransport:
		return "transport error"
	case KindChannelClosed:
		return "channel closed"
	case KindBackpressureDrop:
		return "message dropped under backpressure"
	default:
		return "unknown error"
	}
}

// Error wraps an underlying cause with one of the Kind categories above, so
// callers can branch on errors.As without string matching.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, massaerrs.KindX) work by comparing Kind values
// when the target is itself a *Error with a zero Cause — used by tests that
// only care about the category, e.g. errors.Is(err, CodecBounds("")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// CodecBounds reports a length prefix that exceeded its configured maximum.
func CodecBounds(format string, args ...interface{}) *Error {
	return newf(KindCodecBounds, nil, format, args...)
}

// CodecTrailing reports unconsumed bytes after a full parse.
func CodecTrailing(format string, args ...interface{}) *Error {
	return newf(KindCodecTrailing, nil, format, args...)
}

// HandshakeProtocol reports a malformed frame, unknown tag, incompatible
// version, failed signature verification, or short read during a handshake.
func HandshakeProtocol(cause error, format string, args ...interface{}) *Error {
	return newf(KindHandshakeProtocol, cause, format, args...)
}

// Transport reports a send/receive failure on a connection endpoint.
func Transport(cause error, format string, args ...interface{}) *Error {
	return newf(KindTransport, cause, format, args...)
}

// ChannelClosed reports an input channel that has been closed.
func ChannelClosed(format string, args ...interface{}) *Error {
	return newf(KindChannelClosed, nil, format, args...)
}

// BackpressureDrop reports a non-blocking send that failed because the
// receiver's buffer was full.
func BackpressureDrop(format string, args ...interface{}) *Error {
	return newf(KindBackpressureDrop, nil, format, args...)
}
