// Package cwerrors defines structured, programmatically identifiable errors
// for user-facing transport operations.
package cwerrors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cipherwire/cipherwire-go/wire"
)

// Role identifies which side of the connection raised the error.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleRecipient Role = "recipient"
)

// Stage identifies which step of the transport stack failed.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageConnect   Stage = "connect"
	StageHandshake Stage = "handshake"
	StageFrame     Stage = "frame"
	StageMux       Stage = "mux"
	StageClose     Stage = "close"
)

// Code is a stable, programmatic error identifier.
type Code string

const (
	CodeTimeout         Code = "timeout"
	CodeCanceled        Code = "canceled"
	CodeInvalidInput    Code = "invalid_input"
	CodeMissingConn     Code = "missing_conn"
	CodeMissingKey      Code = "missing_key"
	CodeDialFailed      Code = "dial_failed"
	CodeUpgradeFailed   Code = "upgrade_failed"
	CodeTagCheckFailed  Code = "tag_check_failed"
	CodeInvalidAuthData Code = "invalid_auth_data"
	CodeInvalidAckData  Code = "invalid_ack_data"
	CodeKeyAgreement    Code = "key_agreement_failed"
	CodeMessageTooLarge Code = "message_too_large"
	CodeNotEstablished  Code = "not_established"
	CodeTransport       Code = "transport"
	CodeMuxFailed       Code = "mux_failed"
)

// Error is the structured error wrapper. It keeps the underlying cause
// reachable through errors.Is/As.
type Error struct {
	Role  Role
	Stage Stage
	Code  Code
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s (%s): %v", e.Role, e.Stage, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s (%s)", e.Role, e.Stage, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func Wrap(role Role, stage Stage, code Code, err error) error {
	return &Error{Role: role, Stage: stage, Code: code, Err: err}
}

// ClassifyHandshake maps a handshake failure to its stable code.
func ClassifyHandshake(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, wire.ErrTagCheckFailed):
		return CodeTagCheckFailed
	case errors.Is(err, wire.ErrInvalidAuthData):
		return CodeInvalidAuthData
	case errors.Is(err, wire.ErrInvalidAckData):
		return CodeInvalidAckData
	case errors.Is(err, wire.ErrKeyAgreement):
		return CodeKeyAgreement
	case errors.Is(err, wire.ErrMessageTooLarge):
		return CodeMessageTooLarge
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}
	return CodeTransport
}

// ClassifyFrame maps a frame read/write failure to its stable code.
func ClassifyFrame(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, wire.ErrTagCheckFailed):
		return CodeTagCheckFailed
	case errors.Is(err, wire.ErrMessageTooLarge):
		return CodeMessageTooLarge
	case errors.Is(err, wire.ErrHandshakeNotDone):
		return CodeNotEstablished
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}
	return CodeTransport
}
