// Package errors defines the closed error taxonomy shared by every
// transaction family. Each failure carries a stable 16-bit code whose high
// byte is the category; independent implementations must agree on the code
// chosen for every rejection.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Category is the high byte of an error code.
type Category uint8

const (
	CategoryValidation    Category = 0x01
	CategoryAuthorization Category = 0x02
	CategoryResource      Category = 0x03
	CategoryState         Category = 0x04
	CategoryContract      Category = 0x05
	CategoryNetwork       Category = 0x06
	CategoryInternal      Category = 0xFF
)

// Code identifies a single rejection reason.
type Code uint16

const (
	CodeInvalidFormat    Code = 0x0100
	CodeInvalidVersion   Code = 0x0101
	CodeInvalidType      Code = 0x0102
	CodeInvalidSignature Code = 0x0103
	CodeInvalidTimestamp Code = 0x0104
	CodeInvalidAmount    Code = 0x0105
	CodeInvalidAddress   Code = 0x0106
	CodeInvalidPayload   Code = 0x0107
	CodeNonceTooLow      Code = 0x0110
	CodeNonceTooHigh     Code = 0x0111
	CodeNonceDuplicate   Code = 0x0112

	CodeUnauthorized      Code = 0x0200
	CodeKYCRequired       Code = 0x0201
	CodeKYCLevelTooLow    Code = 0x0202
	CodeNotOwner          Code = 0x0203
	CodeNotCommittee      Code = 0x0204
	CodeNotArbitrator     Code = 0x0205
	CodeMultisigThreshold Code = 0x0206

	CodeInsufficientBalance Code = 0x0300
	CodeInsufficientFee     Code = 0x0301
	CodeInsufficientEnergy  Code = 0x0302
	CodeInsufficientFrozen  Code = 0x0303
	CodeOverflow            Code = 0x0304
	CodeUnderflow           Code = 0x0305

	CodeAccountNotFound    Code = 0x0400
	CodeAccountExists      Code = 0x0401
	CodeEscrowNotFound     Code = 0x0402
	CodeEscrowWrongState   Code = 0x0403
	CodeDomainNotFound     Code = 0x0404
	CodeDomainExists       Code = 0x0405
	CodeDomainExpired      Code = 0x0406
	CodeDelegationNotFound Code = 0x0407
	CodeDelegationExists   Code = 0x0408
	CodeSelfOperation      Code = 0x0409

	CodeContractNotFound Code = 0x0500
	CodeContractRevert   Code = 0x0501
	CodeOutOfCU          Code = 0x0502
	CodeInvalidOpcode    Code = 0x0503
	CodeStackOverflow    Code = 0x0504
	CodeStackUnderflow   Code = 0x0505
	CodeMemoryLimit      Code = 0x0506

	CodeBlockNotFound      Code = 0x0600
	CodeInvalidReachable   Code = 0x060A
	CodeInvalidBlockHeight Code = 0x060E

	CodeInternal       Code = 0xFF00
	CodeNotImplemented Code = 0xFF01
	CodeUnknown        Code = 0xFFFF
)

// Category returns the high byte of the code.
func (c Code) Category() Category { return Category(c >> 8) }

func (c Code) String() string { return fmt.Sprintf("0x%04X", uint16(c)) }

// Error is a coded engine failure.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("engine error %s", e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is reports code equality so coded errors compare with errors.Is against a
// bare-code sentinel.
func (e *Error) Is(target error) bool {
	var other *Error
	if stderrors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// New returns a coded error with a fixed message.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Errorf returns a coded error with a formatted message.
func Errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from err, unwrapping as needed. Uncoded errors
// map to CodeInternal and a nil error to zero.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
