// Package pclerror defines the fixed negative-integer error namespace the
// library's public operations return, and the typed error values backend
// packages translate their own failures into at their boundary.
package pclerror

import "fmt"

// Code is one of the library's fixed negative error codes. Positive return
// values from public operations are byte counts or handles, never Codes.
type Code int

const (
	CodeLockedFS           Code = -1
	CodeMaxHandle          Code = -2
	CodeNoPrctTable        Code = -3
	CodeNoKey              Code = -4
	CodeNoKeyData          Code = -5
	CodeBufLimit           Code = -6
	CodeNotInitialized     Code = -7
	CodeNotifyNotAllowed   Code = -8
	CodeNotifySig          Code = -9
	CodeResourceReadOnly   Code = -10
	CodeShutdownNoPermit   Code = -11
	CodeShutdownMaxCancel  Code = -12
	CodeNoPluginFunction   Code = -13
	CodeDBKeySize          Code = -14
	CodeDBValueSize        Code = -15
	CodeDBErrorInternal    Code = -16
	CodeCommon             Code = -17
	CodeShutdownNoTrusted  Code = -18
)

var names = map[Code]string{
	CodeLockedFS:          "locked-fs",
	CodeMaxHandle:         "max-handle",
	CodeNoPrctTable:       "no-prct-table",
	CodeNoKey:             "no-key",
	CodeNoKeyData:         "no-key-data",
	CodeBufLimit:          "buflimit",
	CodeNotInitialized:    "not-initialized",
	CodeNotifyNotAllowed:  "notify-not-allowed",
	CodeNotifySig:         "notify-sig",
	CodeResourceReadOnly:  "resource-read-only",
	CodeShutdownNoPermit:  "shutdown-no-permit",
	CodeShutdownMaxCancel: "shutdown-max-cancel",
	CodeNoPluginFunction:  "no-plugin-function",
	CodeDBKeySize:         "db-key-size",
	CodeDBValueSize:       "db-value-size",
	CodeDBErrorInternal:   "db-error-internal",
	CodeCommon:            "common",
	CodeShutdownNoTrusted: "shutdown-no-trusted",
}

// PCLError is the error type every public operation returns on failure.
type PCLError struct {
	code  Code
	cause error
}

// New builds a PCLError for code with no wrapped cause.
func New(code Code) *PCLError {
	return &PCLError{code: code}
}

// Wrap builds a PCLError for code that records cause. The cause's text is
// appended to Error() and the cause itself is reachable through Unwrap;
// Code() and Is still report only the PCL code.
func Wrap(code Code, cause error) *PCLError {
	return &PCLError{code: code, cause: cause}
}

func (e *PCLError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", names[e.code], e.cause)
	}
	return names[e.code]
}

// Code returns the raw negative integer code, for callers bridging across
// a language boundary or attaching it to a log field.
func (e *PCLError) Code() int { return int(e.code) }

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *PCLError) Unwrap() error { return e.cause }

// Is reports whether target is a PCLError carrying the same code.
func (e *PCLError) Is(target error) bool {
	t, ok := target.(*PCLError)
	if !ok {
		return false
	}
	return t.code == e.code
}
