// Package errors defines the typed errors used across genkeys.
package errors

import (
	"errors"
	"fmt"
)

// KeyGenReason classifies why key generation failed. Any key-generation
// failure aborts the whole run, since a missing key invalidates the
// signing configuration for every domain that references it.
type KeyGenReason int

const (
	// ReasonSelectorSpaceExhausted means the selector and all 26
	// single-letter suffixed variants already have key files on disk.
	ReasonSelectorSpaceExhausted KeyGenReason = iota
	// ReasonExternalTool means opendkim-genkey could not be run or
	// exited non-zero.
	ReasonExternalTool
	// ReasonRename means the generated private key could not be moved
	// to its target filename.
	ReasonRename
	// ReasonReadKey means the generated public key file could not be read.
	ReasonReadKey
	// ReasonEmptyKeyData means no quoted TXT data was found in the
	// public key file.
	ReasonEmptyKeyData
	// ReasonSyntax means the public key file contained an unterminated
	// quoted segment.
	ReasonSyntax
	// ReasonWriteKey means the reformatted public key file could not be
	// written.
	ReasonWriteKey
)

func (r KeyGenReason) String() string {
	switch r {
	case ReasonSelectorSpaceExhausted:
		return "selector space exhausted"
	case ReasonExternalTool:
		return "external tool failed"
	case ReasonRename:
		return "private key rename failed"
	case ReasonReadKey:
		return "public key unreadable"
	case ReasonEmptyKeyData:
		return "no DNS record value found"
	case ReasonSyntax:
		return "syntax error in record data"
	case ReasonWriteKey:
		return "public key write failed"
	default:
		return "unknown"
	}
}

// KeyGenError reports a failed key generation for one key name.
type KeyGenError struct {
	KeyName  string
	Selector string
	Reason   KeyGenReason
	Err      error
}

func (e *KeyGenError) Error() string {
	msg := fmt.Sprintf("generating key %s (selector %s): %s", e.KeyName, e.Selector, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *KeyGenError) Unwrap() error { return e.Err }

// KeyGenReasonIs reports whether err is a KeyGenError with the given reason.
func KeyGenReasonIs(err error, reason KeyGenReason) bool {
	var kge *KeyGenError
	return errors.As(err, &kge) && kge.Reason == reason
}

// ConfigError reports a problem with one of the data or settings files.
type ConfigError struct {
	File    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.File, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CommandError reports a failed external command invocation.
type CommandError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }
