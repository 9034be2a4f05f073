// Package xrplerr holds the error taxonomy shared by the transaction
// pipeline. Every typed error matches one of the sentinels below through
// errors.Is.
package xrplerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInput is returned for malformed or missing caller input, detected
	// before any node request is made.
	ErrInput = errors.New("invalid input")

	// ErrAddressMismatch is returned when the address derived from a seed
	// differs from the account the caller asserted.
	ErrAddressMismatch = errors.New("address mismatch")

	// ErrNodeUnavailable is returned when a node request itself fails.
	ErrNodeUnavailable = errors.New("node unavailable")

	// ErrExpired is returned when the validated ledger passes a
	// transaction's LastLedgerSequence before it was included.
	ErrExpired = errors.New("transaction window expired")

	// ErrDuplicateSubmission is returned when the node or the idempotency
	// guard reports that the transaction was already submitted.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrOutcomeUnknown is returned when waiting for validation stopped
	// before a final answer. The transaction may still validate.
	ErrOutcomeUnknown = errors.New("transaction outcome unknown")
)

// InputError describes a rejected input field.
type InputError struct {
	Field  string
	Reason string
}

// Input builds an *InputError.
func Input(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInput }

// AddressMismatchError is returned when a seed does not control the account
// named by the caller.
type AddressMismatchError struct {
	Derived   string
	Requested string
}

func (e *AddressMismatchError) Error() string {
	return fmt.Sprintf("seed derives %s, not %s", e.Derived, e.Requested)
}

func (e *AddressMismatchError) Is(target error) bool { return target == ErrAddressMismatch }

// NodeError wraps a failed node request with the transaction context it was
// made for.
type NodeError struct {
	Op      string
	TxType  string
	Account string
	Err     error
}

func (e *NodeError) Error() string {
	switch {
	case e.TxType != "" && e.Account != "":
		return fmt.Sprintf("%s for %s from %s: %v", e.Op, e.TxType, e.Account, e.Err)
	case e.Account != "":
		return fmt.Sprintf("%s for %s: %v", e.Op, e.Account, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *NodeError) Unwrap() error { return e.Err }

func (e *NodeError) Is(target error) bool { return target == ErrNodeUnavailable }

// ExpiredError reports a transaction that was not validated before its
// LastLedgerSequence.
type ExpiredError struct {
	TxType             string
	Account            string
	Hash               string
	LastLedgerSequence uint32
	Attempts           int
}

func (e *ExpiredError) Error() string {
	msg := fmt.Sprintf("%s from %s not validated by ledger %d", e.TxType, e.Account, e.LastLedgerSequence)
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	return msg
}

func (e *ExpiredError) Is(target error) bool { return target == ErrExpired }

// DuplicateError reports a submission that must not be repeated.
type DuplicateError struct {
	TxType  string
	Account string
	// Code is the node's preliminary result, empty when the idempotency
	// guard rejected the call.
	Code string
	// Key is the idempotency key, empty when the node rejected the call.
	Key string
	// Hash of the earlier submission, when known.
	Hash string
}

func (e *DuplicateError) Error() string {
	if e.Key != "" {
		if e.Hash != "" {
			return fmt.Sprintf("idempotency key %q already used by %s", e.Key, e.Hash)
		}
		return fmt.Sprintf("idempotency key %q already in use", e.Key)
	}
	return fmt.Sprintf("%s from %s already submitted: %s", e.TxType, e.Account, e.Code)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateSubmission }

// UnknownOutcomeError is returned when a submitted transaction could not be
// followed to validation.
type UnknownOutcomeError struct {
	Hash string
	Err  error
}

func (e *UnknownOutcomeError) Error() string {
	return fmt.Sprintf("outcome of %s unknown: %v", e.Hash, e.Err)
}

func (e *UnknownOutcomeError) Unwrap() error { return e.Err }

func (e *UnknownOutcomeError) Is(target error) bool { return target == ErrOutcomeUnknown }
