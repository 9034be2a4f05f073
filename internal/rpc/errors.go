package rpc

import (
	"encoding/json"
	"errors"
)

// RpcError is an error response from the node.
type RpcError struct {
	Command     string `json:"-"`
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message,omitempty"`
}

func (e *RpcError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorString
	}
	if e.Command == "" {
		return msg
	}
	return e.Command + ": " + msg
}

// Error strings rippled returns that callers branch on.
const (
	ErrActNotFound = "actNotFound"
	ErrTxnNotFound = "txnNotFound"
	ErrLgrNotFound = "lgrNotFound"
)

func newRpcError(command string, msg *message) *RpcError {
	e := &RpcError{
		Command:     command,
		Code:        msg.ErrorCode,
		ErrorString: msg.Error,
		Message:     msg.ErrorMessage,
	}
	// Some servers nest the error inside result.
	if e.ErrorString == "" && len(msg.Result) > 0 {
		var nested RpcError
		if json.Unmarshal(msg.Result, &nested) == nil {
			e.Code, e.ErrorString, e.Message = nested.Code, nested.ErrorString, nested.Message
		}
	}
	if e.ErrorString == "" {
		e.ErrorString = "unknown"
	}
	return e
}

// IsRpcError reports whether err is a node error response with the given
// error string.
func IsRpcError(err error, errorString string) bool {
	var rpcErr *RpcError
	return errors.As(err, &rpcErr) && rpcErr.ErrorString == errorString
}
