package protocol

import "errors"

// ErrProtocol wraps a malformed command: unknown command type, wrong arity,
// or an unparseable numeric argument.
var ErrProtocol = errors.New("protocol error")
