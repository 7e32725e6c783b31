package link

import "fmt"

// RequestError is the tagged, user-visible application-level refusal a
// handler may raise (permission denial, not-found, bad arguments). It is
// always sent back to the caller as {seq, error: message}. Any other error
// returned from a handler is treated as an Unexpected error: logged in
// full, and reported to the caller as a generic message — Design Note
// "Error signalling via generic exceptions with a marker class" replaced by
// this explicit tagged type.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// NewRequestError builds a user-visible RequestError.
func NewRequestError(format string, args ...any) *RequestError {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// DisconnectedError is returned to any awaiter whose link's transport
// closed while the request was pending.
type DisconnectedError struct {
	Link string
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("link %s disconnected while request was pending", e.Link)
}

// TimeoutError is returned to an awaiter whose deadline elapsed before a
// response arrived.
type TimeoutError struct {
	MessageType string
	Seq         int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s (seq %d)", e.MessageType, e.Seq)
}

// genericHandlerError is the message sent to the wire for any handler error
// that is not a *RequestError — the caller never sees handler internals.
const genericHandlerError = "internal error"
