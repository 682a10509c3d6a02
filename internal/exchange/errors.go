package exchange

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrRequestTimeout   = errors.New("request timed out waiting for reply")
	ErrConnectionClosed = errors.New("connection closed while request was pending")
)

// ConnectionError is a transport failure while dialing or writing.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError is a frame or reply that does not have the expected shape.
type ProtocolError struct {
	Reason string
	Frame  []byte
}

func (e *ProtocolError) Error() string {
	return "protocol violation: " + e.Reason
}

// ReplyError is a correlated reply that carried status "error".
type ReplyError struct {
	Reply Reply
}

func (e *ReplyError) Error() string {
	msg := e.Reply.ErrorMessage
	if msg == "" {
		msg = "unspecified error"
	}
	return fmt.Sprintf("request %d (%s) rejected: %s", e.Reply.ReqID, e.Reply.Event, msg)
}

// SubscriptionError reports that the exchange refused a subscribe or
// unsubscribe. It is an expected outcome, e.g. an unknown pair or a
// duplicate subscription.
type SubscriptionError struct {
	Symbol string
	Feed   FeedType
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription %s %s: %v", e.Feed, e.Symbol, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
