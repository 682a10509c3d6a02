package exchange

import (
	"bytes"
	"encoding/json"
)

type subscriptionSpec struct {
	Name     FeedType `json:"name"`
	Interval int      `json:"interval,omitempty"`
	Depth    int      `json:"depth,omitempty"`
}

// outboundRequest is every message the client writes. ReqID is always set.
type outboundRequest struct {
	ReqID        int64             `json:"reqid"`
	Event        string            `json:"event"`
	Pair         []string          `json:"pair,omitempty"`
	Subscription *subscriptionSpec `json:"subscription,omitempty"`
	ChannelID    *int64            `json:"channelID,omitempty"`
}

// Reply is an inbound message carrying the reqid of a request we sent.
type Reply struct {
	ReqID        int64
	Event        string
	ChannelID    int64
	Status       string
	ErrorMessage string
	Pair         string
	Subscription FeedType
	Raw          json.RawMessage
}

// HasChannel reports whether the exchange assigned a channel in this reply.
func (r Reply) HasChannel() bool {
	return r.ChannelID != NoChannel
}

type frameKind int

const (
	frameHeartbeat frameKind = iota
	frameReply
	frameEvent
	frameData
)

func (k frameKind) String() string {
	switch k {
	case frameHeartbeat:
		return "heartbeat"
	case frameReply:
		return "reply"
	case frameEvent:
		return "event"
	case frameData:
		return "data"
	default:
		return "unknown"
	}
}

// dataFrame is [channelID, payload..., channelName, pair]. Book updates that
// touch both sides carry two payload objects.
type dataFrame struct {
	ChannelID   int64
	Payloads    []json.RawMessage
	ChannelName string
	Pair        string
}

type inboundFrame struct {
	kind  frameKind
	event string
	reply Reply
	data  dataFrame
}

type envelope struct {
	Event        string            `json:"event"`
	ReqID        *int64            `json:"reqid"`
	ChannelID    *int64            `json:"channelID"`
	Status       string            `json:"status"`
	ErrorMessage string            `json:"errorMessage"`
	Pair         string            `json:"pair"`
	Subscription *subscriptionSpec `json:"subscription"`
}

// decodeFrame classifies a raw text frame. Heartbeats are checked before
// reqid so they can never satisfy a pending request.
func decodeFrame(raw []byte) (inboundFrame, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return inboundFrame{}, &ProtocolError{Reason: "empty frame", Frame: raw}
	}

	switch trimmed[0] {
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return inboundFrame{}, &ProtocolError{Reason: "invalid object frame: " + err.Error(), Frame: raw}
		}
		if env.Event == "heartbeat" {
			return inboundFrame{kind: frameHeartbeat, event: env.Event}, nil
		}
		if env.ReqID != nil {
			reply := Reply{
				ReqID:        *env.ReqID,
				Event:        env.Event,
				ChannelID:    NoChannel,
				Status:       env.Status,
				ErrorMessage: env.ErrorMessage,
				Pair:         env.Pair,
				Raw:          json.RawMessage(trimmed),
			}
			if env.ChannelID != nil {
				reply.ChannelID = *env.ChannelID
			}
			if env.Subscription != nil {
				reply.Subscription = env.Subscription.Name
			}
			return inboundFrame{kind: frameReply, event: env.Event, reply: reply}, nil
		}
		if env.Event == "" {
			return inboundFrame{}, &ProtocolError{Reason: "object frame without event", Frame: raw}
		}
		return inboundFrame{kind: frameEvent, event: env.Event}, nil

	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return inboundFrame{}, &ProtocolError{Reason: "invalid array frame: " + err.Error(), Frame: raw}
		}
		if len(parts) < 2 {
			return inboundFrame{}, &ProtocolError{Reason: "data frame too short", Frame: raw}
		}
		var df dataFrame
		if err := json.Unmarshal(parts[0], &df.ChannelID); err != nil {
			return inboundFrame{}, &ProtocolError{Reason: "data frame without numeric channel id", Frame: raw}
		}
		rest := parts[1:]
		var trailing []string
		for len(rest) > 1 && len(trailing) < 2 && isJSONString(rest[len(rest)-1]) {
			var s string
			_ = json.Unmarshal(rest[len(rest)-1], &s)
			trailing = append(trailing, s)
			rest = rest[:len(rest)-1]
		}
		switch len(trailing) {
		case 2:
			df.Pair, df.ChannelName = trailing[0], trailing[1]
		case 1:
			df.Pair = trailing[0]
		}
		df.Payloads = rest
		return inboundFrame{kind: frameData, data: df}, nil

	default:
		return inboundFrame{}, &ProtocolError{Reason: "frame is neither object nor array", Frame: raw}
	}
}

func isJSONString(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '"'
}
