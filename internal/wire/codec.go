package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Channel names used by the venue.
const (
	ChannelAccount = "account"
	ChannelOrders  = "orders"
	ChannelTicker  = "ticker"
)

// Inbound event names.
const (
	EventLogin     = "login"
	EventSubscribe = "subscribe"
	EventError     = "error"
)

// Actions on data frames.
const (
	ActionSnapshot = "snapshot"
	ActionUpdate   = "update"
)

// Code is a venue response code that arrives as either a JSON number or a
// JSON string depending on the payload.
type Code struct {
	raw string
	set bool
}

// UnmarshalJSON accepts both `0` and `"0"`.
func (c *Code) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.raw = s
		c.set = true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("code is neither string nor number: %s", data)
	}
	c.raw = n.String()
	c.set = true
	return nil
}

// OK reports whether the code signals success (0, as number or string).
func (c Code) OK() bool { return c.set && c.raw == "0" }

// String returns the raw code value.
func (c Code) String() string { return c.raw }

// Arg identifies the channel a frame belongs to.
type Arg struct {
	Channel  string `json:"channel,omitempty"`
	InstType string `json:"instType,omitempty"`
	InstID   string `json:"instId,omitempty"`
	Coin     string `json:"coin,omitempty"`
}

// Frame is the decoded venue envelope. Control frames carry Event/Code/Msg;
// data frames carry Arg/Action/Data.
type Frame struct {
	Event  string          `json:"event,omitempty"`
	Code   Code            `json:"code,omitempty"`
	Msg    string          `json:"msg,omitempty"`
	Arg    Arg             `json:"arg,omitempty"`
	Action string          `json:"action,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// IsControl reports whether the frame is a control message (login,
// subscribe confirmation, error) rather than channel data.
func (f Frame) IsControl() bool { return f.Event != "" }

// IsKeepalive reports whether raw is the venue's bare "ping"/"pong" text
// keepalive, which must never reach the JSON decoder.
func IsKeepalive(raw []byte) bool {
	s := bytes.TrimSpace(raw)
	return bytes.Equal(s, []byte("ping")) || bytes.Equal(s, []byte("pong"))
}

// Decode parses one JSON envelope. Keepalive frames are rejected with an
// error so callers cannot silently misclassify them.
func Decode(raw []byte) (Frame, error) {
	if IsKeepalive(raw) {
		return Frame{}, fmt.Errorf("keepalive frame is not a JSON envelope")
	}
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// DataElements splits the frame's data array into raw elements.
func (f Frame) DataElements() ([]json.RawMessage, error) {
	if len(f.Data) == 0 {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(f.Data, &elems); err != nil {
		return nil, fmt.Errorf("decode data array: %w", err)
	}
	return elems, nil
}
