package wire

import "encoding/json"

// Ops sent to the venue.
const (
	OpLogin       = "login"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// request is the outbound command envelope: {"op":...,"args":[...]}.
type request struct {
	Op   string `json:"op"`
	Args any    `json:"args"`
}

// LoginArg carries the per-login authentication material.
type LoginArg struct {
	APIKey     string `json:"apiKey"`
	Passphrase string `json:"passphrase"`
	Timestamp  string `json:"timestamp"`
	Sign       string `json:"sign"`
}

// SubscribeArg identifies one channel to (un)subscribe.
type SubscribeArg struct {
	Channel  string `json:"channel"`
	InstType string `json:"instType"`
	InstID   string `json:"instId,omitempty"`
	Coin     string `json:"coin,omitempty"`
}

// LoginFrame builds the login command.
func LoginFrame(arg LoginArg) ([]byte, error) {
	return json.Marshal(request{Op: OpLogin, Args: []LoginArg{arg}})
}

// SubscribeFrame builds a subscribe command for one or more channels.
func SubscribeFrame(args []SubscribeArg) ([]byte, error) {
	return json.Marshal(request{Op: OpSubscribe, Args: args})
}

// UnsubscribeFrame builds an unsubscribe command.
func UnsubscribeFrame(args []SubscribeArg) ([]byte, error) {
	return json.Marshal(request{Op: OpUnsubscribe, Args: args})
}
