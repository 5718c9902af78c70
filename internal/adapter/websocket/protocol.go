package websocket

import (
	"encoding/json"

	"github.com/pscheid92/watchsync/internal/domain"
)

// Kind classifies an inbound text frame.
type Kind int

const (
	KindOpaque Kind = iota
	KindAuth
	KindControl
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindControl:
		return "control"
	default:
		return "opaque"
	}
}

// Inbound is a decoded text frame. Raw always holds the original bytes.
type Inbound struct {
	Kind    Kind
	Auth    domain.AuthMessage
	Control domain.ControlMessage
	Raw     []byte
}

type authProbe struct {
	Type  string  `json:"type"`
	Token *string `json:"token"`
}

type controlProbe struct {
	Action *string  `json:"action"`
	Time   *float64 `json:"time"`
}

// DecodeInbound tries the auth schema first, then the control schema.
// Anything matching neither is opaque.
func DecodeInbound(data []byte) Inbound {
	in := Inbound{Kind: KindOpaque, Raw: data}

	var auth authProbe
	if err := json.Unmarshal(data, &auth); err == nil && auth.Type == domain.MessageTypeAuth && auth.Token != nil {
		in.Kind = KindAuth
		in.Auth = domain.AuthMessage{Type: auth.Type, Token: *auth.Token}
		return in
	}

	var control controlProbe
	if err := json.Unmarshal(data, &control); err == nil && control.Action != nil {
		in.Kind = KindControl
		in.Control = domain.ControlMessage{Action: *control.Action, Time: control.Time}
		return in
	}

	return in
}
