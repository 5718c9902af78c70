package domain

import (
	"fmt"
	"time"
)

const (
	MessageTypeAuth    = "auth"
	MessageTypeControl = "watchPartyControl"
)

// ControlMessage is a playback command sent by an authenticated viewer.
// Time is the playback position in seconds, nil when the action has none.
type ControlMessage struct {
	Action string   `json:"action"`
	Time   *float64 `json:"time,omitempty"`
}

// AuthMessage is the in-band handshake carrying a bearer token.
type AuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// EnrichedControlMessage is what every viewer of a video receives for a control action.
// Time is always serialized, as null when absent.
type EnrichedControlMessage struct {
	Type     string   `json:"type"`
	Action   string   `json:"action"`
	Time     *float64 `json:"time"`
	UserID   int64    `json:"user_id"`
	VideoID  int64    `json:"video_id"`
	SourceID string   `json:"source_id"`
}

// NewEnrichedControlMessage tags a control message with its originator.
func NewEnrichedControlMessage(msg ControlMessage, userID, videoID int64, at time.Time) EnrichedControlMessage {
	return EnrichedControlMessage{
		Type:     MessageTypeControl,
		Action:   msg.Action,
		Time:     msg.Time,
		UserID:   userID,
		VideoID:  videoID,
		SourceID: NewSourceID(userID, at),
	}
}

// NewSourceID builds the origin tag "user_<uid>_time_<unix millis>".
func NewSourceID(userID int64, at time.Time) string {
	return fmt.Sprintf("user_%d_time_%d", userID, at.UnixMilli())
}
