package broadcast

import (
	"encoding/json"

	"lokapasar/internal/domain/entity"
)

// EventNewMessage is the only event name the relay publishes.
const EventNewMessage = "new-message"

const (
	channelPrefix = "messages-"
	globalPattern = channelPrefix + "*"
)

// ChannelFor derives the broadcast channel name for a conversation. Every
// subscriber interested in that conversation rendezvouses on this name; there
// is no discovery step.
func ChannelFor(conversationID string) string {
	return channelPrefix + conversationID
}

// Event is the ephemeral wire envelope carried on a broadcast channel. It is
// never persisted.
type Event struct {
	Name    string          `json:"event"`
	Message *entity.Message `json:"payload"`
}

func encodeEvent(event *Event) ([]byte, error) {
	return json.Marshal(event)
}

func decodeEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
