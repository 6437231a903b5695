package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lokapasar/internal/domain/entity"
)

func TestChannelForDerivesNameFromConversationID(t *testing.T) {
	assert.Equal(t, "messages-c1", ChannelFor("c1"))
	assert.Equal(t, "messages-9f2b", ChannelFor("9f2b"))
}

func TestEventRoundTrip(t *testing.T) {
	event := &Event{
		Name: EventNewMessage,
		Message: &entity.Message{
			ID:             "m1",
			ConversationID: "c1",
			SenderID:       "u1",
			RecipientID:    "u2",
			Content:        "hello",
		},
	}

	payload, err := encodeEvent(event)
	assert.NoError(t, err)

	decoded, err := decodeEvent(payload)
	assert.NoError(t, err)
	assert.Equal(t, EventNewMessage, decoded.Name)
	assert.Equal(t, "m1", decoded.Message.ID)
	assert.Equal(t, "u2", decoded.Message.RecipientID)
}

func TestDecodeEventRejectsMalformedPayload(t *testing.T) {
	for _, payload := range []string{"", "not json", `{"event":`} {
		event, err := decodeEvent([]byte(payload))
		assert.Error(t, err)
		assert.Nil(t, event)
	}
}
