package listener

import (
	"context"

	"cloud.google.com/go/firestore"

	"lokapasar/internal/domain/entity"
	"lokapasar/pkg/errors"
	"lokapasar/pkg/logger"
)

const messageCollection = "messages"

type FirestoreSource struct {
	client *firestore.Client
}

func NewFirestoreSource(client *firestore.Client) *FirestoreSource {
	return &FirestoreSource{client: client}
}

// Changes attaches a snapshot listener to the messages collection. The first
// snapshot (the pre-existing documents) is consumed synchronously, both to
// confirm the stream is established and to keep the baseline out of the
// change feed.
func (s *FirestoreSource) Changes(ctx context.Context) (<-chan Change, error) {
	snapshots := s.client.Collection(messageCollection).Snapshots(ctx)

	if _, err := snapshots.Next(); err != nil {
		snapshots.Stop()
		return nil, errors.ChannelError("Failed to establish message change stream", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer snapshots.Stop()

		for {
			snapshot, err := snapshots.Next()
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("Message change stream ended: %v", err)
				}
				return
			}

			for _, dc := range snapshot.Changes {
				var message entity.Message
				if err := dc.Doc.DataTo(&message); err != nil {
					logger.Warn("Skipping malformed change document %s: %v", dc.Doc.Ref.ID, err)
					continue
				}

				change := Change{
					Kind:           kindOf(dc.Kind),
					MessageID:      message.ID,
					ConversationID: message.ConversationID,
					SenderID:       message.SenderID,
				}

				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func kindOf(kind firestore.DocumentChangeKind) ChangeKind {
	switch kind {
	case firestore.DocumentAdded:
		return ChangeAdded
	case firestore.DocumentModified:
		return ChangeModified
	default:
		return ChangeRemoved
	}
}
