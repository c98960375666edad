package queue

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrPermanent sends a message to the dead-letter list without retrying.
var ErrPermanent = errors.New("permanent job failure")

// Job handles one message type of the queue.
type Job interface {
	// Name is used in logs.
	Name() string

	// Type is the message type the job consumes.
	Type() string

	// Handle processes one payload.
	Handle(ctx context.Context, payload json.RawMessage) error
}
