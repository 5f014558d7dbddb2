package notification

import "context"

// Publisher hands events to the delivery side. Transport is not our concern.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}
