package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	notificationmock "github.com/riskibarqy/fantasy-contest/internal/mocks/domain/notification"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFanoutPublishesToEverySink(t *testing.T) {
	t.Parallel()

	event := notification.Event{ID: "prize:cmp-1:e-1", UserID: "user-1", Kind: notification.KindPrizeWon}
	first := notificationmock.NewPublisher(t)
	second := notificationmock.NewPublisher(t)
	first.On("Publish", mock.Anything, event).Return(nil).Once()
	second.On("Publish", mock.Anything, event).Return(nil).Once()

	fanout := NewFanout(nil, first, nil, second)
	require.NoError(t, fanout.Publish(context.Background(), event))
}

func TestFanoutReturnsSinkErrors(t *testing.T) {
	t.Parallel()

	event := notification.Event{ID: "settled:cmp-1:user-2", UserID: "user-2", Kind: notification.KindSettlementCompleted}
	healthy := notificationmock.NewPublisher(t)
	broken := notificationmock.NewPublisher(t)
	healthy.On("Publish", mock.Anything, event).Return(nil).Once()
	broken.On("Publish", mock.Anything, event).Return(errors.New("outbox unavailable")).Once()

	err := NewFanout(nil, healthy, broken).Publish(context.Background(), event)
	require.ErrorContains(t, err, "outbox unavailable")
}

func TestFanoutSkipsEmptyBatch(t *testing.T) {
	t.Parallel()

	sink := notificationmock.NewPublisher(t)
	require.NoError(t, NewFanout(nil, sink).Publish(context.Background()))
}
