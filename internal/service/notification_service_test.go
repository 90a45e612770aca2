package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/pkg/notification"
)

func TestSendWithoutTokensSkipsDispatch(t *testing.T) {
	f := newFixture(t, kickoff)

	empty := ""
	require.NoError(t, f.users.Create(context.Background(), &model.User{FCMToken: &empty}))
	require.NoError(t, f.users.Create(context.Background(), &model.User{}))

	_, err := f.notifier.Send(context.Background(), notification.Message{Title: "hi", Body: "there"})
	require.ErrorIs(t, err, notification.ErrNoRecipients)
	assert.Zero(t, f.dispatcher.count())
	assert.Zero(t, f.logCount(t))
}

func TestSendWritesOneLogRow(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 3)

	res, err := f.notifier.Send(context.Background(), notification.Message{
		Title: "Kick-off",
		Body:  "Arsenal VS Chelsea",
		Data:  map[string]string{"type": model.NotificationTypeLive, "matchId": "m-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Success)
	require.Len(t, f.dispatcher.tokens, 1)
	assert.ElementsMatch(t, []string{"token-0", "token-1", "token-2"}, f.dispatcher.tokens[0])

	logs, err := f.notifs.RecentLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.NotificationStatusSent, logs[0].Status)
	assert.Equal(t, 3, logs[0].RecipientsCount)
	assert.Equal(t, model.NotificationTypeLive, logs[0].NotificationType)
	assert.Equal(t, "m-1", logs[0].Data["matchId"])
	assert.Equal(t, []string{model.WSEventNotificationSent}, f.events.events)
}

func TestSendFailureIsLoggedAsZeroDelivered(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 4)
	f.dispatcher.setErr(errors.New("status 502"))

	res, err := f.notifier.Send(context.Background(), notification.Message{Title: "x", Body: "y"})
	require.Error(t, err)
	assert.Equal(t, notification.Result{Success: 0, Failure: 4}, res)

	logs, err := f.notifs.RecentLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.NotificationStatusFailed, logs[0].Status)
	assert.Equal(t, 0, logs[0].RecipientsCount)
	assert.Equal(t, 4, logs[0].FailureCount)
	assert.Equal(t, model.NotificationTypeGeneral, logs[0].NotificationType)
	assert.Equal(t, []string{model.WSEventNotificationFailed}, f.events.events)
}

func TestSendCustomReportsOutcome(t *testing.T) {
	f := newFixture(t, kickoff)

	report := f.notifier.SendCustom(context.Background(), "Promo", "Free weekend")
	assert.False(t, report.Success)
	assert.NotEmpty(t, report.Error)

	f.seedDevices(t, 2)
	report = f.notifier.SendCustom(context.Background(), "Promo", "Free weekend")
	assert.True(t, report.Success)
	assert.Equal(t, 2, report.RecipientsCount)

	f.dispatcher.setErr(errors.New("boom"))
	report = f.notifier.SendTest(context.Background())
	assert.False(t, report.Success)
	assert.Equal(t, 2, report.FailureCount)
	assert.Contains(t, report.Error, "boom")

	assert.Equal(t, []string{model.NotificationTypeCustom, model.NotificationTypeTest}, f.dispatcher.types())
}

func TestStats(t *testing.T) {
	f := newFixture(t, kickoff)
	f.seedDevices(t, 2)

	for i := 0; i < 12; i++ {
		_, err := f.notifier.Send(context.Background(), notification.Message{Title: "n", Body: "b"})
		require.NoError(t, err)
	}

	stats, err := f.notifier.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Len(t, stats.RecentNotifications, 10)

	logs, total, err := f.notifier.ListLogs(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Len(t, logs, 2)
}
