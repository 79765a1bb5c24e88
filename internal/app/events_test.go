package app

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"practice_reminder_service/internal/domain/notify"
	"practice_reminder_service/internal/domain/task"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe(func(e Event) { order = append(order, "first") })
	bus.Subscribe(func(e Event) { order = append(order, "second") })

	bus.Publish(Event{Type: EventInstanceCreated})
	require.Equal(t, []string{"first", "second"}, order)
}

func TestAssigneeOverdueNotifier(t *testing.T) {
	notifications := newFakeNotifyRepo()
	bus := NewBus()
	bus.Subscribe(NewAssigneeOverdueNotifier(notifications, testLogger()))

	inst := &task.Instance{
		ID:          1,
		FirmID:      testFirmID,
		PeriodLabel: "Mar 2025",
		DueDate:     day(2025, time.April, 20),
		AssignedTo:  sql.NullInt64{Int64: testEmployeeID, Valid: true},
	}
	at := day(2025, time.May, 1)

	// Non-overdue events are ignored.
	bus.Publish(Event{Type: EventInstanceStarted, FirmID: testFirmID, Instance: inst, At: at})
	require.Empty(t, notifications.notifications)

	bus.Publish(Event{Type: EventInstanceOverdue, FirmID: testFirmID, Instance: inst, At: at})
	require.Len(t, notifications.notifications, 1)
	n := notifications.notifications[0]
	require.Equal(t, testEmployeeID, n.UserID)
	require.Equal(t, notify.KindTaskOverdue, n.Kind)
	require.Equal(t, notify.PriorityHigh, n.Priority)
	require.Contains(t, n.Title, "Mar 2025")

	// Same instance, same day: deduplicated.
	bus.Publish(Event{Type: EventInstanceOverdue, FirmID: testFirmID, Instance: inst, At: at})
	require.Len(t, notifications.notifications, 1)
}

func TestAssigneeOverdueNotifierIgnoresUnassigned(t *testing.T) {
	notifications := newFakeNotifyRepo()
	handler := NewAssigneeOverdueNotifier(notifications, testLogger())

	handler(Event{
		Type:     EventInstanceOverdue,
		FirmID:   testFirmID,
		Instance: &task.Instance{ID: 2, FirmID: testFirmID, PeriodLabel: "Apr 2025"},
		At:       day(2025, time.May, 1),
	})
	require.Empty(t, notifications.notifications)
}
