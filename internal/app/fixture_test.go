package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"practice_reminder_service/internal/domain/directory"
	"practice_reminder_service/internal/domain/schedule"
	"practice_reminder_service/internal/domain/subscription"
	"practice_reminder_service/internal/domain/task"
	"practice_reminder_service/internal/domain/worktype"
)

const (
	testFirmID     = int64(1)
	testClientID   = int64(10)
	testEmployeeID = int64(20)
	testWorkTypeID = int64(100)
)

type fixture struct {
	subs          *fakeSubscriptionRepo
	workTypes     *fakeWorkTypeRepo
	tasks         *fakeTaskRepo
	reminders     *fakeReminderRepo
	directory     *fakeDirectoryRepo
	notifications *fakeNotifyRepo
	sender        *fakeSender
	bus           *Bus
	events        *eventCollector

	reminderSvc *ReminderService
	taskSvc     *TaskService
	overdueSvc  *OverdueService
	dispatchSvc *DispatchService
}

// newFixture wires every service against in-memory repositories, seeded with
// one firm, one client with an email address, and one employee.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		subs:          newFakeSubscriptionRepo(),
		workTypes:     newFakeWorkTypeRepo(),
		tasks:         newFakeTaskRepo(),
		reminders:     newFakeReminderRepo(),
		directory:     newFakeDirectoryRepo(),
		notifications: newFakeNotifyRepo(),
		sender:        &fakeSender{},
		bus:           NewBus(),
		events:        &eventCollector{},
	}
	f.bus.Subscribe(f.events.handler())

	f.directory.firms[testFirmID] = &directory.Firm{ID: testFirmID, Name: "Sharma & Co"}
	f.directory.clients[testClientID] = &directory.Client{
		ID: testClientID, FirmID: testFirmID, Name: "Acme Traders",
		Email:  sql.NullString{String: "acme@example.com", Valid: true},
		PAN:    sql.NullString{String: "ABCDE1234F", Valid: true},
		Active: true,
	}
	f.directory.employees[testEmployeeID] = &directory.Employee{
		ID: testEmployeeID, FirmID: testFirmID, Name: "Priya",
		Email:  sql.NullString{String: "priya@example.com", Valid: true},
		Active: true,
	}

	log := testLogger()
	f.reminderSvc = NewReminderService(f.subs, f.workTypes, f.reminders, f.directory, log, 9)
	f.taskSvc = NewTaskService(f.subs, f.tasks, f.workTypes, f.reminderSvc, f.bus, log, 3)
	f.overdueSvc = NewOverdueService(f.tasks, f.bus, log)
	f.dispatchSvc = NewDispatchService(f.reminders, f.tasks, f.subs, f.workTypes, f.directory, f.notifications, f.sender, log)
	return f
}

// monthlyWorkType is the fixture default: monthly filing due on the 20th,
// daily reminders to both classes.
func (f *fixture) monthlyWorkType() *worktype.WorkType {
	wt := &worktype.WorkType{
		ID:            testWorkTypeID,
		FirmID:        testFirmID,
		Name:          "GST Filing",
		StatutoryForm: sql.NullString{String: "GSTR-3B", Valid: true},
		Frequency:     schedule.FrequencyMonthly,
		DueDayOfMonth: 20,

		EnableClientReminders:   true,
		ClientReminderFrequency: schedule.ReminderDaily,
		ClientReminderLeadDays:  7,

		EnableEmployeeReminders:   true,
		EmployeeReminderFrequency: schedule.ReminderDaily,
		EmployeeReminderLeadDays:  3,
		EmployeeChannel:           worktype.ChannelEmail,
	}
	f.workTypes.workTypes[wt.ID] = wt
	return wt
}

func (f *fixture) addSubscription(t *testing.T, workTypeID int64, startFrom time.Time) *subscription.Subscription {
	t.Helper()
	sub := &subscription.Subscription{
		FirmID:     testFirmID,
		ClientID:   testClientID,
		WorkTypeID: workTypeID,
		StartFrom:  startFrom,
		Active:     true,
	}
	if err := f.subs.Create(context.Background(), sub); err != nil {
		t.Fatal(err)
	}
	return sub
}

// addInstance persists an instance directly, bypassing period math.
func (f *fixture) addInstance(t *testing.T, sub *subscription.Subscription, label string, start, due time.Time, status task.Status) *task.Instance {
	t.Helper()
	inst := &task.Instance{
		FirmID:         testFirmID,
		SubscriptionID: sub.ID,
		PeriodLabel:    label,
		PeriodStart:    start,
		PeriodEnd:      due.AddDate(0, 0, -1),
		DueDate:        due,
		Status:         status,
		AssignedTo:     sql.NullInt64{Int64: testEmployeeID, Valid: true},
	}
	if err := f.tasks.Create(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	return inst
}
