package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"practice_reminder_service/internal/domain/directory"
	"practice_reminder_service/internal/domain/notify"
	"practice_reminder_service/internal/domain/reminder"
	"practice_reminder_service/internal/domain/subscription"
	"practice_reminder_service/internal/domain/task"
	"practice_reminder_service/internal/domain/worktype"
	idb "practice_reminder_service/internal/infra/database"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ---- subscriptions ----

type fakeSubscriptionRepo struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*subscription.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[int64]*subscription.Subscription)}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub.ID = r.nextID
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(ctx context.Context, firmID, id int64) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok || sub.FirmID != firmID {
		return nil, idb.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *fakeSubscriptionRepo) ListActive(ctx context.Context) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.Subscription
	for i := int64(1); i <= r.nextID; i++ {
		if sub, ok := r.subs[i]; ok && sub.Active {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListActiveByFirm(ctx context.Context, firmID int64) ([]*subscription.Subscription, error) {
	all, _ := r.ListActive(ctx)
	var out []*subscription.Subscription
	for _, sub := range all {
		if sub.FirmID == firmID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Deactivate(ctx context.Context, firmID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok || sub.FirmID != firmID {
		return idb.ErrSubscriptionNotFound
	}
	sub.Active = false
	return nil
}

// ---- work types ----

type fakeWorkTypeRepo struct {
	workTypes map[int64]*worktype.WorkType
	rules     map[int64][]*worktype.ReminderRule
}

func newFakeWorkTypeRepo() *fakeWorkTypeRepo {
	return &fakeWorkTypeRepo{
		workTypes: make(map[int64]*worktype.WorkType),
		rules:     make(map[int64][]*worktype.ReminderRule),
	}
}

func (r *fakeWorkTypeRepo) GetByID(ctx context.Context, firmID, id int64) (*worktype.WorkType, error) {
	wt, ok := r.workTypes[id]
	if !ok || wt.FirmID != firmID {
		return nil, idb.ErrWorkTypeNotFound
	}
	cp := *wt
	return &cp, nil
}

func (r *fakeWorkTypeRepo) ListActiveRules(ctx context.Context, firmID, workTypeID int64) ([]*worktype.ReminderRule, error) {
	var out []*worktype.ReminderRule
	for _, rule := range r.rules[workTypeID] {
		if rule.FirmID == firmID && rule.Active {
			cp := *rule
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- task instances ----

type fakeTaskRepo struct {
	mu        sync.Mutex
	nextID    int64
	instances map[int64]*task.Instance
	// subscription IDs whose work type is auto-driven with auto-start;
	// drives ListAutoStartCandidates.
	autoStartSubs map[int64]bool
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		instances:     make(map[int64]*task.Instance),
		autoStartSubs: make(map[int64]bool),
	}
}

func (r *fakeTaskRepo) Create(ctx context.Context, inst *task.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	inst.ID = r.nextID
	inst.CreatedAt = time.Now().UTC()
	inst.UpdatedAt = inst.CreatedAt
	cp := *inst
	r.instances[inst.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, firmID, id int64) (*task.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok || inst.FirmID != firmID {
		return nil, idb.ErrInstanceNotFound
	}
	cp := *inst
	return &cp, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, inst *task.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[inst.ID]; !ok {
		return idb.ErrInstanceNotFound
	}
	inst.UpdatedAt = time.Now().UTC()
	cp := *inst
	r.instances[inst.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) LatestForSubscription(ctx context.Context, firmID, subscriptionID int64) (*task.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *task.Instance
	for _, inst := range r.instances {
		if inst.FirmID != firmID || inst.SubscriptionID != subscriptionID {
			continue
		}
		if latest == nil || inst.DueDate.After(latest.DueDate) ||
			(inst.DueDate.Equal(latest.DueDate) && inst.ID > latest.ID) {
			latest = inst
		}
	}
	if latest == nil {
		return nil, idb.ErrInstanceNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeTaskRepo) ListOpenPastDue(ctx context.Context, before time.Time) ([]*task.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.Instance
	for i := int64(1); i <= r.nextID; i++ {
		inst, ok := r.instances[i]
		if !ok {
			continue
		}
		if inst.Status.Open() && inst.DueDate.Before(before) {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) BulkMarkOverdue(ctx context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, id := range ids {
		inst, ok := r.instances[id]
		if !ok || !inst.Status.Open() {
			continue
		}
		inst.Status = task.StatusOverdue
		affected++
	}
	return affected, nil
}

func (r *fakeTaskRepo) ListAutoStartCandidates(ctx context.Context, onOrBefore time.Time) ([]*task.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.Instance
	for i := int64(1); i <= r.nextID; i++ {
		inst, ok := r.instances[i]
		if !ok {
			continue
		}
		if inst.Status == task.StatusNotStarted && !inst.PeriodStart.After(onOrBefore) && r.autoStartSubs[inst.SubscriptionID] {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- reminders ----

type fakeReminderRepo struct {
	mu        sync.Mutex
	nextID    int64
	reminders map[int64]*reminder.Instance
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{reminders: make(map[int64]*reminder.Instance)}
}

func (r *fakeReminderRepo) CreateIfAbsent(ctx context.Context, rem *reminder.Instance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reminders {
		if existing.TaskInstanceID == rem.TaskInstanceID &&
			existing.Recipient == rem.Recipient &&
			existing.ScheduledOn.Equal(rem.ScheduledOn) &&
			(existing.SendStatus == reminder.StatusPending || existing.SendStatus == reminder.StatusSent) {
			return false, nil
		}
	}
	r.nextID++
	rem.ID = r.nextID
	rem.CreatedAt = time.Now().UTC()
	rem.UpdatedAt = rem.CreatedAt
	cp := *rem
	r.reminders[rem.ID] = &cp
	return true, nil
}

func (r *fakeReminderRepo) GetByID(ctx context.Context, id int64) (*reminder.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rem, ok := r.reminders[id]
	if !ok {
		return nil, idb.ErrReminderNotFound
	}
	cp := *rem
	return &cp, nil
}

func (r *fakeReminderRepo) Update(ctx context.Context, rem *reminder.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reminders[rem.ID]; !ok {
		return idb.ErrReminderNotFound
	}
	rem.UpdatedAt = time.Now().UTC()
	cp := *rem
	r.reminders[rem.ID] = &cp
	return nil
}

func (r *fakeReminderRepo) ListByTask(ctx context.Context, firmID, taskInstanceID int64) ([]*reminder.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reminder.Instance
	for i := int64(1); i <= r.nextID; i++ {
		rem, ok := r.reminders[i]
		if ok && rem.FirmID == firmID && rem.TaskInstanceID == taskInstanceID {
			cp := *rem
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) ListDue(ctx context.Context, now time.Time) ([]*reminder.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reminder.Instance
	for i := int64(1); i <= r.nextID; i++ {
		rem, ok := r.reminders[i]
		if ok && rem.SendStatus == reminder.StatusPending && !rem.ScheduledAt.After(now) {
			cp := *rem
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) transitionPending(taskInstanceID int64, to reminder.SendStatus, after *time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, rem := range r.reminders {
		if rem.TaskInstanceID != taskInstanceID || rem.SendStatus != reminder.StatusPending {
			continue
		}
		if after != nil && !rem.ScheduledAt.After(*after) {
			continue
		}
		rem.SendStatus = to
		affected++
	}
	return affected
}

func (r *fakeReminderRepo) CancelFuturePending(ctx context.Context, taskInstanceID int64, after time.Time) (int64, error) {
	return r.transitionPending(taskInstanceID, reminder.StatusCancelled, &after), nil
}

func (r *fakeReminderRepo) SkipPending(ctx context.Context, taskInstanceID int64) (int64, error) {
	return r.transitionPending(taskInstanceID, reminder.StatusSkipped, nil), nil
}

func (r *fakeReminderRepo) byStatus(status reminder.SendStatus) []*reminder.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reminder.Instance
	for i := int64(1); i <= r.nextID; i++ {
		rem, ok := r.reminders[i]
		if ok && rem.SendStatus == status {
			cp := *rem
			out = append(out, &cp)
		}
	}
	return out
}

// ---- directory ----

type fakeDirectoryRepo struct {
	firms     map[int64]*directory.Firm
	clients   map[int64]*directory.Client
	employees map[int64]*directory.Employee
}

func newFakeDirectoryRepo() *fakeDirectoryRepo {
	return &fakeDirectoryRepo{
		firms:     make(map[int64]*directory.Firm),
		clients:   make(map[int64]*directory.Client),
		employees: make(map[int64]*directory.Employee),
	}
}

func (r *fakeDirectoryRepo) GetFirm(ctx context.Context, id int64) (*directory.Firm, error) {
	firm, ok := r.firms[id]
	if !ok {
		return nil, idb.ErrFirmNotFound
	}
	cp := *firm
	return &cp, nil
}

func (r *fakeDirectoryRepo) GetClient(ctx context.Context, firmID, id int64) (*directory.Client, error) {
	client, ok := r.clients[id]
	if !ok || client.FirmID != firmID {
		return nil, idb.ErrClientNotFound
	}
	cp := *client
	return &cp, nil
}

func (r *fakeDirectoryRepo) GetEmployee(ctx context.Context, firmID, id int64) (*directory.Employee, error) {
	emp, ok := r.employees[id]
	if !ok || emp.FirmID != firmID {
		return nil, idb.ErrEmployeeNotFound
	}
	cp := *emp
	return &cp, nil
}

// ---- notifications ----

type fakeNotifyRepo struct {
	mu            sync.Mutex
	nextID        int64
	notifications []*notify.Notification
}

func newFakeNotifyRepo() *fakeNotifyRepo {
	return &fakeNotifyRepo{}
}

func (r *fakeNotifyRepo) CreateIfAbsent(ctx context.Context, n *notify.Notification) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.notifications {
		if existing.UserID == n.UserID && existing.Kind == n.Kind && existing.CreatedOn.Equal(n.CreatedOn) {
			return false, nil
		}
	}
	r.nextID++
	n.ID = r.nextID
	cp := *n
	r.notifications = append(r.notifications, &cp)
	return true, nil
}

// ---- email ----

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *fakeSender) Send(to, subject, body, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

var errSMTPDown = fmt.Errorf("smtp: connection refused")

// eventCollector records published events for assertions.
type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func (c *eventCollector) handler() EventHandler {
	return func(e Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, e)
	}
}

func (c *eventCollector) ofType(t EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
