package subscription

import (
	"database/sql"
	"time"

	"practice_reminder_service/internal/domain/schedule"
	"practice_reminder_service/internal/domain/worktype"
)

// Subscription is a client's standing enrollment in a work type. Deactivated
// subscriptions stay on record because historical task instances reference
// them; they are never hard-deleted.
type Subscription struct {
	ID         int64
	FirmID     int64
	ClientID   int64
	WorkTypeID int64
	// FrequencyOverride, when valid, replaces the work type's default
	// frequency for this client only.
	FrequencyOverride sql.NullString
	// StartFrom anchors the first generated period. Backdating it produces
	// the historically correct first period.
	StartFrom time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveFrequency resolves the single frequency this subscription runs
// on: the override when present, the work type default otherwise.
func (s *Subscription) EffectiveFrequency(wt *worktype.WorkType) schedule.Frequency {
	if s.FrequencyOverride.Valid && s.FrequencyOverride.String != "" {
		return schedule.Frequency(s.FrequencyOverride.String)
	}
	return wt.Frequency
}
