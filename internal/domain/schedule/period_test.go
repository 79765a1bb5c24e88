package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyPeriodFromAnchor(t *testing.T) {
	p, err := FrequencyMonthly.PeriodFromAnchor(date(2025, time.March, 15), DueConfig{DayOfMonth: 20})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != "Mar 2025" {
		t.Fatalf("label = %q, want %q", p.Label, "Mar 2025")
	}
	if !p.Start.Equal(date(2025, time.March, 1)) {
		t.Fatalf("start = %v", p.Start)
	}
	if !p.End.Equal(date(2025, time.March, 31)) {
		t.Fatalf("end = %v", p.End)
	}
	if !p.DueDate.Equal(date(2025, time.April, 20)) {
		t.Fatalf("due = %v, want 2025-04-20", p.DueDate)
	}
}

func TestMonthlyDueDayClamped(t *testing.T) {
	// Day 31 configured; due dates must exist in every month, so the day is
	// capped at 28.
	p, err := FrequencyMonthly.PeriodFromAnchor(date(2025, time.January, 10), DueConfig{DayOfMonth: 31})
	if err != nil {
		t.Fatal(err)
	}
	if !p.DueDate.Equal(date(2025, time.February, 28)) {
		t.Fatalf("due = %v, want 2025-02-28", p.DueDate)
	}
}

func TestQuarterlyPeriodFromAnchor(t *testing.T) {
	p, err := FrequencyQuarterly.PeriodFromAnchor(date(2025, time.May, 5), DueConfig{DayOfMonth: 18})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != "Q2 2025" {
		t.Fatalf("label = %q, want %q", p.Label, "Q2 2025")
	}
	if !p.Start.Equal(date(2025, time.April, 1)) {
		t.Fatalf("start = %v", p.Start)
	}
	if !p.End.Equal(date(2025, time.June, 30)) {
		t.Fatalf("end = %v", p.End)
	}
	if !p.DueDate.Equal(date(2025, time.July, 18)) {
		t.Fatalf("due = %v, want 2025-07-18", p.DueDate)
	}
}

func TestYearlyPeriodFiscal(t *testing.T) {
	// January falls in the fiscal year that started the previous April.
	p, err := FrequencyYearly.PeriodFromAnchor(date(2025, time.January, 10), DueConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != "FY 2024-25" {
		t.Fatalf("label = %q, want %q", p.Label, "FY 2024-25")
	}
	if !p.Start.Equal(date(2024, time.April, 1)) {
		t.Fatalf("start = %v, want 2024-04-01", p.Start)
	}
	if !p.End.Equal(date(2025, time.March, 31)) {
		t.Fatalf("end = %v, want 2025-03-31", p.End)
	}
	if !p.DueDate.Equal(date(2025, time.July, 31)) {
		t.Fatalf("due = %v, want 2025-07-31", p.DueDate)
	}
}

func TestYearlyDueBeforeAprilRollsForward(t *testing.T) {
	// A due month before April would land inside the fiscal year itself, so
	// the due year advances past the period end.
	p, err := FrequencyYearly.PeriodFromAnchor(date(2024, time.June, 1),
		DueConfig{YearlyMonth: time.February, YearlyDay: 15})
	if err != nil {
		t.Fatal(err)
	}
	if !p.End.Equal(date(2025, time.March, 31)) {
		t.Fatalf("end = %v", p.End)
	}
	if !p.DueDate.Equal(date(2026, time.February, 15)) {
		t.Fatalf("due = %v, want 2026-02-15", p.DueDate)
	}
	if !p.DueDate.After(p.End) {
		t.Fatal("due date must fall after the period end")
	}
}

func TestOneTimePeriod(t *testing.T) {
	anchor := date(2025, time.August, 1)
	p, err := FrequencyOneTime.PeriodFromAnchor(anchor, DueConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != "One Time" {
		t.Fatalf("label = %q", p.Label)
	}
	if !p.Start.Equal(anchor) || !p.End.Equal(anchor) {
		t.Fatalf("start/end = %v/%v, want both %v", p.Start, p.End, anchor)
	}
	if !p.DueDate.Equal(date(2025, time.August, 31)) {
		t.Fatalf("due = %v, want 30 days after anchor", p.DueDate)
	}
}

func TestNextPeriodMonthlyChain(t *testing.T) {
	due := DueConfig{DayOfMonth: 20}
	p, err := FrequencyMonthly.PeriodFromAnchor(date(2025, time.March, 15), due)
	if err != nil {
		t.Fatal(err)
	}
	next, ok, err := FrequencyMonthly.NextPeriod(p.End, due)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("monthly must recur")
	}
	if next.Label != "Apr 2025" {
		t.Fatalf("label = %q, want %q", next.Label, "Apr 2025")
	}
	if !next.Start.Equal(date(2025, time.April, 1)) {
		t.Fatalf("start = %v, want 2025-04-01", next.Start)
	}
	if !next.DueDate.Equal(date(2025, time.May, 20)) {
		t.Fatalf("due = %v, want 2025-05-20", next.DueDate)
	}
}

func TestNextPeriodQuarterlyChain(t *testing.T) {
	due := DueConfig{DayOfMonth: 18}
	p, err := FrequencyQuarterly.PeriodFromAnchor(date(2025, time.May, 5), due)
	if err != nil {
		t.Fatal(err)
	}
	next, ok, err := FrequencyQuarterly.NextPeriod(p.End, due)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("quarterly must recur")
	}
	if next.Label != "Q3 2025" {
		t.Fatalf("label = %q, want %q", next.Label, "Q3 2025")
	}
}

func TestNextPeriodYearlyChain(t *testing.T) {
	p, err := FrequencyYearly.PeriodFromAnchor(date(2025, time.January, 10), DueConfig{})
	if err != nil {
		t.Fatal(err)
	}
	next, ok, err := FrequencyYearly.NextPeriod(p.End, DueConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("yearly must recur")
	}
	if next.Label != "FY 2025-26" {
		t.Fatalf("label = %q, want %q", next.Label, "FY 2025-26")
	}
	if !next.DueDate.Equal(date(2026, time.July, 31)) {
		t.Fatalf("due = %v, want 2026-07-31", next.DueDate)
	}
}

func TestNextPeriodIgnoresDueDateConfig(t *testing.T) {
	// Succession depends only on the period boundary. Two calls from the
	// same period end land in the same successor period no matter what the
	// due-day config says.
	end := date(2025, time.March, 31)
	a, _, err := FrequencyMonthly.NextPeriod(end, DueConfig{DayOfMonth: 1})
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := FrequencyMonthly.NextPeriod(end, DueConfig{DayOfMonth: 28})
	if err != nil {
		t.Fatal(err)
	}
	if a.Label != "Apr 2025" || b.Label != "Apr 2025" {
		t.Fatalf("labels = %q, %q, want both %q", a.Label, b.Label, "Apr 2025")
	}
	if !a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
		t.Fatalf("period bounds diverge: [%v, %v] vs [%v, %v]", a.Start, a.End, b.Start, b.End)
	}
}

func TestNextPeriodOneTime(t *testing.T) {
	_, ok, err := FrequencyOneTime.NextPeriod(date(2025, time.August, 31), DueConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("one-time must not recur")
	}
}

func TestPeriodInvariants(t *testing.T) {
	anchors := []time.Time{
		date(2024, time.February, 29),
		date(2025, time.January, 1),
		date(2025, time.March, 31),
		date(2025, time.December, 31),
	}
	for _, freq := range []Frequency{FrequencyMonthly, FrequencyQuarterly, FrequencyYearly} {
		for _, anchor := range anchors {
			p, err := freq.PeriodFromAnchor(anchor, DueConfig{DayOfMonth: 15})
			if err != nil {
				t.Fatal(err)
			}
			if p.Start.After(anchor) || anchor.After(p.End) {
				t.Fatalf("%s anchor %v outside period [%v, %v]", freq, anchor, p.Start, p.End)
			}
			if !p.DueDate.After(p.End) {
				t.Fatalf("%s due %v not after period end %v", freq, p.DueDate, p.End)
			}
		}
	}
}

func TestUnknownFrequency(t *testing.T) {
	if _, err := Frequency("WEEKLY").PeriodFromAnchor(date(2025, time.January, 1), DueConfig{}); err == nil {
		t.Fatal("expected error for unknown frequency")
	}
}
