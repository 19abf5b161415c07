package model

import (
	"errors"
	"testing"
	"time"

	cerrors "github.com/minepulse/gamify-engine/internal/common/errors"
)

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"MondayMidnight",
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			"MidWeek",
			time.Date(2026, 8, 27, 15, 30, 0, 0, time.UTC), // Thursday
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			"SundayEnd",
			time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC),
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			"NextMonday",
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			"NonUTCInput",
			time.Date(2026, 8, 24, 5, 0, 0, 0, time.FixedZone("KST", 9*3600)), // Sunday 20:00 UTC
			time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WeekStart(tc.in); !got.Equal(tc.want) {
				t.Errorf("WeekStart(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPeriodKeys(t *testing.T) {
	thu := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	if got := WeekKey(thu); got != "2026-W35" {
		t.Errorf("WeekKey = %q, want 2026-W35", got)
	}
	if got := MonthKey(thu); got != "2026-08" {
		t.Errorf("MonthKey = %q, want 2026-08", got)
	}
	if got := PrevWeekKey(thu); got != "2026-W34" {
		t.Errorf("PrevWeekKey = %q, want 2026-W34", got)
	}

	t.Run("ISOWeekYearBoundary", func(t *testing.T) {
		// 2027-01-01 is a Friday and belongs to ISO week 2026-W53.
		newYear := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
		if got := WeekKey(newYear); got != "2026-W53" {
			t.Errorf("WeekKey(2027-01-01) = %q, want 2026-W53", got)
		}
	})

	t.Run("MonthStart", func(t *testing.T) {
		want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		if got := MonthStart(thu); !got.Equal(want) {
			t.Errorf("MonthStart = %v, want %v", got, want)
		}
	})
}

func TestParseEvent(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		raw := `{"event_id":"evt-1","type":"share_submitted","timestamp":"2026-08-27T12:00:00Z","payload":{"playerId":"p1","shareCount":5,"difficulty":1234.5}}`
		ev, err := ParseEvent(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.EventID != "evt-1" {
			t.Errorf("EventID = %q", ev.EventID)
		}
		if ev.Type != EventShareSubmitted {
			t.Errorf("Type = %q", ev.Type)
		}
		if ev.Payload.ShareCount != 5 {
			t.Errorf("ShareCount = %d", ev.Payload.ShareCount)
		}
	})

	t.Run("TimestampDefaulted", func(t *testing.T) {
		ev, err := ParseEvent(`{"event_id":"evt-2","type":"block_found","payload":{"playerId":"p1"}}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Timestamp.IsZero() {
			t.Error("expected timestamp to be defaulted")
		}
	})

	malformed := []struct {
		name string
		raw  string
	}{
		{"InvalidJSON", `{not json`},
		{"MissingEventID", `{"type":"share_submitted","payload":{"playerId":"p1"}}`},
		{"BlankEventID", `{"event_id":"  ","type":"share_submitted","payload":{"playerId":"p1"}}`},
		{"MissingType", `{"event_id":"evt-3","payload":{"playerId":"p1"}}`},
		{"MissingPlayerID", `{"event_id":"evt-4","type":"share_submitted","payload":{}}`},
	}
	for _, tc := range malformed {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEvent(tc.raw)
			var malformedErr cerrors.MalformedEventError
			if !errors.As(err, &malformedErr) {
				t.Fatalf("expected MalformedEventError, got %v", err)
			}
			if !cerrors.IsBadInput(err) {
				t.Error("malformed event should classify as bad input")
			}
		})
	}
}

func TestIsKnownEventType(t *testing.T) {
	for _, typ := range []EventType{
		EventShareSubmitted, EventShareBestDiff, EventBlockFound,
		EventMinerConnected, EventMinerDisconnected, EventDifficultyUpdate,
	} {
		if !IsKnownEventType(typ) {
			t.Errorf("expected %q to be known", typ)
		}
	}
	if IsKnownEventType("pool_reconfigured") {
		t.Error("unexpected type should not be known")
	}
}
