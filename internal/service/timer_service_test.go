package service

import (
	"testing"
	"time"

	"github.com/hems-edu/examgate/internal/apperr"
	"github.com/hems-edu/examgate/internal/model"
)

func newTimerFixture(t *testing.T, startedAgo time.Duration, durationMinutes int) (*timerService, *fakeAuditRepo, uint) {
	t.Helper()
	exams := newFakeExamRepo()
	answers := newFakeAnswerRepo()
	attempts := newFakeAttemptRepo(exams, answers)
	audit := &fakeAuditRepo{}

	exam := &model.Exam{Title: "Exit Exam", Year: testNow.Year(), DurationMinutes: durationMinutes, Published: true}
	if err := exams.Create(exam); err != nil {
		t.Fatalf("creating exam: %v", err)
	}
	attempt := &model.ExamAttempt{StudentID: 1, ExamID: exam.ID, StartedAt: testNow.Add(-startedAgo)}
	if err := attempts.Create(attempt); err != nil {
		t.Fatalf("creating attempt: %v", err)
	}

	svc := &timerService{
		attemptRepo: attempts,
		examRepo:    exams,
		audit:       NewAuditService(audit),
		secret:      []byte("test-timer-secret"),
		tolerance:   5 * time.Second,
		now:         func() time.Time { return testNow },
	}
	return svc, audit, attempt.ID
}

func TestRemainingTime(t *testing.T) {
	svc, _, attemptID := newTimerFixture(t, 20*time.Minute, 60)

	remaining, err := svc.RemainingTime(attemptID)
	if err != nil {
		t.Fatalf("RemainingTime: %v", err)
	}
	if remaining != 40*time.Minute {
		t.Errorf("remaining = %v, want 40m", remaining)
	}

	expired, err := svc.IsExpired(attemptID)
	if err != nil || expired {
		t.Errorf("IsExpired = %v, %v; want false, nil", expired, err)
	}
}

func TestRemainingTimeClampsAtZero(t *testing.T) {
	// Started 90 minutes ago on a 60-minute exam: expired, never negative.
	svc, _, attemptID := newTimerFixture(t, 90*time.Minute, 60)

	remaining, err := svc.RemainingTime(attemptID)
	if err != nil {
		t.Fatalf("RemainingTime: %v", err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %v, want 0", remaining)
	}

	expired, err := svc.IsExpired(attemptID)
	if err != nil || !expired {
		t.Errorf("IsExpired = %v, %v; want true, nil", expired, err)
	}
}

func TestRemainingTimeUnknownAttempt(t *testing.T) {
	svc, _, _ := newTimerFixture(t, 0, 60)
	if _, err := svc.RemainingTime(999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestSecureTimestampRoundTrip(t *testing.T) {
	svc, _, attemptID := newTimerFixture(t, 20*time.Minute, 60)

	stamp, err := svc.SecureTimestamp(attemptID)
	if err != nil {
		t.Fatalf("SecureTimestamp: %v", err)
	}
	if stamp.Expired {
		t.Error("fresh attempt reported expired")
	}
	if stamp.RemainingClock != "00:40:00" {
		t.Errorf("RemainingClock = %q, want 00:40:00", stamp.RemainingClock)
	}

	if !svc.ValidateTimestampHash(attemptID, stamp.ServerTime, stamp.Hash) {
		t.Error("genuine timestamp rejected")
	}

	// Tampered time, tampered hash, and a foreign attempt all fail.
	if svc.ValidateTimestampHash(attemptID, stamp.ServerTime.Add(time.Second), stamp.Hash) {
		t.Error("shifted server time accepted")
	}
	if svc.ValidateTimestampHash(attemptID, stamp.ServerTime, stamp.Hash+"00") {
		t.Error("altered hash accepted")
	}
	if svc.ValidateTimestampHash(attemptID+1, stamp.ServerTime, stamp.Hash) {
		t.Error("hash accepted for a different attempt")
	}
}

func TestSecureTimestampExpired(t *testing.T) {
	svc, _, attemptID := newTimerFixture(t, 90*time.Minute, 60)

	stamp, err := svc.SecureTimestamp(attemptID)
	if err != nil {
		t.Fatalf("SecureTimestamp: %v", err)
	}
	if !stamp.Expired {
		t.Error("overdue attempt not reported expired")
	}
	if stamp.RemainingClock != "00:00:00" {
		t.Errorf("RemainingClock = %q, want 00:00:00", stamp.RemainingClock)
	}
}

func TestValidateExamTimeIntegrity(t *testing.T) {
	svc, _, attemptID := newTimerFixture(t, 30*time.Minute, 60)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"exact match", 30 * time.Minute, true},
		{"more than server is harmless", 45 * time.Minute, true},
		{"within tolerance", 30*time.Minute - 3*time.Second, true},
		{"claims less than server", 20 * time.Minute, false},
		{"just past tolerance", 30*time.Minute - 6*time.Second, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ValidateExamTimeIntegrity(attemptID, tc.elapsed)
			if err != nil {
				t.Fatalf("ValidateExamTimeIntegrity: %v", err)
			}
			if got != tc.want {
				t.Errorf("ValidateExamTimeIntegrity(%v) = %v, want %v", tc.elapsed, got, tc.want)
			}
		})
	}
}

func TestDetectSuspiciousTimingActivity(t *testing.T) {
	svc, audit, attemptID := newTimerFixture(t, 30*time.Minute, 60)

	if svc.DetectSuspiciousTimingActivity(attemptID, 30*time.Minute) {
		t.Error("honest report flagged suspicious")
	}
	if len(audit.events) != 0 {
		t.Errorf("honest report recorded %d audit events", len(audit.events))
	}

	if !svc.DetectSuspiciousTimingActivity(attemptID, 10*time.Minute) {
		t.Error("under-reported elapsed time not flagged")
	}
	if len(audit.events) != 1 || audit.events[0].Kind != model.AuditSuspiciousTiming {
		t.Errorf("audit events = %v, want one suspicious_timing", audit.kinds())
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Minute, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{90 * time.Minute, "01:30:00"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "03:04:05"},
		{26 * time.Hour, "26:00:00"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.in); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
