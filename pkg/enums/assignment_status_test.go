package enums

import "testing"

func TestAssignmentStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to AssignmentStatus
	}{
		{AssignmentStatusInvited, AssignmentStatusAccepted},
		{AssignmentStatusInvited, AssignmentStatusDeclined},
		{AssignmentStatusInvited, AssignmentStatusCancelled},
		{AssignmentStatusAccepted, AssignmentStatusConfirmed},
		{AssignmentStatusAccepted, AssignmentStatusAbsent},
		{AssignmentStatusAccepted, AssignmentStatusCancelled},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from, to AssignmentStatus
	}{
		{AssignmentStatusInvited, AssignmentStatusConfirmed},
		{AssignmentStatusInvited, AssignmentStatusAbsent},
		{AssignmentStatusAccepted, AssignmentStatusInvited},
		{AssignmentStatusAccepted, AssignmentStatusDeclined},
		{AssignmentStatusDeclined, AssignmentStatusAccepted},
		{AssignmentStatusDeclined, AssignmentStatusCancelled},
		{AssignmentStatusConfirmed, AssignmentStatusCancelled},
		{AssignmentStatusAbsent, AssignmentStatusAccepted},
		{AssignmentStatusCancelled, AssignmentStatusInvited},
	}
	for _, tc := range denied {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestAssignmentStatusTerminal(t *testing.T) {
	terminal := []AssignmentStatus{
		AssignmentStatusDeclined,
		AssignmentStatusConfirmed,
		AssignmentStatusAbsent,
		AssignmentStatusCancelled,
	}
	for _, status := range terminal {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	if AssignmentStatusInvited.IsTerminal() || AssignmentStatusAccepted.IsTerminal() {
		t.Fatal("invited/accepted must not be terminal")
	}
}

func TestAssignmentStatusActive(t *testing.T) {
	if AssignmentStatusDeclined.IsActive() || AssignmentStatusCancelled.IsActive() {
		t.Fatal("declined/cancelled must not count as active")
	}
	if !AssignmentStatusInvited.IsActive() || !AssignmentStatusAccepted.IsActive() {
		t.Fatal("invited/accepted must count as active")
	}
	if AssignmentStatus("bogus").IsActive() {
		t.Fatal("unknown status must not count as active")
	}
}

func TestParseAssignmentStatus(t *testing.T) {
	status, err := ParseAssignmentStatus("accepted")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if status != AssignmentStatusAccepted {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseAssignmentStatus("nope"); err == nil {
		t.Fatal("expected parse error for unknown status")
	}
}
