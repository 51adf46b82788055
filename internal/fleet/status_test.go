package fleet

import "testing"

func TestCanTransitionAndApply(t *testing.T) {
	if !CanTransition(StatusActive, StatusInactive) {
		t.Fatalf("expected Active -> Inactive allowed")
	}
	if !CanTransition(StatusInactive, StatusActive) {
		t.Fatalf("expected Inactive -> Active allowed")
	}
	if CanTransition(StatusRemoved, StatusActive) {
		t.Fatalf("expected Removed -> Active not allowed")
	}

	c := &Coach{CoachID: "CH-001", Status: StatusActive}
	if err := ApplyTransition(c, StatusRemoved); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if c.Status != StatusRemoved {
		t.Fatalf("expected status Removed, got %s", c.Status)
	}

	if err := ApplyTransition(c, StatusActive); err == nil {
		t.Fatalf("expected transition out of Removed to fail")
	}
	if err := ApplyTransition(c, Status("scrapped")); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusInactive, StatusRemoved} {
		if !ValidStatus(s) {
			t.Fatalf("expected %s valid", s)
		}
	}
	// 状态比较区分大小写
	if ValidStatus(Status("active")) {
		t.Fatalf("lowercase status should not validate")
	}
}
