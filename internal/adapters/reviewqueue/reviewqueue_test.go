package reviewqueue

import "testing"

func TestHumanReviewDueTask_RoundTrip(t *testing.T) {
	payload := HumanReviewDuePayload{
		OrganizationID: "org-1",
		MessageID:      "msg-1",
		Phone:          "+5493434890284",
		Confidence:     0.35,
	}

	task, err := NewHumanReviewDueTask(payload)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskHumanReviewDue {
		t.Fatalf("task type = %q, want %q", task.Type(), TaskHumanReviewDue)
	}

	got, err := ParseHumanReviewDuePayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if got != payload {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, payload)
	}
}
