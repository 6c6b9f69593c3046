package main

import (
	"context"

	"campotech-ai-engine/internal/adapters/reviewqueue"
	"campotech-ai-engine/internal/ports"
)

// notifyingStore wraps the persistence Store with a best-effort asynq
// dispatch so a separate worker can page an operator when a job lands in
// human review, without the intake pipeline waiting on that notification.
type notifyingStore struct {
	ports.Store
	notifier *reviewqueue.Client
}

func (s notifyingStore) EnqueueReview(ctx context.Context, orgID, messageID, transcription string, extraction interface{}, confidence float64, phone string) error {
	if err := s.Store.EnqueueReview(ctx, orgID, messageID, transcription, extraction, confidence, phone); err != nil {
		return err
	}
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, reviewqueue.HumanReviewDuePayload{
			OrganizationID: orgID,
			MessageID:      messageID,
			Phone:          phone,
			Confidence:     confidence,
		})
	}
	return nil
}
