package unlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
)

const sweepBatchSize = 100

// SweepExpired makes lazy expiry durable: every granted request whose window
// has passed is flipped to expired, its logbook re-locked, and one audit
// entry written. Safe to run from several workers at once; the conditional
// flip means only one sweeper wins per request, and losers treat the row as
// already handled. Returns the number of requests this call expired.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()

	stale, err := s.unlocks.ListExpiredGrants(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired grants: %w", err)
	}

	swept := 0
	for _, req := range stale {
		var expired bool
		err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			lb, err := s.logbooks.GetByIDForUpdate(txCtx, req.LogbookID)
			if err != nil {
				return fmt.Errorf("get logbook: %w", err)
			}
			expired, err = s.expireGrant(txCtx, req, &lb, now)
			return err
		})
		if err != nil {
			// Keep sweeping the rest; this row gets another chance next tick.
			s.log.ErrorContext(ctx, "sweep: expire grant failed",
				"request_id", req.ID, "logbook_id", req.LogbookID, "error", err)
			continue
		}
		if !expired {
			continue
		}
		swept++

		s.notifier.Publish(ctx, notify.Event{
			Kind:       notify.EventUnlockExpired,
			LogbookID:  req.LogbookID,
			OccurredAt: now,
			Payload:    map[string]any{"request_id": req.ID.String()},
		})
	}

	if swept > 0 {
		s.log.InfoContext(ctx, "sweep: expired unlock grants", "count", swept)
	}
	return swept, nil
}

// expireGrant flips one granted request to expired and re-locks its logbook.
// Reports false when another sweeper already handled the row. The logbook is
// mutated in place so callers continue with the re-locked state.
func (s *Service) expireGrant(ctx context.Context, req domain.UnlockRequest, lb *domain.Logbook, now time.Time) (bool, error) {
	flipped, err := s.unlocks.MarkExpired(ctx, req.ID, now)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}
	if !flipped {
		return false, nil
	}

	// The grant reopened the logbook as a draft. Only a draft gets re-locked:
	// a logbook resubmitted during the window stays in the review cycle.
	if lb.Status == domain.StatusDraft {
		if err := s.logbooks.UpdateStatus(ctx, lb.ID, domain.StatusDraft, domain.StatusLocked, now); err != nil {
			return false, fmt.Errorf("relock logbook: %w", err)
		}
		if err := s.logbooks.SetSectionsLocked(ctx, lb.ID, true); err != nil {
			return false, fmt.Errorf("relock sections: %w", err)
		}
		lb.Status = domain.StatusLocked
	}

	_, err = s.audit.Append(ctx, domain.AuditEntry{
		ID:          uuid.New(),
		LogbookID:   lb.ID,
		ActorID:     nil, // system action
		Action:      domain.AuditUnlockExpiry,
		Description: "unlock window elapsed",
		Diff:        map[string]any{"request_id": req.ID.String()},
		CreatedAt:   now,
	})
	if err != nil {
		return false, fmt.Errorf("append audit entry: %w", err)
	}
	return true, nil
}

// WarnExpiring publishes a warning for grants whose window ends within the
// configured lead time. Best effort and deduplicated per process; a restart
// may repeat a warning, which the sink is expected to tolerate.
func (s *Service) WarnExpiring(ctx context.Context) (int, error) {
	now := s.now()

	expiring, err := s.unlocks.ListGrantsExpiringBetween(ctx, now, now.Add(s.cfg.ExpiryWarningLead))
	if err != nil {
		return 0, fmt.Errorf("list expiring grants: %w", err)
	}

	sent := 0
	for _, req := range expiring {
		if _, dup := s.warned.LoadOrStore(req.ID, struct{}{}); dup {
			continue
		}
		sent++
		s.notifier.Publish(ctx, notify.Event{
			Kind:       notify.EventUnlockExpiryWarning,
			LogbookID:  req.LogbookID,
			OccurredAt: now,
			Payload: map[string]any{
				"request_id":        req.ID.String(),
				"unlock_expires_at": req.UnlockExpiresAt,
			},
		})
	}
	return sent, nil
}
