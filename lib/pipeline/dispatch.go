package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/fiffu/noticewatch/lib/models"
	"github.com/fiffu/noticewatch/senders"
	"github.com/google/uuid"
)

// fallbackBody replaces a summary that would tell the recipient nothing the
// title doesn't already say.
const fallbackBody = "공지 내용을 확인해 주세요."

// dispatch fans one notice out to its targets. Each valid address is
// attempted at least once; batch failures are recorded and do not abort the
// remaining batches. Reports whether at least one batch was accepted.
func (p *Pipeline) dispatch(ctx context.Context, src *models.Source, cand *candidate, summary string, targets models.Recipients) bool {
	if len(targets) == 0 {
		return false
	}

	body := summary
	if body == "" || body == cand.Subject {
		body = fallbackBody
	}
	payload := senders.Payload{
		Title: cand.Subject,
		Body:  body,
		Data: map[string]string{
			"sourceId": src.ID,
			"noticeId": cand.NoticeID,
		},
	}

	byPlatform := make(map[string][]string)
	for _, r := range targets {
		sender, ok := p.senders[r.Platform]
		if !ok || !sender.ValidAddress(r.Address) {
			continue
		}
		byPlatform[r.Platform] = append(byPlatform[r.Platform], r.Address)
	}

	jobID := uuid.NewString()
	notified := false
	for platform, addresses := range byPlatform {
		if p.submitBatches(ctx, jobID, src, cand, platform, addresses, payload) {
			notified = true
		}
	}
	return notified
}

func (p *Pipeline) submitBatches(ctx context.Context, jobID string, src *models.Source, cand *candidate, platform string, addresses []string, payload senders.Payload) bool {
	sender := p.senders[platform]

	var wg sync.WaitGroup
	var resultMu sync.Mutex
	anyAccepted := false

	// Address partitions are disjoint, so batches go out concurrently.
	for start := 0; start < len(addresses); start += p.batchSize {
		batch := addresses[start:min(start+p.batchSize, len(addresses))]

		wg.Add(1)
		go func() {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
			defer cancel()

			status, errText := models.DeliverySent, ""
			if err := sender.Send(callCtx, batch, payload); err != nil {
				status, errText = models.DeliveryFailed, err.Error()
				p.log.Sugar().Errorw("Batch submission failed",
					"platform", platform, "source", src.ID, "notice", cand.NoticeID, "size", len(batch), "err", err)
			} else {
				resultMu.Lock()
				anyAccepted = true
				resultMu.Unlock()
			}
			dispatchBatchesTotal.WithLabelValues(platform, status).Inc()

			record := models.Delivery{
				JobID:     jobID,
				SourceID:  src.ID,
				NoticeID:  cand.NoticeID,
				Platform:  platform,
				Addresses: len(batch),
				Status:    status,
				Error:     errText,
				SentAt:    time.Now().UTC(),
			}
			resultMu.Lock()
			tx := p.db.Create(&record)
			resultMu.Unlock()
			if err := tx.Error; err != nil {
				p.log.Sugar().Warnw("Failed to record delivery", "job", jobID, "err", err)
			}
		}()
	}

	wg.Wait()
	return anyAccepted
}
