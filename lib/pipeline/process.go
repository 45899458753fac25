package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/fiffu/noticewatch/lib/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// processSource runs one source through fetch → dedup → enrich → target →
// dispatch. The returned error means the source was abandoned for this pass;
// items committed before the failure stay committed.
func (p *Pipeline) processSource(ctx context.Context, src *models.Source) (*passMetrics, error) {
	m := &passMetrics{}

	watermark, err := p.loadWatermark(src.ID)
	if err != nil {
		m.errored++
		return m, err
	}

	candidates, err := p.fetchNotices(ctx, src)
	if err != nil {
		m.errored++
		return m, err
	}
	m.fetched = len(candidates)

	var maxIngested time.Time
	var abort error
	for i := range candidates {
		cand := &candidates[i]

		// Cheap pre-filter: the watermark catches most already-seen items.
		if !watermark.IsZero() && !cand.PublishedAt.After(watermark) {
			m.skipped++
			continue
		}

		// The archive existence check catches the rest: equal timestamps,
		// out-of-order arrivals, overlapping runs.
		ingested, err := p.ingest(src, cand)
		if err != nil {
			abort = err
			break
		}
		if !ingested {
			m.skipped++
			continue
		}
		m.ingested++
		ingestedTotal.WithLabelValues(src.ID).Inc()
		p.log.Sugar().Infof("New notice %s/%s", src.ID, cand.NoticeID)

		if cand.PublishedAt.After(maxIngested) {
			maxIngested = cand.PublishedAt
		}

		summary := p.enricher.Summarize(ctx, cand.Subject, cand.ContentHTML, cand.ImageURLs)
		if err := p.saveSummary(src.ID, cand.NoticeID, summary); err != nil {
			p.log.Sugar().Warnw("Failed to persist summary", "source", src.ID, "notice", cand.NoticeID, "err", err)
		}

		targets, err := p.findTargets(src, cand.Subject)
		if err != nil {
			p.log.Sugar().Errorw("Failed to compute targets", "source", src.ID, "notice", cand.NoticeID, "err", err)
			continue
		}
		if p.dispatch(ctx, src, cand, summary, targets) {
			m.notified++
		}
	}

	// The watermark only moves forward, over ingested items, and only when
	// the whole candidate loop completed. An aborted pass keeps the
	// committed value so the next pass re-examines the tail; items already
	// archived are absorbed by the existence check.
	if abort == nil && !maxIngested.IsZero() {
		if err := p.advanceWatermark(src.ID, watermark, maxIngested); err != nil {
			m.errored++
			abort = err
		}
	}
	if abort != nil {
		m.errored++
	}
	return m, abort
}

func (p *Pipeline) loadWatermark(sourceID string) (time.Time, error) {
	var wm models.Watermark
	tx := p.db.Where("source_id = ?", sourceID).First(&wm)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	} else if err != nil {
		return time.Time{}, &PersistenceError{SourceID: sourceID, Op: "watermark lookup", Err: err}
	}
	return wm.LastPublished, nil
}

func (p *Pipeline) advanceWatermark(sourceID string, prev, next time.Time) error {
	if !next.After(prev) {
		return nil
	}

	wm := models.Watermark{SourceID: sourceID, LastPublished: next, UpdatedAt: time.Now().UTC()}
	tx := p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_published", "updated_at"}),
	}).Create(&wm)
	if err := tx.Error; err != nil {
		return &PersistenceError{SourceID: sourceID, Op: "watermark update", Err: err}
	}
	return nil
}

// ingest archives a candidate, reporting false when the (source, notice id)
// pair already exists.
func (p *Pipeline) ingest(src *models.Source, cand *candidate) (bool, error) {
	var count int64
	tx := p.db.Model(&models.Notice{}).
		Where("source_id = ? AND notice_id = ?", src.ID, cand.NoticeID).
		Count(&count)
	if err := tx.Error; err != nil {
		return false, &PersistenceError{SourceID: src.ID, Op: "archive lookup", Err: err}
	}
	if count > 0 {
		return false, nil
	}

	notice := models.Notice{
		SourceID:    src.ID,
		NoticeID:    cand.NoticeID,
		Subject:     cand.Subject,
		ContentHTML: cand.ContentHTML,
		ImageURLs:   cand.ImageURLs,
		Metadata:    cand.Metadata,
		PublishedAt: cand.PublishedAt,
		IngestedAt:  time.Now().UTC(),
	}
	tx = p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&notice)
	if err := tx.Error; err != nil {
		return false, &PersistenceError{SourceID: src.ID, Op: "archive insert", Err: err}
	}

	// RowsAffected is 0 when a concurrent writer won the unique index race.
	return tx.RowsAffected > 0, nil
}

func (p *Pipeline) saveSummary(sourceID, noticeID, summary string) error {
	tx := p.db.Model(&models.Notice{}).
		Where("source_id = ? AND notice_id = ?", sourceID, noticeID).
		Update("summary", summary)
	return tx.Error
}
