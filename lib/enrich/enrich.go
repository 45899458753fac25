// Package enrich derives a short human-readable summary for a notice from
// its body text and any OCR-extracted image text. Enrichment is best-effort:
// every failure degrades to the notice's subject, never to an error.
package enrich

import (
	"context"
	"net/http"
	"time"

	"github.com/fiffu/noticewatch/config"
	"github.com/fiffu/noticewatch/lib"
	"go.uber.org/zap"
)

func NewEnricher(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Enricher {
	return &Enricher{
		cfg:       cfg,
		log:       log,
		transport: transport,
		timeout:   time.Duration(cfg.Pipeline.CallTimeoutSecs) * time.Second,
	}
}

type Enricher struct {
	cfg       *config.Config
	log       *zap.Logger
	transport http.RoundTripper
	timeout   time.Duration
}

// Summarize returns the notification body for a notice: a 2-3 sentence
// summary of the flattened body plus recognized image text, or the subject
// when any external call fails.
func (e *Enricher) Summarize(ctx context.Context, subject, contentHTML string, imageURLs []string) string {
	text := lib.PlainText(contentHTML)
	if text == "" {
		text = subject
	}

	// Image order affects the concatenated text, so OCR runs in sequence.
	for _, url := range imageURLs {
		if extracted := e.extractImageText(ctx, url); extracted != "" {
			text += "\n" + extracted
		}
	}

	summary, err := e.summarize(ctx, text)
	if err != nil {
		e.log.Sugar().Warnw("Summarization failed, falling back to subject", "err", err)
		return subject
	}
	if summary == "" {
		return subject
	}
	return summary
}
