package app

import (
	"encoding/json"
	"time"

	"github.com/fiffu/noticewatch/lib/models"
)

type NoticeView struct {
	SourceID    string          `json:"source_id"`
	NoticeID    string          `json:"notice_id"`
	Subject     string          `json:"subject"`
	Summary     string          `json:"summary"`
	ImageURLs   []string        `json:"image_urls"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	PublishedAt string          `json:"published_at"`
	IngestedAt  string          `json:"ingested_at"`
}

type RecipientView struct {
	ID         uint     `json:"id"`
	Platform   string   `json:"platform"`
	Address    string   `json:"address"`
	Department string   `json:"department"`
	Keywords   []string `json:"keywords"`
}

type SourceView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Routing  string `json:"routing"`
}

func (view NoticeView) From(entity *models.Notice) NoticeView {
	return NoticeView{
		SourceID:    entity.SourceID,
		NoticeID:    entity.NoticeID,
		Subject:     entity.Subject,
		Summary:     entity.Summary,
		ImageURLs:   entity.ImageURLs,
		Metadata:    json.RawMessage(entity.Metadata),
		PublishedAt: isoformat(entity.PublishedAt),
		IngestedAt:  isoformat(entity.IngestedAt),
	}
}

func (view RecipientView) From(entity *models.Recipient) RecipientView {
	return RecipientView{
		ID:         entity.ID,
		Platform:   entity.Platform,
		Address:    entity.Address,
		Department: entity.Department,
		Keywords:   entity.Keywords,
	}
}

func (view SourceView) From(entity *models.Source) SourceView {
	return SourceView{
		ID:       entity.ID,
		Name:     entity.Name,
		Endpoint: entity.Endpoint,
		Routing:  entity.Routing,
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[*T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i := range elems {
		var u U
		out[i] = u.From(&elems[i])
	}
	return out
}

func isoformat(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
