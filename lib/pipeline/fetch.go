package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/noticewatch/lib/models"
)

// regDate arrives as "2006-01-02 15:04:05" in the feed's local time.
const regDateLayout = "2006-01-02 15:04:05"

// candidate is one raw item from a bulletin feed. Fields the pipeline does
// not interpret are kept aside in Metadata and pass through onto the
// archived notice.
type candidate struct {
	NoticeID    string
	Subject     string
	ContentHTML string
	ImageURLs   []string
	PublishedAt time.Time
	Metadata    string
}

type rawNotice struct {
	NttID     string   `json:"nttId"`
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	RegDate   string   `json:"regDate"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls"`
}

func (p *Pipeline) fetchNotices(ctx context.Context, src *models.Source) ([]candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	var raws []json.RawMessage
	err := requests.URL(src.Endpoint).
		Transport(p.transport).
		ToJSON(&raws).
		Fetch(ctx)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Err: err}
	}

	out := make([]candidate, 0, len(raws))
	for _, raw := range raws {
		var rn rawNotice
		if err := json.Unmarshal(raw, &rn); err != nil {
			return nil, &FetchError{SourceID: src.ID, Err: err}
		}

		id := rn.NttID
		if id == "" {
			id = rn.ID
		}
		if id == "" || rn.RegDate == "" {
			p.log.Sugar().Warnw("Dropping feed item without id or regDate", "source", src.ID)
			continue
		}

		published, err := time.ParseInLocation(regDateLayout, rn.RegDate, p.loc)
		if err != nil {
			p.log.Sugar().Warnw("Dropping feed item with bad regDate", "source", src.ID, "notice", id, "regDate", rn.RegDate)
			continue
		}

		out = append(out, candidate{
			NoticeID:    id,
			Subject:     rn.Subject,
			ContentHTML: rn.Content,
			ImageURLs:   rn.ImageURLs,
			PublishedAt: published,
			Metadata:    passthroughMetadata(raw),
		})
	}
	return out, nil
}

func passthroughMetadata(raw json.RawMessage) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	for _, known := range []string{"nttId", "id", "subject", "regDate", "content", "imageUrls"} {
		delete(m, known)
	}
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
