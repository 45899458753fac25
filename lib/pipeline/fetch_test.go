package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fiffu/noticewatch/lib/models"
	"github.com/fiffu/noticewatch/senders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchNotices(t *testing.T) {
	feed := serveFeed(t, `[
		{"nttId": "100", "subject": "공지 하나", "regDate": "2024-05-01 09:30:00", "content": "<p>본문</p>", "imageUrls": ["https://cdn.example.com/a.png"], "writer": "학과사무실"},
		{"id": "200", "subject": "공지 둘", "regDate": "2024-05-01 10:00:00"},
		{"subject": "식별자 없음", "regDate": "2024-05-01 10:30:00"},
		{"nttId": "300", "subject": "regDate 없음"}
	]`)

	db := newTestDB(t)
	p := newTestPipeline(t, db, senders.Registry{})
	src := &models.Source{ID: "cse", Endpoint: feed.URL, Routing: models.RoutingMembership}

	candidates, err := p.fetchNotices(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, candidates, 2, "items without an id or regDate are dropped")

	first := candidates[0]
	assert.Equal(t, "100", first.NoticeID)
	assert.Equal(t, "공지 하나", first.Subject)
	assert.Equal(t, "<p>본문</p>", first.ContentHTML)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, first.ImageURLs)
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))
	assert.JSONEq(t, `{"writer": "학과사무실"}`, first.Metadata)

	second := candidates[1]
	assert.Equal(t, "200", second.NoticeID, "id is the fallback identifier field")
	assert.Empty(t, second.Metadata)
}

func TestFetchNotices_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	db := newTestDB(t)
	p := newTestPipeline(t, db, senders.Registry{})
	src := &models.Source{ID: "cse", Endpoint: srv.URL, Routing: models.RoutingMembership}

	_, err := p.fetchNotices(context.Background(), src)
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestFetchNotices_MalformedPayload(t *testing.T) {
	feed := serveFeed(t, `{"error": "not an array"}`)

	db := newTestDB(t)
	p := newTestPipeline(t, db, senders.Registry{})
	src := &models.Source{ID: "cse", Endpoint: feed.URL, Routing: models.RoutingMembership}

	_, err := p.fetchNotices(context.Background(), src)
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}
