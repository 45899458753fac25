package pipeline

import (
	"testing"

	"github.com/fiffu/noticewatch/lib/models"
	"github.com/fiffu/noticewatch/senders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetAddresses(t *testing.T, p *Pipeline, src *models.Source, subject string) []string {
	t.Helper()

	targets, err := p.findTargets(src, subject)
	require.NoError(t, err)

	out := make([]string, 0, len(targets))
	for _, r := range targets {
		out = append(out, r.Address)
	}
	return out
}

func TestMembershipRouting(t *testing.T) {
	db := newTestDB(t)
	seedRecipient(t, db, "ExponentPushToken[cse-1]", "cse", nil)
	seedRecipient(t, db, "ExponentPushToken[cse-2]", "cse", nil)
	seedRecipient(t, db, "", "cse", nil)                       // no address yet
	seedRecipient(t, db, "ExponentPushToken[ee-1]", "ee", nil) // other department

	p := newTestPipeline(t, db, senders.Registry{models.PlatformExpo: &fakeSender{}})
	src := &models.Source{ID: "cse", Routing: models.RoutingMembership}

	addresses := targetAddresses(t, p, src, "학과 공지")
	assert.ElementsMatch(t, []string{"ExponentPushToken[cse-1]", "ExponentPushToken[cse-2]"}, addresses)
}

func TestKeywordRouting(t *testing.T) {
	db := newTestDB(t)
	seedRecipient(t, db, "ExponentPushToken[aaa]", "cse", []string{"시험"})
	seedRecipient(t, db, "ExponentPushToken[bbb]", "ee", []string{"장학"})
	seedRecipient(t, db, "ExponentPushToken[ccc]", "", nil) // empty keyword set never matches
	seedRecipient(t, db, "", "", []string{"시험"})            // no address yet

	p := newTestPipeline(t, db, senders.Registry{models.PlatformExpo: &fakeSender{}})
	src := &models.Source{ID: "school", Routing: models.RoutingKeyword}

	addresses := targetAddresses(t, p, src, "기말시험 일정 안내")
	assert.Equal(t, []string{"ExponentPushToken[aaa]"}, addresses)
}

func TestKeywordRouting_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	seedRecipient(t, db, "ExponentPushToken[aaa]", "", []string{"TOEIC"})

	p := newTestPipeline(t, db, senders.Registry{models.PlatformExpo: &fakeSender{}})
	src := &models.Source{ID: "school", Routing: models.RoutingKeyword}

	addresses := targetAddresses(t, p, src, "교내 toeic 특강 안내")
	assert.Equal(t, []string{"ExponentPushToken[aaa]"}, addresses)
}

func TestKeywordRouting_SpansAllDepartments(t *testing.T) {
	db := newTestDB(t)
	seedRecipient(t, db, "ExponentPushToken[aaa]", "cse", []string{"장학"})
	seedRecipient(t, db, "ExponentPushToken[bbb]", "ee", []string{"장학"})

	p := newTestPipeline(t, db, senders.Registry{models.PlatformExpo: &fakeSender{}})
	src := &models.Source{ID: "scholarship", Routing: models.RoutingKeyword}

	addresses := targetAddresses(t, p, src, "2024 국가장학금 신청")
	assert.ElementsMatch(t, []string{"ExponentPushToken[aaa]", "ExponentPushToken[bbb]"}, addresses)
}

func TestFindTargets_UnknownRouting(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(t, db, senders.Registry{})

	_, err := p.findTargets(&models.Source{ID: "x", Routing: "broadcast"}, "공지")
	assert.Error(t, err)
}
