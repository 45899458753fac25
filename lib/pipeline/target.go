package pipeline

import (
	"fmt"
	"strings"

	"github.com/fiffu/noticewatch/lib/models"
)

// findTargets computes the recipients that should be notified for one
// notice, under the source's routing policy. Recipients with no delivery
// address never appear; address format validation happens at dispatch.
func (p *Pipeline) findTargets(src *models.Source, subject string) (models.Recipients, error) {
	switch src.Routing {
	case models.RoutingMembership:
		return p.membershipTargets(src.ID)
	case models.RoutingKeyword:
		return p.keywordTargets(subject)
	default:
		return nil, fmt.Errorf("unsupported routing policy: %s", src.Routing)
	}
}

func (p *Pipeline) membershipTargets(sourceID string) (models.Recipients, error) {
	var recipients models.Recipients
	tx := p.db.
		Where("department = ?", sourceID).
		Where("address <> ''").
		Find(&recipients)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return recipients, nil
}

func (p *Pipeline) keywordTargets(subject string) (models.Recipients, error) {
	var recipients models.Recipients
	tx := p.db.Where("address <> ''").Find(&recipients)
	if err := tx.Error; err != nil {
		return nil, err
	}

	lowered := strings.ToLower(subject)
	matched := make(models.Recipients, 0, len(recipients))
	for _, r := range recipients {
		if matchesKeyword(lowered, r.Keywords) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func matchesKeyword(loweredSubject string, keywords models.StringList) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(loweredSubject, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
