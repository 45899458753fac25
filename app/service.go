package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fiffu/noticewatch/config"
	"github.com/fiffu/noticewatch/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service backs the HTTP surface: the client app's recipient writes and
// notice reads, and the administrative source writes. The pipeline itself
// never goes through here.
type Service struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func NewService(cfg *config.Config, log *zap.Logger, db *gorm.DB) *Service {
	return &Service{cfg, log, db}
}

// RegisterRecipient creates or refreshes the recipient owning a delivery
// address. The client calls this on every login, so it must be idempotent.
func (svc *Service) RegisterRecipient(ctx context.Context, platform, address, department string) (*models.Recipient, error) {
	if !models.ValidPlatform(platform) {
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}

	recipient := &models.Recipient{}
	tx := svc.db.Where("platform = ? AND address = ?", platform, address).First(recipient)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		recipient = &models.Recipient{Platform: platform, Address: address, Department: department}
		if tx := svc.db.Clauses(clause.Returning{}).Create(recipient); tx.Error != nil {
			return nil, tx.Error
		}
		svc.log.Sugar().Infof("Registered recipient %v (%s)", recipient.ID, platform)
		return recipient, nil
	} else if err != nil {
		return nil, err
	}

	recipient.Department = department
	if tx := svc.db.Save(recipient); tx.Error != nil {
		return nil, tx.Error
	}
	return recipient, nil
}

// UpdateKeywords replaces the recipient's interest-keyword set.
func (svc *Service) UpdateKeywords(ctx context.Context, recipientID uint, keywords []string) (*models.Recipient, error) {
	recipient := &models.Recipient{}
	tx := svc.db.First(recipient, recipientID)
	if err := tx.Error; err != nil {
		return nil, err
	}

	cleaned := make(models.StringList, 0, len(keywords))
	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		cleaned = append(cleaned, kw)
	}

	recipient.Keywords = cleaned
	if tx := svc.db.Save(recipient); tx.Error != nil {
		return nil, tx.Error
	}
	return recipient, nil
}

func (svc *Service) ListNotices(ctx context.Context, sourceID string, limit int) (models.Notices, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var notices models.Notices
	tx := svc.db.
		Where("source_id = ?", sourceID).
		Order("published_at desc").
		Limit(limit).
		Find(&notices)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return notices, nil
}

// UpsertSource is the administrative process's write path for feed
// configuration. The pipeline picks changes up on its next pass.
func (svc *Service) UpsertSource(ctx context.Context, id, name, endpoint, routing string) (*models.Source, error) {
	if id == "" || endpoint == "" {
		return nil, errors.New("source id and endpoint are required")
	}
	if !models.ValidRouting(routing) {
		return nil, fmt.Errorf("unsupported routing policy: %s", routing)
	}

	src := &models.Source{ID: id, Name: name, Endpoint: endpoint, Routing: routing}
	tx := svc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "endpoint", "routing", "updated_at"}),
	}).Create(src)
	if err := tx.Error; err != nil {
		return nil, err
	}
	svc.log.Sugar().Infof("Configured source %s (%s routing)", id, routing)
	return src, nil
}

func (svc *Service) ListSources(ctx context.Context) (models.Sources, error) {
	var sources models.Sources
	tx := svc.db.Order("id").Find(&sources)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return sources, nil
}
