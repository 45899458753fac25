package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fiffu/noticewatch/config"
	"github.com/fiffu/noticewatch/lib/enrich"
	"github.com/fiffu/noticewatch/lib/models"
	"github.com/fiffu/noticewatch/senders"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Source{},
		&models.Notice{},
		&models.Watermark{},
		&models.Recipient{},
		&models.Delivery{},
	))

	t.Cleanup(func() {
		db.Exec("DELETE FROM sources")
		db.Exec("DELETE FROM notices")
		db.Exec("DELETE FROM watermarks")
		db.Exec("DELETE FROM recipients")
		db.Exec("DELETE FROM deliveries")
	})
	return db
}

func newTestPipeline(t *testing.T, db *gorm.DB, reg senders.Registry) *Pipeline {
	t.Helper()

	cfg := &config.Config{}
	cfg.Push.BatchSize = 100
	cfg.Pipeline.CallTimeoutSecs = 5
	// Unreachable enrichment endpoints: every summary degrades to the subject.
	cfg.Vision.Endpoint = "http://127.0.0.1:1"
	cfg.OpenAI.Endpoint = "http://127.0.0.1:1"

	log := zap.NewNop()
	return &Pipeline{
		cfg:         cfg,
		log:         log,
		db:          db,
		transport:   http.DefaultTransport,
		enricher:    enrich.NewEnricher(cfg, log, http.DefaultTransport),
		senders:     reg,
		loc:         time.UTC,
		interval:    time.Minute,
		callTimeout: 5 * time.Second,
		batchSize:   cfg.Push.BatchSize,
	}
}

func serveFeed(t *testing.T, payload string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seedRecipient(t *testing.T, db *gorm.DB, address, department string, keywords []string) {
	t.Helper()

	require.NoError(t, db.Create(&models.Recipient{
		Platform:   models.PlatformExpo,
		Address:    address,
		Department: department,
		Keywords:   keywords,
	}).Error)
}

type fakeSender struct {
	mu       sync.Mutex
	batches  [][]string
	payloads []senders.Payload
	invalid  map[string]bool
	fail     bool
}

func (f *fakeSender) ValidAddress(address string) bool {
	return address != "" && !f.invalid[address]
}

func (f *fakeSender) Send(ctx context.Context, addresses []string, payload senders.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("gateway down")
	}
	batch := make([]string, len(addresses))
	copy(batch, addresses)
	f.batches = append(f.batches, batch)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSender) sentAddresses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, batch := range f.batches {
		out = append(out, batch...)
	}
	return out
}
