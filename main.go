package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/noticewatch/app"
	"github.com/fiffu/noticewatch/config"
	"github.com/fiffu/noticewatch/lib/enrich"
	"github.com/fiffu/noticewatch/lib/pipeline"
	"github.com/fiffu/noticewatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(enrich.NewEnricher),
		fx.Provide(pipeline.NewPipeline),
		fx.Provide(app.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*pipeline.Pipeline) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
