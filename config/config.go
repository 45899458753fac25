package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env            string `env:"ENVIRONMENT"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"noticewatch.sqlite"`

	Pipeline struct {
		IntervalMins    int    `env:"POLL_INTERVAL_MINS" envDefault:"30"`
		Timezone        string `env:"PIPELINE_TIMEZONE" envDefault:"Asia/Seoul"`
		CallTimeoutSecs int    `env:"EXTERNAL_CALL_TIMEOUT_SECS" envDefault:"20"`
	}
	Push struct {
		GatewayURL string `env:"PUSH_GATEWAY_URL" envDefault:"https://exp.host/--/api/v2/push/send"`
		BatchSize  int    `env:"PUSH_BATCH_SIZE" envDefault:"100"`
	}
	Vision struct {
		Endpoint string `env:"VISION_ENDPOINT" envDefault:"https://vision.googleapis.com/v1/images:annotate"`
		APIKey   string `env:"VISION_API_KEY"`
	}
	OpenAI struct {
		Endpoint string `env:"OPENAI_ENDPOINT" envDefault:"https://api.openai.com/v1/chat/completions"`
		APIKey   string `env:"OPENAI_API_KEY"`
		Model    string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	}
	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	env.Parse(cfg)

	creds, err := cfg.parseCreds()
	if err != nil {
		if cfg.Env != "production" {
			cfg.log.Sugar().Infof("%s (credentials will be set to default in development env)", err)
			creds = map[string]string{"admin": "password"}
		} else {
			cfg.log.Sugar().Panic(err)
		}
	}
	cfg.creds = creds

	return cfg
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, errors.New("BASIC_AUTH_CREDS envvar must be populated")
	}

	creds := strings.Split(cfg.BasicAuthCreds, ",")
	if len(creds) == 0 {
		return nil, errors.New("BASIC_AUTH_CREDS envvar should be filled with comma-separated values -- user1:pass1,user2:pass2")
	}

	result := make(map[string]string)
	for _, cred := range creds {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
