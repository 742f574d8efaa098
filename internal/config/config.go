package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/Zhima-Mochi/minishop-storebot/internal/domain/payment"
)

const (
	DefaultConfigName = "storebot"
)

var (
	ErrMissingToken = errors.New("config: telegram.bot_token is required")
	ErrInvalid      = errors.New("config: invalid value")
)

type Config struct {
	Service        ServiceConfig     `mapstructure:"service"`
	Log            LogConfig         `mapstructure:"log"`
	Telegram       TelegramConfig    `mapstructure:"telegram"`
	Admin          AdminConfig       `mapstructure:"admin"`
	HTTP           HTTPConfig        `mapstructure:"http"`
	Catalog        CatalogConfig     `mapstructure:"catalog"`
	Notify         NotifyConfig      `mapstructure:"notify"`
	RabbitMQ       RabbitMQConfig    `mapstructure:"rabbitmq"`
	Shop           ShopConfig        `mapstructure:"shop"`
	PaymentMethods map[string]string `mapstructure:"payment_methods"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, receives a copy of every log line (LOG_FILE).
	File string `mapstructure:"file"`
}

type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	PollTimeout int    `mapstructure:"poll_timeout"`
	Debug       bool   `mapstructure:"debug"`
}

type AdminConfig struct {
	// IDs accepts a YAML list or a comma separated string (ADMIN_IDS).
	IDs []int64 `mapstructure:"-"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type CatalogConfig struct {
	SeedFile   string `mapstructure:"seed_file"`
	SampleData bool   `mapstructure:"sample_data"`
}

type NotifyConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type ShopConfig struct {
	Name    string `mapstructure:"name"`
	Contact string `mapstructure:"contact"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "storebot")
	v.SetDefault("service.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("admin.ids", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("catalog.seed_file", "")
	v.SetDefault("catalog.sample_data", true)
	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.retry_delay", "500ms")
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "storebot.events")
	v.SetDefault("shop.name", "Yene Gebeya")
	v.SetDefault("shop.contact", "@Ztech7 or 0915794686")
	v.SetDefault("payment_methods", map[string]string{
		"telebirr": "Telebirr: 0915794686 / 091283132",
		"mpesa":    "M-Pesa: 0777991328",
		"cbe":      "CBE: 1000463082085 Hana Tasew",
		"dashen":   "Dashen Bank: (Send to admin)",
		"coop":     "Coop Bank: 1000082245867 Hana Tasew",
	})
}

// Load reads defaults, then the config file, then the environment. An empty
// path searches for storebot.yaml in the working directory and /etc/storebot;
// a missing file is not an error in that case.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/storebot/")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("service.env", "SERVICE_ENV", "ENV")
	_ = v.BindEnv("log.file", "LOG_FILE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	ids, err := parseIDs(v.Get("admin.ids"))
	if err != nil {
		return nil, err
	}
	cfg.Admin.IDs = ids
	return &cfg, nil
}

func parseIDs(raw any) ([]int64, error) {
	var parts []string
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		parts = strings.Split(t, ",")
	default:
		s, err := cast.ToStringSliceE(t)
		if err != nil {
			return nil, fmt.Errorf("%w: admin.ids: %v", ErrInvalid, err)
		}
		parts = s
	}

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := cast.ToInt64E(strings.TrimLeft(p, "0"))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: admin id %q", ErrInvalid, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Payments builds the payment directory, rejecting unknown method keys.
func (c *Config) Payments() (payment.Directory, error) {
	d, err := payment.NewDirectory(c.PaymentMethods)
	if err != nil {
		return nil, fmt.Errorf("%w: payment_methods: %w", ErrInvalid, err)
	}
	return d, nil
}

// Validate checks the settings the service cannot start without. The bot
// token is only required when the service is going to connect.
func (c *Config) Validate(requireToken bool) error {
	if requireToken && strings.TrimSpace(c.Telegram.BotToken) == "" {
		return ErrMissingToken
	}
	if _, err := c.Payments(); err != nil {
		return err
	}
	if c.Notify.MaxAttempts < 1 {
		return fmt.Errorf("%w: notify.max_attempts must be at least 1", ErrInvalid)
	}
	if c.Notify.RetryDelay < 0 {
		return fmt.Errorf("%w: notify.retry_delay must not be negative", ErrInvalid)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format must be json or console", ErrInvalid)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr is required", ErrInvalid)
	}
	return nil
}
