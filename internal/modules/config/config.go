package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"turbo_bot/internal/models"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDir         = "configs"
	defaultConfigFile = "values_local.yaml"
)

// Config ...
type Config struct {
	Service struct {
		Name      string `yaml:"name"`
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB string `yaml:"db_dsn"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`

	Broker struct {
		Driver         string        `yaml:"driver"` // paper | bridge
		URL            string        `yaml:"url"`
		Email          string        `yaml:"email"`
		Password       string        `yaml:"password"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		PaperSeed      int64         `yaml:"paper_seed"`
		PaperPayout    float64       `yaml:"paper_payout"`
	} `yaml:"broker"`

	Trading Trading `yaml:"trading"`

	Strategy Strategy `yaml:"strategy"`

	Retry struct {
		Attempts int           `yaml:"attempts"`
		Backoff  time.Duration `yaml:"backoff"`
	} `yaml:"retry"`

	Journal struct {
		Driver string `yaml:"driver"` // file | postgres | none
		Path   string `yaml:"path"`
	} `yaml:"journal"`
}

type Trading struct {
	Instrument        string        `yaml:"instrument"`
	TimeframeMinutes  int           `yaml:"timeframe_minutes"`
	AccountMode       string        `yaml:"account_mode"`
	BaseStake         float64       `yaml:"base_stake"`
	MaxReinvestStreak int           `yaml:"max_reinvest_streak"`
	StopGain          float64       `yaml:"stop_gain"`
	StopLoss          float64       `yaml:"stop_loss"`
	MaxCycles         int           `yaml:"max_cycles"`
	HistoryBars       int           `yaml:"history_bars"`
	SettlementGrace   time.Duration `yaml:"settlement_grace"`
	SyncBuffer        time.Duration `yaml:"sync_buffer"`
	FaultDelay        time.Duration `yaml:"fault_delay"`
}

func (t Trading) Timeframe() time.Duration {
	return time.Duration(t.TimeframeMinutes) * time.Minute
}

func (t Trading) Mode() models.AccountMode {
	m, err := models.ParseAccountMode(t.AccountMode)
	if err != nil {
		return models.AccountPractice
	}
	return m
}

type Strategy struct {
	FastPeriod    int     `yaml:"fast_period"`
	SlowPeriod    int     `yaml:"slow_period"`
	RSIPeriod     int     `yaml:"rsi_period"`
	BullThreshold float64 `yaml:"bull_threshold"`
	BearThreshold float64 `yaml:"bear_threshold"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "turbo_bot")
	v.SetDefault("service.host", "")
	v.SetDefault("service.admin_port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("db_dsn", "")

	v.SetDefault("tracing.host", "")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("broker.driver", "paper")
	v.SetDefault("broker.url", "ws://127.0.0.1:8765/ws")
	v.SetDefault("broker.email", "")
	v.SetDefault("broker.password", "")
	v.SetDefault("broker.request_timeout", "15s")
	v.SetDefault("broker.paper_seed", 1)
	v.SetDefault("broker.paper_payout", 0.8)

	v.SetDefault("trading.instrument", "EURUSD")
	v.SetDefault("trading.timeframe_minutes", 1)
	v.SetDefault("trading.account_mode", string(models.AccountPractice))
	v.SetDefault("trading.base_stake", 2.0)
	v.SetDefault("trading.max_reinvest_streak", 2)
	v.SetDefault("trading.stop_gain", 50.0)
	v.SetDefault("trading.stop_loss", 30.0)
	v.SetDefault("trading.max_cycles", 1000)
	v.SetDefault("trading.history_bars", 50)
	v.SetDefault("trading.settlement_grace", "10s")
	v.SetDefault("trading.sync_buffer", "1s")
	v.SetDefault("trading.fault_delay", "5s")

	v.SetDefault("strategy.fast_period", 5)
	v.SetDefault("strategy.slow_period", 12)
	v.SetDefault("strategy.rsi_period", 14)
	v.SetDefault("strategy.bull_threshold", 50.0)
	v.SetDefault("strategy.bear_threshold", 50.0)

	v.SetDefault("retry.attempts", 5)
	v.SetDefault("retry.backoff", "1s")

	v.SetDefault("journal.driver", "file")
	v.SetDefault("journal.path", "journal.ndjson")
}

// исторические имена переменных окружения
func bindLegacyEnv(v *viper.Viper) error {
	binds := map[string]string{
		"telegram.token":  "TELEGRAM_TOKEN",
		"db_dsn":          "DATABASE_DSN",
		"broker.email":    "IQ_EMAIL",
		"broker.password": "IQ_PASSWORD",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return errors.Wrapf(err, "bind env %s", env)
		}
	}
	return nil
}

func NewConfig() (*Config, error) {
	// .env с кредами необязателен
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(filepath.Join(configDir, configFileName))
}

// Load: дефолты < yaml-файл (если есть) < окружение.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat config %s", path)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	t := c.Trading
	s := c.Strategy

	switch {
	case strings.TrimSpace(t.Instrument) == "":
		return errors.New("trading.instrument is empty")
	case t.TimeframeMinutes <= 0:
		return errors.Errorf("trading.timeframe_minutes must be > 0, got %d", t.TimeframeMinutes)
	case t.BaseStake <= 0:
		return errors.Errorf("trading.base_stake must be > 0, got %v", t.BaseStake)
	case t.MaxReinvestStreak < 1:
		return errors.Errorf("trading.max_reinvest_streak must be >= 1, got %d", t.MaxReinvestStreak)
	case t.StopGain <= 0 || t.StopLoss <= 0:
		return errors.Errorf("trading.stop_gain/stop_loss must be positive, got %v/%v", t.StopGain, t.StopLoss)
	case t.MaxCycles <= 0:
		return errors.Errorf("trading.max_cycles must be > 0, got %d", t.MaxCycles)
	case t.HistoryBars <= 0:
		return errors.Errorf("trading.history_bars must be > 0, got %d", t.HistoryBars)
	case s.FastPeriod <= 0 || s.SlowPeriod <= 0 || s.RSIPeriod <= 0:
		return errors.New("strategy periods must be positive")
	case s.FastPeriod >= s.SlowPeriod:
		return errors.Errorf("strategy.fast_period (%d) must be < slow_period (%d)", s.FastPeriod, s.SlowPeriod)
	case c.Retry.Attempts < 1:
		return errors.Errorf("retry.attempts must be >= 1, got %d", c.Retry.Attempts)
	}

	if _, err := models.ParseAccountMode(t.AccountMode); err != nil {
		return errors.Wrap(err, "trading.account_mode")
	}

	switch c.Broker.Driver {
	case "paper", "bridge":
	default:
		return errors.Errorf("broker.driver must be paper|bridge, got %q", c.Broker.Driver)
	}

	switch c.Journal.Driver {
	case "file", "postgres", "none":
	default:
		return errors.Errorf("journal.driver must be file|postgres|none, got %q", c.Journal.Driver)
	}
	if c.Journal.Driver == "postgres" && c.DB == "" {
		return errors.New("journal.driver=postgres requires db_dsn")
	}
	return nil
}

// Dump эффективный конфиг в yaml без секретов.
func (c *Config) Dump() string {
	cp := *c
	if cp.Telegram.Token != "" {
		cp.Telegram.Token = "***"
	}
	if cp.Broker.Password != "" {
		cp.Broker.Password = "***"
	}
	if cp.DB != "" {
		cp.DB = "***"
	}
	out, err := yaml.Marshal(&cp)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
