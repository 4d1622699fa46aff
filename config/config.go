package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del proceso.
type Config struct {
	Hedge   HedgeConfig   `yaml:"hedge"`
	Paradex ParadexConfig `yaml:"paradex"`
	Lighter LighterConfig `yaml:"lighter"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// HedgeConfig lleva los knobs iniciales de la política de hedge. Threshold e
// interval pueden cambiarse en runtime con comandos de operador; estos son
// solo valores de arranque.
type HedgeConfig struct {
	ThresholdPct      float64  `yaml:"threshold_pct"`       // banda muerta, porcentaje de |target|, (0,100]
	IntervalSeconds   int      `yaml:"interval_seconds"`    // cadencia de chequeo en modo continuo
	PriceTolerancePct float64  `yaml:"price_tolerance_pct"` // banda de peor precio alrededor del spot, (0,5]
	Underlyings       []string `yaml:"underlyings"`         // símbolos spot hedgeables
}

// ParadexConfig apunta al venue de opciones usado para los greeks.
type ParadexConfig struct {
	BaseURL string `yaml:"base_url"`
}

// LighterConfig apunta al venue spot usado para precios, inventario y
// ejecución de órdenes. APIKeyPrivateKey se lee solo del entorno.
type LighterConfig struct {
	BaseURL          string         `yaml:"base_url"`
	AccountIndex     int            `yaml:"account_index"`
	APIKeyIndex      int            `yaml:"api_key_index"`
	Markets          map[string]int `yaml:"markets"` // símbolo → market id del venue
	APIKeyPrivateKey string         `yaml:"-"`
}

// StorageConfig controla dónde se persisten posiciones e historial de órdenes.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta del archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load lee el archivo de config YAML y el .env si está presente. Las
// variables de entorno pisan las claves YAML correspondientes.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// HedgeInterval devuelve el intervalo de polling inicial como time.Duration.
func (c *Config) HedgeInterval() time.Duration {
	return time.Duration(c.Hedge.IntervalSeconds) * time.Second
}

func (c *Config) validate() error {
	if c.Hedge.ThresholdPct <= 0 || c.Hedge.ThresholdPct > 100 {
		return fmt.Errorf("hedge.threshold_pct must be in (0,100], got %v", c.Hedge.ThresholdPct)
	}
	if c.Hedge.PriceTolerancePct <= 0 || c.Hedge.PriceTolerancePct > 5 {
		return fmt.Errorf("hedge.price_tolerance_pct must be in (0,5], got %v", c.Hedge.PriceTolerancePct)
	}
	if c.Hedge.IntervalSeconds < 1 {
		return fmt.Errorf("hedge.interval_seconds must be >= 1, got %d", c.Hedge.IntervalSeconds)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LIGHTER_BASE_URL"); v != "" {
		cfg.Lighter.BaseURL = v
	}
	if v := os.Getenv("API_KEY_PRIVATE_KEY"); v != "" {
		cfg.Lighter.APIKeyPrivateKey = v
	}
	if v := os.Getenv("ACCOUNT_INDEX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lighter.AccountIndex = n
		}
	}
	if v := os.Getenv("API_KEY_INDEX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lighter.APIKeyIndex = n
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Hedge.ThresholdPct == 0 {
		cfg.Hedge.ThresholdPct = 5.0
	}
	if cfg.Hedge.IntervalSeconds == 0 {
		cfg.Hedge.IntervalSeconds = 10
	}
	if cfg.Hedge.PriceTolerancePct == 0 {
		cfg.Hedge.PriceTolerancePct = 1.0
	}
	if len(cfg.Hedge.Underlyings) == 0 {
		cfg.Hedge.Underlyings = []string{"ETH", "BTC", "SOL", "HYPE"}
	}
	if cfg.Paradex.BaseURL == "" {
		cfg.Paradex.BaseURL = "https://api.prod.paradex.trade/v1"
	}
	if cfg.Lighter.BaseURL == "" {
		cfg.Lighter.BaseURL = "https://mainnet.zklighter.elliot.ai/api/v1"
	}
	if len(cfg.Lighter.Markets) == 0 {
		cfg.Lighter.Markets = map[string]int{"ETH": 0, "BTC": 1, "SOL": 2, "HYPE": 24}
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "optionhedge.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
