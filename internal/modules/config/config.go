package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// ParamRange — диапазон перебора одного параметра стратегии.
// Max не включается (полуинтервал [Min, Max) с шагом Step).
type ParamRange struct {
	Name string `yaml:"name"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
	Step int    `yaml:"step"`
}

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Candles struct {
		Ticker   string `yaml:"ticker"`
		Num      int    `yaml:"num"`
		Interval string `yaml:"interval"`
		EndDate  string `yaml:"end_date"` // "now" или DD-MM-YYYY
	} `yaml:"candles"`

	Strategy struct {
		Name          string       `yaml:"name"`
		Selection     string       `yaml:"selection"` // Profit | Reliable | Weighted
		Lots          int          `yaml:"lots"`
		ShortsEnabled bool         `yaml:"shorts_enabled"`
		Params        []ParamRange `yaml:"params"`
	} `yaml:"strategy"`

	Tester struct {
		StartCapital float64 `yaml:"start_capital"`
		DayStartUTC  int     `yaml:"day_start_utc"`
		DayEndUTC    int     `yaml:"day_end_utc"`
		// Спред в процентах от цены; 0 — брать спред инструмента.
		SpreadPercent float64 `yaml:"spread"`
		StrategyLog   bool    `yaml:"strategy_log"`
		NumDays       int     `yaml:"numdays"`
		Workers       int     `yaml:"workers"`
	} `yaml:"tester"`

	Tuning struct {
		// StopLoss/TakeProf: проценты цены, либо десятые доли ATR
		// при методе "atr" (15 => 1.5*ATR). 0 — выключено.
		StopLoss            int    `yaml:"stop_loss"`
		TakeProf            int    `yaml:"take_prof"`
		SLTPMethod          string `yaml:"sl_tp_method"` // percent | atr
		TrailStops          bool   `yaml:"trail_stops"`
		MinOrders           int    `yaml:"min_orders"`
		MinProfitOrdPercent int    `yaml:"min_profit_ord_percent"`
		CloseShortsOnDayEnd bool   `yaml:"close_shorts_on_day_end"`
		UseIndicatorCache   bool   `yaml:"use_indicator_cache"`
	} `yaml:"tuning"`

	Exchange struct {
		RestURL string `yaml:"rest_url"`
		WSURL   string `yaml:"ws_url"`
	} `yaml:"exchange"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Stats struct {
		Dir string `yaml:"dir"`
	} `yaml:"stats"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{}

	// дефолты до декода: yaml перетирает только то, что задано в файле
	config.Candles.Num = intFromEnv("CANDLES_NUM", 3000)
	config.Candles.Interval = getenvDefault("CANDLES_INTERVAL", "1hour")
	config.Candles.EndDate = "now"
	config.Strategy.Name = getenvDefault("STRATEGY_NAME", "strategy_MA_cross")
	config.Strategy.Selection = getenvDefault("STRATEGY_SELECTION", "Profit")
	config.Strategy.Lots = intFromEnv("LOTS", 1)
	config.Tester.StartCapital = floatFromEnv("START_CAPITAL", 100000)
	config.Tester.DayStartUTC = intFromEnv("DAY_START_UTC", 7)
	config.Tester.DayEndUTC = intFromEnv("DAY_END_UTC", 15)
	config.Tester.Workers = intFromEnv("TEST_WORKERS", 4)
	config.Tuning.SLTPMethod = getenvDefault("SL_TP_METHOD", "percent")
	config.Tuning.MinOrders = intFromEnv("MIN_ORDERS", 5)
	config.Tuning.MinProfitOrdPercent = intFromEnv("MIN_PROFIT_ORD_PERCENT", 75)
	config.Stats.Dir = getenvDefault("STATS_DIR", "data/stats")

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Candles.Ticker == "" {
		return fmt.Errorf("config: candles.ticker is required")
	}
	if c.Candles.Num <= 0 {
		return fmt.Errorf("config: candles.num must be positive, got %d", c.Candles.Num)
	}
	if len(c.Strategy.Params) == 0 {
		return fmt.Errorf("config: strategy.params is empty")
	}
	for _, p := range c.Strategy.Params {
		if p.Step <= 0 || p.Max <= p.Min {
			return fmt.Errorf("config: bad param range %q: [%d, %d) step %d", p.Name, p.Min, p.Max, p.Step)
		}
	}
	if c.Tester.Workers <= 0 {
		c.Tester.Workers = 1
	}
	return nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
