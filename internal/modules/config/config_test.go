package config

import "testing"

func validConfig() *Config {
	c := &Config{}
	c.Candles.Ticker = "SBER"
	c.Candles.Num = 3000
	c.Strategy.Params = []ParamRange{{Name: "ma_fast", Min: 5, Max: 50, Step: 5}}
	c.Tester.Workers = 4
	return c
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequiresTicker(t *testing.T) {
	c := validConfig()
	c.Candles.Ticker = ""
	if err := c.validate(); err == nil {
		t.Fatal("empty ticker must be rejected")
	}
}

func TestValidateRequiresParams(t *testing.T) {
	c := validConfig()
	c.Strategy.Params = nil
	if err := c.validate(); err == nil {
		t.Fatal("empty param grid must be rejected")
	}
}

func TestValidateRejectsBadRange(t *testing.T) {
	c := validConfig()
	c.Strategy.Params = []ParamRange{{Name: "ma_fast", Min: 50, Max: 5, Step: 5}}
	if err := c.validate(); err == nil {
		t.Fatal("inverted range must be rejected")
	}

	c.Strategy.Params = []ParamRange{{Name: "ma_fast", Min: 5, Max: 50, Step: 0}}
	if err := c.validate(); err == nil {
		t.Fatal("zero step must be rejected")
	}
}

func TestValidateFixesWorkers(t *testing.T) {
	c := validConfig()
	c.Tester.Workers = 0
	if err := c.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Tester.Workers != 1 {
		t.Fatalf("workers = %d, want fallback 1", c.Tester.Workers)
	}
}
