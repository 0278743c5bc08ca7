package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"backtest_bot/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// n одинаковых свечей с фиксированным диапазоном вокруг цены
func flatCandles(price, spread float64, n int) []models.Candle {
	out := make([]models.Candle, n)
	tm := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.Candle{
			Time:   tm.Add(time.Duration(i) * time.Hour),
			Open:   price,
			Close:  price,
			Low:    price - spread,
			High:   price + spread,
			Volume: 100,
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 4) {
		t.Fatalf("sma([3,4,5]) = %v, want 4", got)
	}

	if _, err := SMA([]float64{1, 2}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("short window: got %v, want ErrInsufficientData", err)
	}
	if _, err := SMA([]float64{1, 2, 3}, 0); !errors.Is(err, ErrBadParams) {
		t.Fatalf("zero period: got %v, want ErrBadParams", err)
	}
}

func TestEMA(t *testing.T) {
	// старт = sma([1,2,3]) = 2, k = 0.5, дальше 4,5,6 -> 3, 4, 5
	got, err := EMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 5) {
		t.Fatalf("ema = %v, want 5", got)
	}

	if _, err := EMA([]float64{1, 2, 3, 4, 5}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("len < 2*period: got %v, want ErrInsufficientData", err)
	}
}

func TestEMAConstantSeries(t *testing.T) {
	data := make([]float64, 20)
	for i := range data {
		data[i] = 42.5
	}
	got, err := EMA(data, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 42.5) {
		t.Fatalf("ema of constant series = %v, want 42.5", got)
	}
}

func TestSMMA(t *testing.T) {
	// старт = 2, дальше (2*2+4)/3, (x*2+5)/3, (x*2+6)/3 = 116/27
	got, err := SMMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 116.0/27.0) {
		t.Fatalf("smma = %v, want %v", got, 116.0/27.0)
	}
}

func TestRSI(t *testing.T) {
	got, err := RSI([]float64{1, 2, 3, 4}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 100) {
		t.Fatalf("rsi of pure gains = %v, want 100", got)
	}

	got, err = RSI([]float64{4, 3, 2, 1}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 0) {
		t.Fatalf("rsi of pure losses = %v, want 0", got)
	}

	// дельты +1, -1, +1: рост=2, падение=1, rs=2 -> 100 - 100/3
	got, err = RSI([]float64{1, 2, 1, 2}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 100-100.0/3.0) {
		t.Fatalf("rsi mixed = %v, want %v", got, 100-100.0/3.0)
	}
}

func TestMACDConstantSeries(t *testing.T) {
	data := make([]float64, 60)
	for i := range data {
		data[i] = 250
	}
	macd, signal, hist, err := MACD(data, 3, 6, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(macd, 0) || !almostEqual(signal, 0) || !almostEqual(hist, 0) {
		t.Fatalf("macd on flat series = (%v, %v, %v), want zeros", macd, signal, hist)
	}
}

func TestStochasticRisingSeries(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	k, d, err := Stochastic(data, 5, 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// последнее значение — максимум окна на любом сдвиге
	if !almostEqual(k, 100) || !almostEqual(d, 100) {
		t.Fatalf("stochastic on rising series = (%v, %v), want (100, 100)", k, d)
	}
}

func TestStochasticFlatWindow(t *testing.T) {
	data := []float64{5, 5, 5, 5, 5, 5, 5, 5}
	k, _, err := Stochastic(data, 5, 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(k, 0) {
		t.Fatalf("stochastic with zero range = %v, want 0", k)
	}
}

func TestBollingerFlatSeries(t *testing.T) {
	data := make([]float64, 12)
	for i := range data {
		data[i] = 5
	}
	middle, upper, lower, err := Bollinger(data, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(middle, 5) || !almostEqual(upper, 5) || !almostEqual(lower, 5) {
		t.Fatalf("bollinger on flat series = (%v, %v, %v), want all 5", middle, upper, lower)
	}
}

func TestTrueRange(t *testing.T) {
	if got := TrueRange(12, 10, 11); !almostEqual(got, 2) {
		t.Fatalf("inside bar: got %v, want 2", got)
	}
	// гэп вверх: доминирует |high - prevClose|
	if got := TrueRange(20, 19, 15); !almostEqual(got, 5) {
		t.Fatalf("gap up: got %v, want 5", got)
	}
	// гэп вниз: доминирует |low - prevClose|
	if got := TrueRange(11, 10, 15); !almostEqual(got, 5) {
		t.Fatalf("gap down: got %v, want 5", got)
	}
}

func TestATRFixedRange(t *testing.T) {
	candles := flatCandles(10, 1, 10)
	got, err := ATR(candles, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 2) {
		t.Fatalf("atr of fixed-range candles = %v, want 2", got)
	}

	if _, err := ATR(candles[:6], 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("short window: got %v, want ErrInsufficientData", err)
	}
}

func TestADXTrendingSeries(t *testing.T) {
	n := 60
	low := make([]float64, n)
	high := make([]float64, n)
	close := make([]float64, n)
	for i := 0; i < n; i++ {
		p := 100 + float64(i)
		low[i] = p - 1
		high[i] = p + 1
		close[i] = p
	}

	adx, plusDI, minusDI, err := ADX(low, high, close, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plusDI <= minusDI {
		t.Fatalf("uptrend: +DI=%v must exceed -DI=%v", plusDI, minusDI)
	}
	if adx < 0 || adx > 100 {
		t.Fatalf("adx out of range: %v", adx)
	}
	if adx < 25 {
		t.Fatalf("steady uptrend should read as a strong trend, adx=%v", adx)
	}
}

func TestDailyPivotPoints(t *testing.T) {
	day1 := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC)
	candles := []models.Candle{
		{Time: day1, Close: 9, Low: 8, High: 11},
		{Time: day1.Add(time.Hour), Close: 11, Low: 9, High: 12},
		{Time: day1.Add(2 * time.Hour), Close: 10, Low: 9, High: 10.5},
		{Time: day2, Close: 10.2, Low: 10, High: 10.4},
	}

	// прошлый день: high=12, low=8, close=10 -> p=10
	r1, s1, r2, s2, err := DailyPivotPoints(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(r1, 12) || !almostEqual(s1, 8) || !almostEqual(r2, 14) || !almostEqual(s2, 6) {
		t.Fatalf("pivots = (%v, %v, %v, %v), want (12, 8, 14, 6)", r1, s1, r2, s2)
	}

	if _, _, _, _, err := DailyPivotPoints(candles[3:]); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("single day: got %v, want ErrInsufficientData", err)
	}
}

func TestAlligatorFlatSeries(t *testing.T) {
	data := make([]float64, 40)
	for i := range data {
		data[i] = 7
	}
	gator, err := Alligator(data, 13, 8, 5, 8, 5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range gator {
		if !almostEqual(v, 7) {
			t.Fatalf("gator[%d] = %v, want 7", i, v)
		}
	}
}
