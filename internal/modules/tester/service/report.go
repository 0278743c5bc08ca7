package service

import (
	"math"
	"time"

	"backtest_bot/internal/models"
)

// workDaysRate — примерное отношение торговых дней к календарным.
const workDaysRate = 0.67

// TickLog — снимок одного тика прогона для CSV-отчёта.
type TickLog struct {
	Candle     models.Candle
	Indicators [4]float64
	Params     []int
	Cmd        models.Command
	Reason     models.Reason
	SL         float64
	TP         float64
	Action     models.Action
}

// StrategyLog — потиковый лог одного прогона.
type StrategyLog struct {
	Ticks []TickLog
}

func (l *StrategyLog) Add(t TickLog) {
	t.Params = append([]int(nil), t.Params...)
	l.Ticks = append(l.Ticks, t)
}

// Report — итог одного прогона стратегии на фиксированных параметрах.
// Orders — неизменяемые снимки закрытых позиций.
type Report struct {
	NumOrders           int
	NumProfitOrders     int
	NumLossOrders       int
	TotalProfit         float64
	ProfitOrdersPercent float64
	Profitability       float64 // сумма процентов прибыли по всем ордерам

	StartDate    time.Time
	EndDate      time.Time
	StartCapital float64
	EndCapital   float64

	Orders []models.Order
	Params []int
	Log    *StrategyLog

	CAGR         float64
	MeanReturn   float64
	StdReturn    float64
	Sharpe       float64
	ProfitFactor float64
	MaxDD        float64
}

func NewReport(orders []models.Order, params []int, startCapital float64, log *StrategyLog, start, end time.Time) *Report {
	return &Report{
		StartDate:    start,
		EndDate:      end,
		StartCapital: startCapital,
		Orders:       orders,
		Params:       append([]int(nil), params...),
		Log:          log,
	}
}

// Generate пересчитывает агрегаты с нуля — отчёт можно регенерировать
// после перевзвешивания прибылей.
func (r *Report) Generate() {
	r.NumOrders = 0
	r.NumProfitOrders = 0
	r.NumLossOrders = 0
	r.TotalProfit = 0
	r.Profitability = 0
	r.ProfitOrdersPercent = 0
	r.EndCapital = r.StartCapital

	if len(r.Orders) == 0 {
		return
	}

	r.NumOrders = len(r.Orders)
	for _, o := range r.Orders {
		if o.Profit > 0 {
			r.NumProfitOrders++
		} else if o.Profit < 0 {
			r.NumLossOrders++
		}
		r.TotalProfit += o.Profit
		r.Profitability += math.Round(100*o.Profit/o.OpenPrice*100) / 100
	}
	r.ProfitOrdersPercent = 100 * float64(r.NumProfitOrders) / float64(r.NumOrders)
	r.EndCapital = r.StartCapital + r.TotalProfit
}

// ComputeMetrics — KPI поверх сгенерированного отчёта.
func (r *Report) ComputeMetrics() {
	r.computeCAGR()
	r.computeSharpe()
	r.computeProfitFactor()
	r.computeMaxDrawdown()
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// days — все календарные дни периода по порядку.
func (r *Report) days() []time.Time {
	var out []time.Time
	for d := dateOnly(r.StartDate); !d.After(dateOnly(r.EndDate)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (r *Report) computeCAGR() {
	years := r.EndDate.Sub(r.StartDate).Hours() / 24 / 365
	if years < 1.0/365 {
		years = 1.0 / 365
	}
	if r.StartCapital <= 0 || r.EndCapital <= 0 {
		// капитал слит в ноль, степенная формула не определена
		r.CAGR = -1
		return
	}
	r.CAGR = math.Pow(r.EndCapital/r.StartCapital, 1/years) - 1
}

// computeSharpe — дневные доходности с нулями в пустые дни,
// годовая нормировка через workDaysRate.
func (r *Report) computeSharpe() {
	const riskFreeRate = 0.0
	periodsPerYear := 365 / workDaysRate

	days := r.days()
	returns := make(map[time.Time]float64, len(days))
	for _, d := range days {
		returns[d] = 0
	}
	for _, o := range r.Orders {
		d := dateOnly(o.CloseTime)
		returns[d] += o.Profit / (o.OpenPrice * float64(o.Lots))
	}

	if len(days) < 2 {
		r.Sharpe = 0
		return
	}

	var sum float64
	for _, d := range days {
		sum += returns[d]
	}
	r.MeanReturn = sum / float64(len(days))

	var variance float64
	for _, d := range days {
		diff := returns[d] - r.MeanReturn
		variance += diff * diff
	}
	r.StdReturn = math.Sqrt(variance / float64(len(days)-1))

	if r.StdReturn == 0 {
		r.Sharpe = 0
		return
	}
	excess := r.MeanReturn - riskFreeRate/periodsPerYear
	r.Sharpe = excess / r.StdReturn * math.Sqrt(periodsPerYear)
}

func (r *Report) computeProfitFactor() {
	var sumProfit, sumLoss float64
	for _, o := range r.Orders {
		if o.Profit > 0 {
			sumProfit += o.Profit
		} else if o.Profit < 0 {
			sumLoss += o.Profit
		}
	}
	if sumLoss == 0 {
		if sumProfit > 0 {
			r.ProfitFactor = math.Inf(1)
		} else {
			r.ProfitFactor = 0
		}
		return
	}
	r.ProfitFactor = sumProfit / math.Abs(sumLoss)
}

func (r *Report) computeMaxDrawdown() {
	days := r.days()
	daily := make(map[time.Time]float64, len(days))
	for _, o := range r.Orders {
		daily[dateOnly(o.CloseTime)] += o.Profit
	}

	equities := make([]float64, len(days))
	prev := r.StartCapital
	for i, d := range days {
		equities[i] = prev + daily[d]
		prev = equities[i]
	}

	maxDD := 0.0
	peak := math.Inf(-1)
	for _, eq := range equities {
		if eq > peak {
			peak = eq
		}
		if peak != 0 {
			if dd := (eq - peak) / peak; dd < maxDD {
				maxDD = dd
			}
		}
	}
	r.MaxDD = maxDD
}

// Clone — глубокая копия отчёта: селекторы перевзвешивают прибыли
// на копиях, исходные отчёты остаются нетронутыми.
func (r *Report) Clone() *Report {
	cp := *r
	cp.Params = append([]int(nil), r.Params...)
	cp.Orders = make([]models.Order, len(r.Orders))
	for i := range r.Orders {
		cp.Orders[i] = r.Orders[i].Snapshot()
	}
	return &cp
}
