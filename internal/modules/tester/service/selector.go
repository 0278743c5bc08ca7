package service

import (
	"sort"
	"time"

	"backtest_bot/pkg/logger"
)

const (
	minOrdersDefault      = 5
	minOrdersShortPeriod  = 2
	topReportsByProfit    = 20
	weightMultiplierKoef  = 1.0272
	weightMultiplierSteps = 101
)

// sortByProfitability — устойчивая сортировка по убыванию доходности.
func sortByProfitability(reports []*Report) []*Report {
	sorted := append([]*Report(nil), reports...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Profitability > sorted[j].Profitability
	})
	return sorted
}

// ChooseBestProfit — самый доходный отчёт среди тех, где ордеров
// достаточно для доверия. Порог берётся из настроек (<=0 — дефолт).
// Nil, если даже лучший в минусе.
func ChooseBestProfit(reports []*Report, minOrders int) *Report {
	if minOrders <= 0 {
		minOrders = minOrdersDefault
	}

	sorted := sortByProfitability(reports)

	var top []*Report
	for _, r := range sorted {
		if r.NumOrders >= minOrders {
			top = append(top, r)
			if len(top) == topReportsByProfit {
				break
			}
		}
	}

	if len(top) == 0 {
		logger.Warn("choose best profit: no report with at least %d orders", minOrders)
		return nil
	}

	best := top[0]
	if best.Profitability <= 0 {
		return nil
	}

	logger.Info("choose best profit: profitability %.2f%%, orders %d (%d/%d), params %v, CAGR %.4f",
		best.Profitability, best.NumOrders, best.NumProfitOrders, best.NumLossOrders, best.Params, best.CAGR)
	return best
}

// ChooseBestReliable — доходность вторична, главное — доля прибыльных
// ордеров. На коротких периодах порог количества ордеров снижен.
func ChooseBestReliable(reports []*Report, numDays, minOrders, minProfitOrdPercent int) *Report {
	if minOrders <= 0 {
		minOrders = minOrdersDefault
	}
	if numDays > 0 && numDays <= 15 {
		minOrders = minOrdersShortPeriod
	}

	sorted := sortByProfitability(reports)
	for _, r := range sorted {
		if r.NumOrders < minOrders || r.Profitability <= 0 {
			continue
		}
		if r.ProfitOrdersPercent >= float64(minProfitOrdPercent) {
			logger.Info("choose best reliable: profitability %.2f%%, orders %d (%d/%d), params %v",
				r.Profitability, r.NumOrders, r.NumProfitOrders, r.NumLossOrders, r.Params)
			return r
		}
	}

	logger.Warn("choose best reliable: not enough orders")
	return nil
}

var weightMultipliers = func() [weightMultiplierSteps]float64 {
	var m [weightMultiplierSteps]float64
	m[0] = 1
	for i := 1; i < weightMultiplierSteps; i++ {
		m[i] = m[i-1] * weightMultiplierKoef
	}
	return m
}()

// profitMultiplierExp — экспоненциальный вес: чем ближе закрытие ордера
// к концу периода, тем дороже его результат.
func profitMultiplierExp(start, end, orderTime time.Time) float64 {
	total := end.Sub(start).Seconds()
	if total <= 0 {
		return 1
	}
	index := int(100 * orderTime.Sub(start).Seconds() / total)
	if index < 0 {
		index = 0
	}
	if index >= weightMultiplierSteps {
		index = weightMultiplierSteps - 1
	}
	return weightMultipliers[index]
}

// ChooseBestWeighted перевзвешивает прибыли ордеров по времени закрытия
// и выбирает лучший по профиту. Работает на копиях: исходные отчёты
// не меняются.
func ChooseBestWeighted(reports []*Report, start, end time.Time, minOrders int) *Report {
	weighted := make([]*Report, len(reports))
	for i, r := range reports {
		cp := r.Clone()
		for j := range cp.Orders {
			cp.Orders[j].Profit *= profitMultiplierExp(start, end, cp.Orders[j].CloseTime)
		}
		cp.Generate()
		weighted[i] = cp
	}
	return ChooseBestProfit(weighted, minOrders)
}
