package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"backtest_bot/internal/models"
	"backtest_bot/internal/modules/config"
	strategysvc "backtest_bot/internal/modules/strategy/service"

	"backtest_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// Experiments разворачивает диапазоны параметров в декартово
// произведение. Правая граница не включается, комбинации отсекает
// сама стратегия через ParamsOK.
func Experiments(ranges []config.ParamRange, strat strategysvc.Strategy) [][]int {
	if len(ranges) == 0 {
		return nil
	}

	combos := [][]int{{}}
	for _, r := range ranges {
		var next [][]int
		for _, prefix := range combos {
			for v := r.Min; v < r.Max; v += r.Step {
				combo := make([]int, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, v))
			}
		}
		combos = next
	}

	filtered := combos[:0]
	for _, c := range combos {
		if strat.ParamsOK(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Optimize гоняет стратегию по всей сетке параметров пулом воркеров.
// Возвращает отчёты, отсортированные по убыванию доходности.
// Прогоны, которым не хватило истории, пропускаются с предупреждением.
func (t *Tester) Optimize(ctx context.Context, candles []models.Candle) ([]*Report, error) {
	name := t.conf.Strategy.Name
	probe, err := strategysvc.New(name, t.ind)
	if err != nil {
		return nil, err
	}

	experiments := Experiments(t.conf.Strategy.Params, probe)
	logger.Info("optimize: strategy %s, %d experiments, %d workers", name, len(experiments), t.conf.Tester.Workers)

	parentSpan, spanCtx := opentracing.StartSpanFromContext(ctx, "optimize")
	parentSpan.SetTag("strategy", name)
	parentSpan.SetTag("experiments", len(experiments))
	defer parentSpan.Finish()

	type job struct {
		idx    int
		params []int
	}

	jobs := make(chan job)
	reports := make([]*Report, len(experiments))

	workers := t.conf.Tester.Workers
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	var done int64
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				span, _ := opentracing.StartSpanFromContext(spanCtx, "strategy_single_run")
				span.SetTag("params", fmt.Sprint(j.params))

				report, err := t.SingleRun(candles, name, j.params)
				if err != nil {
					logger.Warn("optimize: run %v skipped: %v", j.params, err)
					span.SetTag("error", true)
					span.Finish()
					continue
				}
				reports[j.idx] = report
				span.Finish()

				mu.Lock()
				done++
				if done%200 == 0 {
					logger.Info("optimize: %d of %d experiments done", done, len(experiments))
				}
				mu.Unlock()
			}
		}()
	}

	for i, params := range experiments {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- job{idx: i, params: params}:
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]*Report, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profitability > out[j].Profitability
	})
	return out, nil
}
