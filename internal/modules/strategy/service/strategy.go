package service

import (
	"sort"

	"backtest_bot/internal/indicator"
	"backtest_bot/internal/models"

	"github.com/pkg/errors"
)

// Strategy — одна торговая стратегия. Экземпляр живёт один прогон,
// поэтому состояние внутри стратегии (если оно есть) не утекает
// между комбинациями параметров.
type Strategy interface {
	Name() string

	// Decide смотрит на окно свечей (последняя — текущая) и отвечает,
	// что делать с позицией.
	Decide(candles []models.Candle, params []int, order *models.Order, instr *models.Instrument) (models.Decision, error)

	// ParamsOK отсекает бессмысленные комбинации при переборе сетки.
	ParamsOK(params []int) bool

	// SelfManaged — стратегия сама ведёт SL/TP и закрытие позиции,
	// контроллер не навешивает дефолтные стопы и restore-логику.
	SelfManaged() bool
}

const (
	NameMACross       = "strategy_MA_cross"
	NameMACrossSimple = "strategy_MA_cross_simple"
	NameMACrossSL     = "strategy_MA_cross_sl"
	NameMACrossSLTP   = "strategy_MA_cross_sl_tp"
	NameMAADXSL       = "strategy_MA_ADX_sl"
	NameMAVolume      = "strategy_MA_Volume"
	NameMAVolumeSL    = "strategy_MA_Volume_sl"
	NameEMACross      = "strategy_EMA_cross"
	NameEMACrossSimp  = "strategy_EMA_cross_simple"
	NameMACD          = "strategy_MACD"
	NameMACDSimple    = "strategy_MACD_simple"
	NameMACDSLTP      = "strategy_MACD_sl_tp"
	NameMACDRSI       = "strategy_MACD_RSI"
	NameMACDRSIZones  = "strategy_MACD_RSI_zones"
	NameADX           = "strategy_ADX"
	NameTrendPullback = "strategy_trend_pullback"
	NameRegimeSwitch  = "strategy_regime_switch"
	NameTrendFollow   = "strategy_trend_follow"
)

// base — общий кусок всех стратегий: доступ к индикаторам и дефолты.
type base struct {
	ind *indicator.Source
}

func (base) SelfManaged() bool { return false }

func (base) ParamsOK([]int) bool { return true }

// New — закрытая фабрика стратегий: только перечисленные имена,
// никакой регистрации извне.
func New(name string, ind *indicator.Source) (Strategy, error) {
	b := base{ind: ind}
	switch name {
	case NameMACross:
		return &MACross{b}, nil
	case NameMACrossSimple:
		return &MACrossSimple{b}, nil
	case NameMACrossSL:
		return &MACrossSL{b}, nil
	case NameMACrossSLTP:
		return &MACrossSLTP{b}, nil
	case NameMAADXSL:
		return &MAADXSL{MACrossSL{b}}, nil
	case NameMAVolume:
		return &MAVolume{b}, nil
	case NameMAVolumeSL:
		return &MAVolumeSL{b}, nil
	case NameEMACross:
		return &EMACross{b}, nil
	case NameEMACrossSimp:
		return &EMACrossSimple{b}, nil
	case NameMACD:
		return &MACD{b}, nil
	case NameMACDSimple:
		return &MACDSimple{b}, nil
	case NameMACDSLTP:
		return &MACDSLTP{b}, nil
	case NameMACDRSI:
		return &MACDRSI{b}, nil
	case NameMACDRSIZones:
		return &MACDRSIZones{base: b}, nil
	case NameADX:
		return &ADXTrend{b}, nil
	case NameTrendPullback:
		return &TrendPullback{b}, nil
	case NameRegimeSwitch:
		return &RegimeSwitch{b}, nil
	case NameTrendFollow:
		return &TrendFollow{b}, nil
	}
	return nil, errors.Errorf("unknown strategy %q", name)
}

// Names — все известные стратегии, отсортированные.
func Names() []string {
	names := []string{
		NameMACross, NameMACrossSimple, NameMACrossSL, NameMACrossSLTP,
		NameMAADXSL, NameMAVolume, NameMAVolumeSL,
		NameEMACross, NameEMACrossSimp,
		NameMACD, NameMACDSimple, NameMACDSLTP, NameMACDRSI, NameMACDRSIZones,
		NameADX, NameTrendPullback, NameRegimeSwitch, NameTrendFollow,
	}
	sort.Strings(names)
	return names
}

// crossParamsOK — быстрый период строго меньше медленного.
func crossParamsOK(params []int) bool {
	return len(params) >= 2 && params[0] < params[1]
}
