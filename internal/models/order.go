package models

import (
	"math"
	"time"
)

// BrokerFee — комиссия брокера с каждой ноги сделки (доля от нотионала).
const BrokerFee = 0.0005

// OrderDir — направление позиции.
type OrderDir string

const (
	DirNone OrderDir = ""
	DirBuy  OrderDir = "BUY"
	DirSell OrderDir = "SELL"
)

// OrderStatus — у позиции ровно два состояния.
type OrderStatus string

const (
	StatusOpen   OrderStatus = "OPEN"
	StatusClosed OrderStatus = "CLOSED"
)

// Command — что стратегия просит сделать на текущем тике.
type Command string

const (
	CmdNone      Command = ""
	CmdOpenBuy   Command = "Open BUY"
	CmdOpenSell  Command = "Open SELL"
	CmdCloseBuy  Command = "Close BUY"
	CmdCloseSell Command = "Close SELL"
	CmdCloseAll  Command = "Close ALL"
)

// Reason — почему ордер открылся/закрылся.
type Reason string

const (
	ReasonUnspecified Reason = "Unspecified"
	ReasonChangeDir   Reason = "Change Dir"
	ReasonStopLoss    Reason = "SL"
	ReasonTakeProfit  Reason = "TP"
	ReasonEndDay      Reason = "End Day"
	ReasonEndTrend    Reason = "End Trend"
	ReasonNewTrend    Reason = "New Trend"
	ReasonContinue    Reason = "Continue Trend"
	ReasonRestore     Reason = "Restore"
)

// Action — что фактически произошло с ордером после применения команды.
type Action string

const (
	DidNothing       Action = "Did Nothing"
	OpenedBuy        Action = "Opened BUY"
	OpenedSell       Action = "Opened SELL"
	ChangedDirToBuy  Action = "Changed dir to BUY"
	ChangedDirToSell Action = "Changed dir to SELL"
	ClosedBuy        Action = "Closed BUY"
	ClosedSell       Action = "Closed SELL"
	ClosedBuySL      Action = "Closed BUY SL"
	ClosedBuyTP      Action = "Closed BUY TP"
	ClosedSellSL     Action = "Closed SELL SL"
	ClosedSellTP     Action = "Closed SELL TP"
)

// Trend — подсказка стратегии о направлении рынка (для логов).
type Trend string

const (
	TrendUnspecified Trend = "UNSPECIFIED"
	TrendUp          Trend = "UP"
	TrendDown        Trend = "DOWN"
	TrendFlat        Trend = "FLAT"
)

// Order — живая позиция бэктеста. На один прогон существует ровно один
// экземпляр: открывается, закрывается (снимок уходит в историю) и
// переиспользуется для следующей позиции.
type Order struct {
	Direction  OrderDir
	Status     OrderStatus
	Lots       int
	OpenPrice  float64
	ClosePrice float64
	OpenTime   time.Time
	CloseTime  time.Time
	SL         float64
	TP         float64
	Params     []int
	Reason     Reason
	LastAction Action

	Profit        float64
	ProfitPercent float64
}

// NewOrder — закрытый «пустой» ордер, готовый к первому Open.
func NewOrder() *Order {
	return &Order{
		Direction:  DirNone,
		Status:     StatusClosed,
		Lots:       1,
		ClosePrice: -1,
		SL:         -1,
		TP:         -1,
		Params:     []int{-1, -1, -1, -1},
		Reason:     ReasonUnspecified,
		LastAction: DidNothing,
	}
}

// Open открывает позицию по цене закрытия свечи. Если позиция уже открыта —
// no-op: инвариант «не больше одной живой позиции» держится здесь.
func (o *Order) Open(direction OrderDir, candle Candle, sl, tp float64, reason Reason, lots int, params []int) {
	if o.Status == StatusOpen {
		return
	}

	o.Status = StatusOpen
	o.Direction = direction
	o.Lots = lots
	o.OpenPrice = candle.Close
	o.OpenTime = candle.Time
	o.SL = sl
	o.TP = tp
	o.ClosePrice = -1
	o.CloseTime = time.Time{}
	o.Params = append([]int(nil), params...)
	o.Reason = reason
	o.Profit = 0
	o.ProfitPercent = 0

	switch reason {
	case ReasonNewTrend, ReasonRestore:
		if direction == DirBuy {
			o.LastAction = OpenedBuy
		} else {
			o.LastAction = OpenedSell
		}
	case ReasonChangeDir:
		if direction == DirBuy {
			o.LastAction = ChangedDirToBuy
		} else {
			o.LastAction = ChangedDirToSell
		}
	default:
		o.LastAction = DidNothing
	}
}

// Close закрывает позицию и кладёт её снимок в history. No-op, если позиция
// не открыта или направление не совпадает: чтобы сбросить любую позицию,
// вызывающий закрывает обе стороны (см. CmdCloseAll в раннере).
// Сам ордер после Close не сбрасывается — когда открываться заново,
// решает вызывающий.
func (o *Order) Close(direction OrderDir, candle Candle, reason Reason, spread float64, history *[]Order) {
	if o.Status != StatusOpen || o.Direction != direction {
		return
	}

	switch {
	case reason == ReasonStopLoss && o.SL > 0:
		o.ClosePrice = o.SL
	case reason == ReasonTakeProfit && o.TP > 0:
		o.ClosePrice = o.TP
	default:
		o.ClosePrice = candle.Close
	}

	o.CloseTime = candle.Time
	o.Reason = reason
	o.Status = StatusClosed

	if o.Direction == DirBuy {
		switch reason {
		case ReasonStopLoss:
			o.LastAction = ClosedBuySL
		case ReasonTakeProfit:
			o.LastAction = ClosedBuyTP
		default:
			o.LastAction = ClosedBuy
		}
	} else {
		switch reason {
		case ReasonStopLoss:
			o.LastAction = ClosedSellSL
		case ReasonTakeProfit:
			o.LastAction = ClosedSellTP
		default:
			o.LastAction = ClosedSell
		}
	}

	lots := float64(o.Lots)
	if o.Direction == DirBuy {
		o.Profit = lots * (o.ClosePrice - o.OpenPrice)
	} else {
		o.Profit = lots * (o.OpenPrice - o.ClosePrice)
	}
	o.Profit -= lots * o.OpenPrice * BrokerFee  // комиссия за открытие
	o.Profit -= lots * o.ClosePrice * BrokerFee // комиссия за закрытие
	o.Profit -= 2 * lots * spread
	o.ProfitPercent = math.Round(100*o.Profit/(lots*o.OpenPrice)*100) / 100

	*history = append(*history, o.Snapshot())
}

// Snapshot — глубокая копия ордера как неизменяемого значения истории.
func (o *Order) Snapshot() Order {
	cp := *o
	cp.Params = append([]int(nil), o.Params...)
	return cp
}

// Decision — ответ стратегии на один тик.
type Decision struct {
	Cmd    Command
	Trend  Trend
	Reason Reason
	SL     float64 // -1 когда стратегия не имеет мнения
	TP     float64 // -1 когда стратегия не имеет мнения
	Lots   int
	// Снимок значений индикаторов для CSV-лога, фиксированная ширина.
	Indicators [4]float64
}

// NewDecision — решение с сентинелами по умолчанию.
func NewDecision(cmd Command) Decision {
	return Decision{
		Cmd:        cmd,
		Trend:      TrendUnspecified,
		Reason:     ReasonUnspecified,
		SL:         -1,
		TP:         -1,
		Lots:       1,
		Indicators: [4]float64{-1, -1, -1, -1},
	}
}
