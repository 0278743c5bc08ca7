package indicator

import (
	"sync"
	"time"
)

// Kind — имя индикатора в ключе кэша.
type Kind string

const (
	KindSMA  Kind = "SMA"
	KindEMA  Kind = "EMA"
	KindSMMA Kind = "SMMA"
	KindMACD Kind = "MACD"
	KindRSI  Kind = "RSI"
	KindATR  Kind = "ATR"
	KindADX  Kind = "ADX"
)

// Key — (время свечи, индикатор, до 4 целых параметров).
// Неиспользуемые параметры держим в -1, чтобы ключи были сравнимы.
type Key struct {
	Time int64 // UnixNano времени последней свечи окна
	Kind Kind
	P1   int
	P2   int
	P3   int
	P4   int
}

// NewKey — ключ с сентинелами для недостающих параметров.
func NewKey(tm time.Time, kind Kind, params ...int) Key {
	k := Key{Time: tm.UnixNano(), Kind: kind, P1: -1, P2: -1, P3: -1, P4: -1}
	ps := []*int{&k.P1, &k.P2, &k.P3, &k.P4}
	for i, p := range params {
		if i >= len(ps) {
			break
		}
		*ps[i] = p
	}
	return k
}

// Values — до четырёх значений индикатора на один ключ.
type Values [4]float64

// Cache — мемоизация значений индикаторов одной истории свечей.
// Значение для фиксированного ключа неизменно, поэтому кэш безопасно
// делить между параллельными прогонами оптимизатора на одной истории;
// между разными историями делить нельзя. Запись идемпотентна: повторный
// Put по существующему ключу — no-op. Отсутствие ключа в map и есть
// сентинел «не посчитано» — легальный ноль или минус с ним не спутать.
type Cache struct {
	mu      sync.RWMutex
	ticker  string
	entries map[Key]Values
	dirty   bool
}

func NewCache(ticker string) *Cache {
	return &Cache{
		ticker:  ticker,
		entries: make(map[Key]Values),
	}
}

func (c *Cache) Ticker() string { return c.ticker }

func (c *Cache) Get(key Key) (Values, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Put(key Key, vals Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = vals
	c.dirty = true
}

// Seed — массовая загрузка сохранённых значений (из хранилища),
// не взводит dirty.
func (c *Cache) Seed(entries map[Key]Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range entries {
		if _, ok := c.entries[k]; !ok {
			c.entries[k] = v
		}
	}
}

// Dirty — появились ли новые значения с момента последнего ResetDirty.
// Владелец кэша решает, пора ли его персистить.
func (c *Cache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

func (c *Cache) ResetDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot — копия содержимого для персистенции.
func (c *Cache) Snapshot() map[Key]Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]Values, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
