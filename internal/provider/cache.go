package provider

import "sync"

// LastPriceCache remembers the previous price per instrument so that sources
// without their own delta can still report a change. It belongs to one Client.
type LastPriceCache struct {
	mu     sync.Mutex
	prices map[string]float64
}

func NewLastPriceCache() *LastPriceCache {
	return &LastPriceCache{prices: make(map[string]float64)}
}

// Observe stores price and returns the value it replaced.
func (c *LastPriceCache) Observe(key string, price float64) (prev float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok = c.prices[key]
	c.prices[key] = price
	return prev, ok
}

func (c *LastPriceCache) Get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.prices[key]
	return p, ok
}

func (c *LastPriceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prices)
}

func (c *LastPriceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.prices)
}

// percentChange is 0 when there is no usable previous value.
func percentChange(prev, current float64) float64 {
	if prev == 0 {
		return 0
	}
	return (current - prev) / prev * 100
}
