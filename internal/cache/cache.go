// Package cache хранит готовые страницы ограниченное время.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache - хранилище отрендеренных страниц с фиксированным временем жизни.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
	Invalidate(key string)
	Clear()
}

// LRU реализует Cache поверх expirable LRU.
type LRU struct {
	lru *expirable.LRU[string, []byte]
	ttl time.Duration
}

// NewLRU создает кэш на size записей с временем жизни ttl.
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
		ttl: ttl,
	}
}

func (c *LRU) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *LRU) Set(key string, body []byte) {
	stored := make([]byte, len(body))
	copy(stored, body)
	c.lru.Add(key, stored)
}

func (c *LRU) Invalidate(key string) {
	c.lru.Remove(key)
}

func (c *LRU) Clear() {
	c.lru.Purge()
}

// TTL возвращает время жизни записей.
func (c *LRU) TTL() time.Duration {
	return c.ttl
}

// Nop ничего не хранит.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool) { return nil, false }
func (Nop) Set(string, []byte) {}
func (Nop) Invalidate(string) {}
func (Nop) Clear() {}
