// Package cache хранит отформатированные транскрипты по хешу содержимого файла.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"transcript-formatter/internal/domain"
)

// CacheItem представляет кэшированный результат форматирования
type CacheItem struct {
	Result    *domain.FormatResult
	ExpiresAt time.Time
}

// CacheStore управляет хранением и извлечением кэшированных результатов.
// Результаты в кэше разделяются между задачами и не должны изменяться.
type CacheStore struct {
	cache map[string]*CacheItem
	mutex sync.RWMutex
}

// NewCacheStore создает новый экземпляр CacheStore
func NewCacheStore() *CacheStore {
	return &CacheStore{
		cache: make(map[string]*CacheItem),
	}
}

// Get извлекает кэшированный элемент по его ключу (хешу)
func (cs *CacheStore) Get(key string) (*CacheItem, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	item, exists := cs.cache[key]
	if !exists || time.Now().After(item.ExpiresAt) {
		return nil, false
	}

	return item, true
}

// Put сохраняет результат в кэш с указанным сроком действия
func (cs *CacheStore) Put(key string, result *domain.FormatResult, ttl time.Duration) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache[key] = &CacheItem{
		Result:    result,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Len возвращает число элементов, включая еще не удаленные просроченные
func (cs *CacheStore) Len() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()
	return len(cs.cache)
}

// CleanupExpired удаляет просроченные элементы из кэша
func (cs *CacheStore) CleanupExpired() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	now := time.Now()
	for key, item := range cs.cache {
		if now.After(item.ExpiresAt) {
			delete(cs.cache, key)
		}
	}
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных элементов
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

// CalculateFileHash вычисляет хеш SHA256 содержимого файла
func CalculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("не удалось открыть файл: %w", err)
	}
	defer file.Close()

	return CalculateHash(file)
}

// CalculateHash вычисляет хеш SHA256 потока
func CalculateHash(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("не удалось прочитать данные: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
