/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package manager provides the cache manager that orchestrates the in-process
// L1 cache and the Redis cross-instance invalidation hint behind one
// CacheInterface-shaped façade.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/tianyayunhai/ranger/internal/system/cache/constants"
	"github.com/tianyayunhai/ranger/internal/system/cache/l1cache"
	"github.com/tianyayunhai/ranger/internal/system/cache/l2cache"
	"github.com/tianyayunhai/ranger/internal/system/cache/model"
	"github.com/tianyayunhai/ranger/internal/system/config"
	"github.com/tianyayunhai/ranger/internal/system/log"
)

const loggerComponentName = "CacheManager"

// CacheManagerInterface defines the interface for a cache manager of values of
// type T. The cache type used across the evaluator is a slice of compiled
// policy evaluators, keyed by (zone, resource-prefix).
type CacheManagerInterface[T any] interface {
	Set(key model.CacheKey, value T) error
	Get(key model.CacheKey) (T, bool)
	Delete(key model.CacheKey) error
	Clear() error
	IsEnabled() bool
	Shutdown()
}

// CacheManager implements CacheManagerInterface by layering an in-process L1
// cache in front of a Redis pub/sub invalidation hint.
type CacheManager[T any] struct {
	enabled          bool
	l1Cache          model.CacheInterface[T]
	l2Cache          model.CacheInterface[T]
	mu               sync.RWMutex
	promotionChannel chan model.PromotionTask[T]
	promotionWg      sync.WaitGroup
	promotionCtx     context.Context
	promotionCancel  context.CancelFunc
}

// NewCacheManager creates a new cache manager instance sized from the runtime
// config's Cache section.
func NewCacheManager[T any]() CacheManagerInterface[T] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	cacheConfig := config.GetRangerRuntime().Config.Cache
	if !cacheConfig.L1.Enabled {
		logger.Debug("cache system is disabled")
		return &CacheManager[T]{
			enabled: false,
			l1Cache: l1cache.NewL1Cache[T](false, 0, 0, ""),
			l2Cache: l2cache.NewL2Cache[T](false, "", ""),
		}
	}

	logger.Debug("initializing cache manager")

	maxSize := cacheConfig.L1.MaxSize
	if maxSize <= 0 {
		maxSize = constants.L1DefaultMaxSize
	}

	defaultTTL := cacheConfig.L1.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = constants.L1DefaultTTL
	}

	l1Cache := l1cache.NewL1Cache[T](
		cacheConfig.L1.Enabled,
		maxSize,
		time.Duration(defaultTTL)*time.Second,
		cacheConfig.L1.EvictionPolicy,
	)
	l2Cache := l2cache.NewL2Cache[T](cacheConfig.L2.Enabled, cacheConfig.L2.Address, cacheConfig.L2.Channel)

	promotionCtx, promotionCancel := context.WithCancel(context.Background())
	promotionChannel := make(chan model.PromotionTask[T], constants.DefaultPromotionChannelBuffer)

	cm := &CacheManager[T]{
		enabled:          true,
		l1Cache:          l1Cache,
		l2Cache:          l2Cache,
		promotionChannel: promotionChannel,
		promotionCtx:     promotionCtx,
		promotionCancel:  promotionCancel,
	}

	cm.startCleanupRoutine()
	cm.startPromotionWorkers()

	return cm
}

// Set stores a value in the L1 cache and passes it to the L2 cache when that
// is enabled; L2's Set is a no-op, so nothing is published to sibling
// instances from here.
func (cm *CacheManager[T]) Set(key model.CacheKey, value T) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !cm.enabled {
		return nil
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.l1Cache.IsEnabled() {
		if err := cm.l1Cache.Set(key, value); err != nil {
			logger.Warn("failed to set value in L1 cache", log.String("key", key.ToString()), log.Error(err))
		}
	}

	if cm.l2Cache.IsEnabled() {
		if err := cm.l2Cache.Set(key, value); err != nil {
			logger.Warn("failed to set value in L2 cache", log.String("key", key.ToString()), log.Error(err))
		}
	}

	return nil
}

// Get retrieves a value from the cache, trying L1 before L2.
func (cm *CacheManager[T]) Get(key model.CacheKey) (T, bool) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !cm.enabled {
		var zero T
		return zero, false
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.l1Cache.IsEnabled() {
		if value, found := cm.l1Cache.Get(key); found {
			return value, true
		}
	}

	if cm.l2Cache.IsEnabled() {
		if value, found := cm.l2Cache.Get(key); found {
			if cm.l1Cache.IsEnabled() && config.GetRangerRuntime().Config.Cache.L1.EnablePromotion {
				select {
				case cm.promotionChannel <- model.PromotionTask[T]{Key: key, Value: value}:
				default:
					logger.Debug("promotion channel full, skipping cache promotion",
						log.String("key", key.ToString()))
				}
			}
			return value, true
		}
	}

	var zero T
	return zero, false
}

// Delete removes a value from both cache levels.
func (cm *CacheManager[T]) Delete(key model.CacheKey) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !cm.enabled {
		return nil
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.l1Cache.IsEnabled() {
		if err := cm.l1Cache.Delete(key); err != nil {
			logger.Warn("failed to delete value from L1 cache", log.String("key", key.ToString()), log.Error(err))
		}
	}

	if cm.l2Cache.IsEnabled() {
		if err := cm.l2Cache.Delete(key); err != nil {
			logger.Warn("failed to delete value from L2 cache", log.String("key", key.ToString()), log.Error(err))
		}
	}

	return nil
}

// Clear removes all entries from both cache levels. Called whenever the
// snapshot the evaluator holds is replaced wholesale (setRoles, policy
// refresh), since every previously-cached likely-match result is stale.
func (cm *CacheManager[T]) Clear() error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !cm.enabled {
		return nil
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.l1Cache.IsEnabled() {
		if err := cm.l1Cache.Clear(); err != nil {
			logger.Warn("failed to clear L1 cache", log.Error(err))
		}
	}

	if cm.l2Cache.IsEnabled() {
		if err := cm.l2Cache.Clear(); err != nil {
			logger.Warn("failed to clear L2 cache", log.Error(err))
		}
	}

	return nil
}

// IsEnabled returns whether the cache manager is enabled.
func (cm *CacheManager[T]) IsEnabled() bool {
	return cm.enabled
}

// StartCleanupRoutine starts the background routine that sweeps expired L1
// entries. Exported so a provider can trigger it explicitly after
// construction, mirroring the cache provider's lazy-start-on-first-use path.
func (cm *CacheManager[T]) StartCleanupRoutine() {
	cm.startCleanupRoutine()
}

func (cm *CacheManager[T]) startCleanupRoutine() {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !cm.enabled {
		return
	}

	cleanupInterval := config.GetRangerRuntime().Config.Cache.CleanupInterval
	if cleanupInterval == -1 {
		logger.Warn("cache cleanup routine is disabled")
		return
	} else if cleanupInterval <= 0 {
		cleanupInterval = constants.DefaultCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(time.Duration(cleanupInterval) * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			if l1Cache, ok := cm.l1Cache.(*l1cache.L1Cache[T]); ok && l1Cache.IsEnabled() {
				l1Cache.CleanupExpired()
			}
		}
	}()

	logger.Debug("cache cleanup routine started", log.Any("interval", cleanupInterval))
}

func (cm *CacheManager[T]) startPromotionWorkers() {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !cm.enabled || !config.GetRangerRuntime().Config.Cache.L1.EnablePromotion {
		logger.Debug("cache promotion is disabled or cache manager is not enabled, skipping worker pool startup")
		return
	}

	workerCount := constants.DefaultPromotionWorkerPoolSize
	logger.Debug("starting cache promotion worker pool", log.Any("workers", workerCount))

	for i := 0; i < workerCount; i++ {
		cm.promotionWg.Add(1)
		go cm.promotionWorker(i)
	}
}

func (cm *CacheManager[T]) promotionWorker(workerID int) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName),
		log.Int("workerId", workerID))

	defer cm.promotionWg.Done()

	for {
		select {
		case <-cm.promotionCtx.Done():
			logger.Debug("promotion worker stopping due to context cancellation")
			return
		case task, ok := <-cm.promotionChannel:
			if !ok {
				logger.Debug("promotion channel closed, worker stopping")
				return
			}

			if cm.l1Cache.IsEnabled() {
				if err := cm.l1Cache.Set(task.Key, task.Value); err != nil {
					logger.Debug("failed to promote value from L2 to L1",
						log.String("key", task.Key.ToString()), log.Error(err))
				}
			}
		}
	}
}

// Shutdown gracefully shuts down the cache manager and its worker pool.
func (cm *CacheManager[T]) Shutdown() {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !cm.enabled {
		logger.Debug("cache manager is disabled, nothing to shut down")
		return
	}

	logger.Debug("shutting down cache manager")

	if cm.promotionCancel != nil {
		cm.promotionCancel()
	}
	if cm.promotionChannel != nil {
		close(cm.promotionChannel)
	}
	cm.promotionWg.Wait()

	logger.Debug("cache manager shutdown complete")
}
