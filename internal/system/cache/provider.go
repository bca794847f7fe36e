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

// Package cache provides the lazily-initialized, per-type cache manager used
// by the evaluator's likely-match pre-filter.
package cache

import (
	"sync"

	"github.com/tianyayunhai/ranger/internal/system/cache/constants"
	"github.com/tianyayunhai/ranger/internal/system/cache/manager"
	"github.com/tianyayunhai/ranger/internal/system/log"
)

const loggerComponentName = "CacheProvider"

// Provider lazily builds and caches the single manager.CacheManager instance
// for values of type T. Callers construct one Provider per distinct cache
// type they need; the policy engine keeps one Provider[[]*policy.Evaluator] for
// its likely-match cache.
type Provider[T any] struct {
	cacheType constants.CacheType
	mgr       manager.CacheManagerInterface[T]
	mu        sync.RWMutex
}

// NewProvider creates a new cache provider for the given cache type label,
// used only for logging.
func NewProvider[T any](cacheType constants.CacheType) *Provider[T] {
	return &Provider[T]{cacheType: cacheType}
}

// GetCacheManager returns the process-wide manager for this provider,
// constructing it on first use.
func (p *Provider[T]) GetCacheManager() manager.CacheManagerInterface[T] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	p.mu.RLock()
	if p.mgr != nil {
		defer p.mu.RUnlock()
		return p.mgr
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mgr == nil {
		p.mgr = manager.NewCacheManager[T]()
		logger.Info("cache manager created", log.String("cacheType", string(p.cacheType)))
	}

	return p.mgr
}
