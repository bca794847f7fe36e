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

// Package l2cache publishes a cross-instance snapshot-invalidation hint over
// Redis pub/sub. It is not a value cache: Set/Get/Delete only ever report a
// miss, since the evaluator never blocks waiting on Redis to serve a policy
// lookup. Its only job is telling sibling engine instances that the policy
// version moved on, so each one re-fetches the full snapshot on its own time.
package l2cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/tianyayunhai/ranger/internal/system/cache/model"
	"github.com/tianyayunhai/ranger/internal/system/log"
)

const loggerComponentName = "SnapshotInvalidationHint"

// L2Cache implements model.CacheInterface as a thin Redis pub/sub publisher.
// T is unused for storage (L2Cache never stores values) but kept so it
// satisfies the same generic interface as l1cache for uniform wiring in the
// cache manager.
type L2Cache[T any] struct {
	enabled bool
	client  *redis.Client
	channel string
}

// NewL2Cache creates a new instance of L2Cache. When enabled, it opens a Redis
// client lazily; the connection is only touched on Publish, never on Get, so a
// transient Redis outage never blocks policy evaluation.
func NewL2Cache[T any](enabled bool, address, channel string) model.CacheInterface[T] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !enabled {
		logger.Debug("snapshot invalidation hint disabled")
		return &L2Cache[T]{enabled: false}
	}

	if channel == "" {
		channel = "ranger:policy-version"
	}

	logger.Debug("initializing snapshot invalidation hint", log.String("address", address),
		log.String("channel", channel))

	return &L2Cache[T]{
		enabled: true,
		client:  redis.NewClient(&redis.Options{Addr: address}),
		channel: channel,
	}
}

// PublishVersion announces a new policy version to sibling instances. Publish
// errors are logged and swallowed: a missed hint only delays a sibling's
// refresh, it never causes stale-forever data, since every instance also
// re-polls the store on its own cadence.
func (l2 *L2Cache[T]) PublishVersion(ctx context.Context, serviceName string, policyVersion int64) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if !l2.enabled {
		return
	}

	payload := serviceName + ":" + strconv.FormatInt(policyVersion, 10)
	if err := l2.client.Publish(ctx, l2.channel, payload).Err(); err != nil {
		logger.Warn("failed to publish policy version hint", log.String("service", serviceName), log.Error(err))
	}
}

// Subscribe returns the underlying Redis pub/sub channel of raw
// "<serviceName>:<policyVersion>" hint messages from sibling instances.
// Callers are responsible for parsing and acting on them; canceling ctx stops
// the subscription.
func (l2 *L2Cache[T]) Subscribe(ctx context.Context) <-chan *redis.Message {
	if !l2.enabled {
		ch := make(chan *redis.Message)
		close(ch)
		return ch
	}
	return l2.client.Subscribe(ctx, l2.channel).Channel()
}

// Set is a no-op: the hint channel never stores values.
func (l2 *L2Cache[T]) Set(key model.CacheKey, value T) error {
	return nil
}

// Get always misses: the hint channel never stores values, so callers fall
// through to the L1 cache or the policy store itself.
func (l2 *L2Cache[T]) Get(key model.CacheKey) (T, bool) {
	var zero T
	return zero, false
}

// Delete is a no-op: the hint channel never stores values.
func (l2 *L2Cache[T]) Delete(key model.CacheKey) error {
	return nil
}

// Clear is a no-op: the hint channel never stores values.
func (l2 *L2Cache[T]) Clear() error {
	return nil
}

// IsEnabled returns whether the hint channel is active.
func (l2 *L2Cache[T]) IsEnabled() bool {
	return l2.enabled
}

// GetStats reports only whether the hint channel is active; size and hit/miss
// counters are meaningless for a pure pub/sub hint.
func (l2 *L2Cache[T]) GetStats() model.CacheStat {
	return model.CacheStat{Enabled: l2.enabled, MaxSize: -1}
}

// Close releases the underlying Redis client.
func (l2 *L2Cache[T]) Close() error {
	if !l2.enabled || l2.client == nil {
		return nil
	}
	return l2.client.Close()
}
