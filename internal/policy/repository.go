/*
 * Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
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

package policy

import (
	"sort"
	"strings"

	"github.com/tianyayunhai/ranger/internal/system/cache/model"
)

// likelyMatchCache is the interface the repository needs from the likely-
// match pre-filter cache; narrowed from cache/manager.CacheManagerInterface
// so this package does not need a generic type parameter threaded through
// every caller.
type likelyMatchCache interface {
	Get(key model.CacheKey) ([]*Evaluator, bool)
	Set(key model.CacheKey, value []*Evaluator) error
}

// Repository holds every evaluator for one (service, zone) pair and answers
// likely-match pre-filter and exact-match queries over them.
type Repository struct {
	zoneName   string
	evaluators []*Evaluator
	cache      likelyMatchCache
	serviceDef *ServiceDef
}

// NewRepository builds a Repository for zoneName from policies, compiling one
// Evaluator per policy against serviceDef. cache may be nil, in which case
// every GetLikelyMatchPolicyEvaluators call walks the full evaluator list.
func NewRepository(zoneName string, policies []*Policy, serviceDef *ServiceDef, cache likelyMatchCache) *Repository {
	evaluators := make([]*Evaluator, len(policies))
	for i, p := range policies {
		evaluators[i] = NewEvaluator(p, serviceDef)
	}
	return &Repository{zoneName: zoneName, evaluators: evaluators, cache: cache, serviceDef: serviceDef}
}

// ServiceDef returns the service-def this repository's evaluators were
// compiled against.
func (r *Repository) ServiceDef() *ServiceDef {
	return r.serviceDef
}

// ZoneName returns the zone this repository holds policies for.
func (r *Repository) ZoneName() string {
	return r.zoneName
}

// Evaluators returns every evaluator held by this repository, for policy
// types matching policyType; pass "" to return all types.
func (r *Repository) Evaluators(policyType PolicyType) []*Evaluator {
	if policyType == "" {
		return r.evaluators
	}
	var filtered []*Evaluator
	for _, e := range r.evaluators {
		if e.policy.effectiveType() == policyType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// GetLikelyMatchPolicyEvaluators returns a superset of the evaluators whose
// pattern could match resource: every evaluator of policyType in this
// repository, cached per (zone, policy type, resource key). No filtering by
// resource is applied, so it over-returns — correctness depends only on
// never missing a true match — and the caller's own
// IsMatch/GetAllowedAccesses calls still apply the exact pattern logic.
func (r *Repository) GetLikelyMatchPolicyEvaluators(resource ResourceDescriptor, policyType PolicyType) []*Evaluator {
	prefix := resourcePrefix(resource)
	key := model.CacheKey{Zone: r.zoneName, Prefix: string(policyType) + ":" + prefix}

	if r.cache != nil {
		if cached, found := r.cache.Get(key); found {
			return cached
		}
	}

	matches := r.Evaluators(policyType)

	if r.cache != nil {
		_ = r.cache.Set(key, matches)
	}
	return matches
}

// resourcePrefix renders a stable cache-key fragment from every element name
// and value of the resource, sorted, so only requests for the same resource
// share one cache entry.
func resourcePrefix(resource ResourceDescriptor) string {
	names := make([]string, 0, len(resource))
	for name := range resource {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		values := append([]string(nil), resource[name].Values...)
		sort.Strings(values)
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(values, "/"))
	}
	return b.String()
}
