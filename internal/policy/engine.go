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
	"github.com/tianyayunhai/ranger/internal/system/cache"
	"github.com/tianyayunhai/ranger/internal/system/cache/constants"
)

// ServicePolicies is the full policy bundle the external policy store
// supplies to build (or rebuild) an Engine snapshot: every policy for a
// service, grouped by zone, plus the versions and service-def that govern it.
type ServicePolicies struct {
	ServiceName   string
	PolicyVersion int64
	RoleVersion   int64
	ServiceDef    *ServiceDef
	// PoliciesByZone maps zone name ("" for the default zone) to the
	// policies authored in that zone.
	PoliciesByZone map[string][]*Policy
	// TagPolicies holds policies whose resource is a tag rather than the
	// underlying resource; empty zone name means default-zone tag policies.
	TagPolicies []*Policy
}

// PolicyDelta is an incremental change set applied to an Engine snapshot via
// CloneWithDelta.
type PolicyDelta struct {
	// FromPolicyVersion must equal the snapshot's current PolicyVersion for
	// the delta to apply; a mismatch means the caller's view is stale and a
	// full reload is required.
	FromPolicyVersion int64
	// ZonePolicies maps zone name to the zone's complete, post-delta policy
	// set. Only zones present here are rebuilt; every other zone's
	// repository is reused by reference.
	ZonePolicies map[string][]*Policy
	// TagPolicies, when non-nil, replaces the tag-policy repository wholesale.
	TagPolicies []*Policy
}

// Engine is an immutable snapshot of one service's policies: a bundle of
// per-zone repositories, an optional tag-policy repository, the governing
// versions, service-def, and a zone index answering which zones a resource
// belongs to. A new Engine is produced by CloneWithDelta rather than mutating
// this one, so readers holding a pointer to an Engine always see a
// consistent view.
type Engine struct {
	serviceName         string
	policyVersion       int64
	roleVersion         int64
	serviceDef          *ServiceDef
	repositoryByZone    map[string]*Repository
	tagRepositoryByZone map[string]*Repository
	zoneIndex           *zoneIndex
	cacheFactory        func() likelyMatchCache
}

// NewEngine builds a fresh Engine from a complete ServicePolicies bundle.
// cacheFactory, if non-nil, is called once per zone repository to obtain its
// likely-match pre-filter cache; pass nil to run without caching.
func NewEngine(bundle *ServicePolicies, cacheFactory func() likelyMatchCache) *Engine {
	repoByZone := make(map[string]*Repository, len(bundle.PoliciesByZone))
	for zone, policies := range bundle.PoliciesByZone {
		repoByZone[zone] = NewRepository(zone, policies, bundle.ServiceDef, newCacheOrNil(cacheFactory))
	}

	return &Engine{
		serviceName:         bundle.ServiceName,
		policyVersion:       bundle.PolicyVersion,
		roleVersion:         bundle.RoleVersion,
		serviceDef:          bundle.ServiceDef,
		repositoryByZone:    repoByZone,
		tagRepositoryByZone: buildTagRepositoryByZone(bundle.TagPolicies, bundle.ServiceDef, cacheFactory),
		zoneIndex:           buildZoneIndex(bundle.PoliciesByZone, bundle.ServiceDef),
		cacheFactory:        cacheFactory,
	}
}

// buildTagRepositoryByZone partitions tagPolicies by each policy's own
// ZoneName — a tag policy authored for "finance-zone" must only ever be
// discoverable in "finance-zone", never bleed into the default zone's
// repository or vice versa. Returns nil (not an empty map) when the service
// carries no tag policies at all, matching Engine.TagPolicyRepository's
// "nil means no tag policies" contract.
func buildTagRepositoryByZone(tagPolicies []*Policy, serviceDef *ServiceDef,
	cacheFactory func() likelyMatchCache) map[string]*Repository {
	if tagPolicies == nil {
		return nil
	}
	byZone := map[string][]*Policy{}
	for _, p := range tagPolicies {
		byZone[p.ZoneName] = append(byZone[p.ZoneName], p)
	}
	repoByZone := make(map[string]*Repository, len(byZone))
	for zone, policies := range byZone {
		repoByZone[zone] = NewRepository(zone, policies, serviceDef, newCacheOrNil(cacheFactory))
	}
	return repoByZone
}

// sharedLikelyMatchCacheProvider is the process-wide cache backing every zone
// repository's likely-match pre-filter when an Engine is built via
// NewEngineWithManagedCache: one in-process L1 cache plus the Redis L2
// cross-instance invalidation hint, sized from the runtime config's Cache
// section.
var sharedLikelyMatchCacheProvider = cache.NewProvider[[]*Evaluator](constants.CacheTypeLikelyMatch)

// NewEngineWithManagedCache builds a fresh Engine exactly like NewEngine, but
// backs every zone repository's likely-match pre-filter with the shared
// managed cache instead of running uncached. Prefer this constructor in
// production; use NewEngine directly (with a nil factory) in tests that want
// a predictable, cache-free evaluator walk.
func NewEngineWithManagedCache(bundle *ServicePolicies) *Engine {
	return NewEngine(bundle, func() likelyMatchCache {
		return sharedLikelyMatchCacheProvider.GetCacheManager()
	})
}

func newCacheOrNil(factory func() likelyMatchCache) likelyMatchCache {
	if factory == nil {
		return nil
	}
	return factory()
}

// ServiceName returns the service this snapshot governs.
func (e *Engine) ServiceName() string { return e.serviceName }

// PolicyVersion returns the snapshot's policy version.
func (e *Engine) PolicyVersion() int64 { return e.policyVersion }

// RoleVersion returns the snapshot's role version.
func (e *Engine) RoleVersion() int64 { return e.roleVersion }

// ServiceDef returns the service-def this snapshot was built against.
func (e *Engine) ServiceDef() *ServiceDef { return e.serviceDef }

// RepositoryForZone returns the repository for zoneName, or nil if no
// policies exist for that zone.
func (e *Engine) RepositoryForZone(zoneName string) *Repository {
	return e.repositoryByZone[zoneName]
}

// TagPolicyRepository returns the tag-policy repository authored for
// zoneName ("" for the default zone), or nil if the service carries no tag
// policies for that zone. A tag policy authored for one zone is never
// returned for another.
func (e *Engine) TagPolicyRepository(zoneName string) *Repository {
	return e.tagRepositoryByZone[zoneName]
}

// GetZoneNamesForResource returns every zone whose resource prefix contains
// resource (or an ancestor of it).
func (e *Engine) GetZoneNamesForResource(resource ResourceDescriptor) []string {
	return e.zoneIndex.zonesFor(resource)
}

// GetUniquelyMatchedZoneName returns the single zone matching resource, and
// false if zero or more than one zone matches — the spec's "zone ambiguity"
// error condition for grant/revoke requests, which must target exactly one
// zone.
func (e *Engine) GetUniquelyMatchedZoneName(resource ResourceDescriptor) (string, bool) {
	zones := e.zoneIndex.zonesFor(resource)
	if len(zones) != 1 {
		return "", false
	}
	return zones[0], true
}

// EngineStats reports what the most recent CloneWithDelta call actually did,
// for operational visibility into how often deltas are reused, rebuilt, or
// rejected — not an audit trail of policy changes.
type EngineStats struct {
	Reused       bool
	Rejected     bool
	ZonesRebuilt int
	TagRepoBuilt bool
}

// CloneWithDelta produces the Engine that results from applying delta to e.
// Returns (e, true) when the delta is empty (no zones touched and no tag
// policy change), reusing this snapshot's identity. Returns (newEngine, true)
// when the delta is well-formed, sharing every untouched zone repository by
// reference and rebuilding only the touched zones. Returns (nil, false) when
// delta.FromPolicyVersion does not match this snapshot's version, signaling
// the caller must reload from scratch.
func (e *Engine) CloneWithDelta(delta *PolicyDelta, cacheFactory func() likelyMatchCache) (*Engine, bool) {
	return e.cloneWithDeltaStats(delta, cacheFactory, nil)
}

// CloneWithDeltaStats behaves exactly like CloneWithDelta but additionally
// records what happened into stats, when stats is non-nil.
func (e *Engine) CloneWithDeltaStats(delta *PolicyDelta, cacheFactory func() likelyMatchCache,
	stats *EngineStats) (*Engine, bool) {
	return e.cloneWithDeltaStats(delta, cacheFactory, stats)
}

func (e *Engine) cloneWithDeltaStats(delta *PolicyDelta, cacheFactory func() likelyMatchCache,
	stats *EngineStats) (*Engine, bool) {
	if delta.FromPolicyVersion != e.policyVersion {
		if stats != nil {
			*stats = EngineStats{Rejected: true}
		}
		return nil, false
	}
	if len(delta.ZonePolicies) == 0 && delta.TagPolicies == nil {
		if stats != nil {
			*stats = EngineStats{Reused: true}
		}
		return e, true
	}
	if stats != nil {
		*stats = EngineStats{ZonesRebuilt: len(delta.ZonePolicies), TagRepoBuilt: delta.TagPolicies != nil}
	}

	repoByZone := make(map[string]*Repository, len(e.repositoryByZone)+len(delta.ZonePolicies))
	for zone, repo := range e.repositoryByZone {
		repoByZone[zone] = repo
	}
	policiesByZone := map[string][]*Policy{}
	for zone, repo := range e.repositoryByZone {
		policiesByZone[zone] = policiesOf(repo)
	}
	for zone, policies := range delta.ZonePolicies {
		repoByZone[zone] = NewRepository(zone, policies, e.serviceDef, newCacheOrNil(cacheFactory))
		policiesByZone[zone] = policies
	}

	tagRepoByZone := e.tagRepositoryByZone
	if delta.TagPolicies != nil {
		tagRepoByZone = buildTagRepositoryByZone(delta.TagPolicies, e.serviceDef, cacheFactory)
	}

	return &Engine{
		serviceName:         e.serviceName,
		policyVersion:       e.policyVersion + 1,
		roleVersion:         e.roleVersion,
		serviceDef:          e.serviceDef,
		repositoryByZone:    repoByZone,
		tagRepositoryByZone: tagRepoByZone,
		zoneIndex:           buildZoneIndex(policiesByZone, e.serviceDef),
		cacheFactory:        cacheFactory,
	}, true
}

func policiesOf(repo *Repository) []*Policy {
	policies := make([]*Policy, len(repo.evaluators))
	for i, e := range repo.evaluators {
		policies[i] = e.policy
	}
	return policies
}

// zoneIndex answers "which zones does this resource belong to" from each
// zone's policies' resource prefixes, without re-walking every policy on
// every lookup.
type zoneIndex struct {
	// prefixesByZone maps zone name to the set of top-level resource-element
	// values ("" meaning "matches everything") policies in that zone were
	// authored under.
	prefixesByZone map[string]map[string]bool
	// elements is the service-def's resource hierarchy, top level first.
	elements []string
}

func buildZoneIndex(policiesByZone map[string][]*Policy, serviceDef *ServiceDef) *zoneIndex {
	idx := &zoneIndex{prefixesByZone: map[string]map[string]bool{}}
	if serviceDef != nil {
		idx.elements = serviceDef.ElementNames()
	}
	for zone, policies := range policiesByZone {
		set := map[string]bool{}
		for _, p := range policies {
			set[topLevelPrefix(p.Resources, idx.elements)] = true
		}
		idx.prefixesByZone[zone] = set
	}
	return idx
}

func (z *zoneIndex) zonesFor(resource ResourceDescriptor) []string {
	candidate := topLevelPrefix(resource, z.elements)
	var zones []string
	for zone, prefixes := range z.prefixesByZone {
		if prefixes[candidate] || prefixes[Wildcard] || prefixes[""] {
			zones = append(zones, zone)
		}
	}
	return zones
}

// topLevelPrefix extracts the first non-wildcard value of the highest
// hierarchy element (in elements order) that resource carries values for,
// the coarse key the zone index partitions on.
func topLevelPrefix(resource ResourceDescriptor, elements []string) string {
	for _, name := range elements {
		if pr, ok := resource[name]; ok && pr != nil && len(pr.Values) > 0 {
			return firstNonWildcard(pr.Values)
		}
	}
	return ""
}

func firstNonWildcard(values []string) string {
	for _, v := range values {
		if v != Wildcard {
			return v
		}
	}
	return Wildcard
}

