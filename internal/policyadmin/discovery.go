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

package policyadmin

import (
	"context"

	"github.com/tianyayunhai/ranger/internal/policy"
)

// GetExactMatchPoliciesForResource returns every policy in zoneName's
// repository whose pattern covers exactly resource's elements and values —
// neither a strict superset nor subset — macro-expanded under ctx.
func (a *Admin) GetExactMatchPoliciesForResource(ctx context.Context, resource policy.ResourceDescriptor,
	zoneName string, evalContext policy.EvalContext) []*policy.Policy {
	_, end := a.tracer.Begin(ctx, "getExactMatchPolicies")
	defer end()

	repo := a.currentSnapshot().RepositoryForZone(zoneName)
	if repo == nil {
		return nil
	}
	var matches []*policy.Policy
	for _, e := range repo.Evaluators("") {
		if e.IsCompleteMatch(resource, evalContext) {
			matches = append(matches, e.Policy())
		}
	}
	return matches
}

// GetExactMatchPoliciesForPolicy returns every policy in p's zone whose
// pattern covers exactly p.Resources — the query discovery uses to find a
// policy's siblings at the same resource footprint.
func (a *Admin) GetExactMatchPoliciesForPolicy(ctx context.Context, p *policy.Policy,
	evalContext policy.EvalContext) []*policy.Policy {
	return a.GetExactMatchPoliciesForResource(ctx, p.Resources, p.ZoneName, evalContext)
}

// GetMatchingPolicies builds a synthetic ANY-access request over resource,
// resolves the zones resource belongs to, and returns every policy (tag or
// resource) whose matcher matches resource under MatchScopeAny in each
// resolved zone. tagAssociatedZone reports whether a zone name is
// tag-associated; pass a function that always returns false if the service
// carries no tag-zone mapping, in which case only default-zone tag policies
// ever apply.
func (a *Admin) GetMatchingPolicies(ctx context.Context, resource policy.ResourceDescriptor,
	tagAssociatedZone func(zoneName string) bool) []*policy.Policy {
	_, end := a.tracer.Begin(ctx, "getMatchingPolicies")
	defer end()

	snapshot := a.currentSnapshot()
	zones := snapshot.GetZoneNamesForResource(resource)
	if len(zones) == 0 {
		zones = []string{""}
	}

	var matches []*policy.Policy
	for _, zone := range zones {
		if repo := snapshot.RepositoryForZone(zone); repo != nil {
			matches = append(matches, matchingInRepository(repo, resource)...)
		}
		matches = append(matches, a.matchingTagPolicies(snapshot, zone, resource, tagAssociatedZone)...)
	}
	return matches
}

func matchingInRepository(repo *policy.Repository, resource policy.ResourceDescriptor) []*policy.Policy {
	var matches []*policy.Policy
	for _, e := range repo.Evaluators("") {
		if e.IsMatch(resource, policy.MatchScopeAny, nil) {
			matches = append(matches, e.Policy())
		}
	}
	return matches
}

// matchingTagPolicies applies the tag-policy zone rule: a zone not marked
// tag-associated only sees default-zone tag policies; a tag-associated zone
// only sees tag policies authored for that exact zone. This keeps a tag
// grant from leaking across a zone boundary it was not authored for.
func (a *Admin) matchingTagPolicies(snapshot *policy.Engine, zone string, resource policy.ResourceDescriptor,
	tagAssociatedZone func(zoneName string) bool) []*policy.Policy {
	wantZone := ""
	if tagAssociatedZone != nil && tagAssociatedZone(zone) {
		wantZone = zone
	}
	tagRepo := snapshot.TagPolicyRepository(wantZone)
	if tagRepo == nil {
		return nil
	}
	return matchingInRepository(tagRepo, resource)
}
