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

// Evaluator wraps one Policy with the matchers needed to answer access and
// match questions against it, without re-deriving resource matchers on every
// call.
type Evaluator struct {
	policy             *Policy
	serviceDef         *ServiceDef
	resourceMatcher    *ResourceMatcher
	additionalMatchers []*ResourceMatcher
}

// NewEvaluator builds an Evaluator for policy against serviceDef's hierarchy.
func NewEvaluator(p *Policy, serviceDef *ServiceDef) *Evaluator {
	additional := make([]*ResourceMatcher, len(p.AdditionalResources))
	for i, r := range p.AdditionalResources {
		additional[i] = NewResourceMatcher(r, serviceDef)
	}
	return &Evaluator{
		policy:             p,
		serviceDef:         serviceDef,
		resourceMatcher:    NewResourceMatcher(p.Resources, serviceDef),
		additionalMatchers: additional,
	}
}

// Policy returns the raw policy this evaluator wraps.
func (e *Evaluator) Policy() *Policy {
	return e.policy
}

// IsCompleteMatch reports whether resource is an exact match for the
// policy's primary resource pattern.
func (e *Evaluator) IsCompleteMatch(resource ResourceDescriptor, ctx EvalContext) bool {
	return e.resourceMatcher.IsCompleteMatch(resource, ctx)
}

// IsMatch reports whether resource matches the policy's primary resource
// pattern under scope.
func (e *Evaluator) IsMatch(resource ResourceDescriptor, scope MatchScope, ctx EvalContext) bool {
	return e.resourceMatcher.IsMatch(resource, scope, ctx)
}

// GetAllowedAccesses returns the subset of requested that this policy grants
// to (user, groups, roles) against resource, after macro-expanding the
// policy's own pattern under ctx and checking it still matches resource.
// Deny items withdraw a principal's access even when an allow item grants it,
// reflecting the deny-overrides-allow, then-allow-exceptions,
// then-deny-exceptions resolution order: Allow establishes a grant, Deny
// withdraws it, AllowException restores it, DenyException withdraws it again.
func (e *Evaluator) GetAllowedAccesses(resource ResourceDescriptor, user string, groups, roles []string,
	requested map[string]bool, ctx EvalContext) map[string]bool {
	if !e.IsMatch(resource, MatchScopeSelf, ctx) {
		return map[string]bool{}
	}
	return e.resolveAccesses(user, groups, roles, requested)
}

// resolveAccesses applies the ACCESS-policy resolution order across the four
// item collections; for DATAMASK/ROWFILTER policies only the single relevant
// collection is consulted and every matching item simply grants its accesses.
func (e *Evaluator) resolveAccesses(user string, groups, roles []string, requested map[string]bool) map[string]bool {
	granted := map[string]bool{}

	switch e.policy.effectiveType() {
	case PolicyTypeAccess, "":
		applyItems(granted, e.policy.Allow, user, groups, roles, requested, true, e.serviceDef)
		applyItems(granted, e.policy.Deny, user, groups, roles, requested, false, e.serviceDef)
		applyItems(granted, e.policy.AllowExceptions, user, groups, roles, requested, true, e.serviceDef)
		applyItems(granted, e.policy.DenyExceptions, user, groups, roles, requested, false, e.serviceDef)
	case PolicyTypeDataMask:
		applyItems(granted, e.policy.DataMaskItems, user, groups, roles, requested, true, e.serviceDef)
	case PolicyTypeRowFilter:
		applyItems(granted, e.policy.RowFilterItems, user, groups, roles, requested, true, e.serviceDef)
	}

	return granted
}

// applyItems grants (or, for a deny collection, withdraws) every item whose
// principals match, expanding each declared access through the service-def's
// implied-grants table first: a grant of "update" where update implies
// {update, select} must count as covering a request for "select" too.
func applyItems(granted map[string]bool, items []PolicyItem, user string, groups, roles []string,
	requested map[string]bool, grantNotWithdraw bool, serviceDef *ServiceDef) {
	for _, item := range items {
		if !principalMatches(item, user, groups, roles) {
			continue
		}
		for _, access := range item.Accesses {
			if !access.IsAllowed {
				continue
			}
			for _, expanded := range serviceDef.expandAccessType(access.Type) {
				if requested != nil && len(requested) > 0 && !requested[expanded] {
					continue
				}
				if grantNotWithdraw {
					granted[expanded] = true
				} else {
					delete(granted, expanded)
				}
			}
		}
	}
}

func principalMatches(item PolicyItem, user string, groups, roles []string) bool {
	if contains(item.Users, user) || contains(item.Users, Wildcard) {
		return true
	}
	for _, g := range groups {
		if contains(item.Groups, g) || contains(item.Groups, Wildcard) {
			return true
		}
	}
	for _, r := range roles {
		if contains(item.Roles, r) {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// IsAccessAllowed reports whether resource (or any additionalResources entry,
// matching the policy's own semantics) grants accessType to the principal.
func (e *Evaluator) IsAccessAllowed(resource ResourceDescriptor, additionalResources []ResourceDescriptor,
	user string, groups []string, accessType string) bool {
	requested := map[string]bool{accessType: true}
	if e.IsMatch(resource, MatchScopeSelf, nil) {
		if e.resolveAccesses(user, groups, nil, requested)[accessType] {
			return true
		}
	}
	for i, additional := range additionalResources {
		if i >= len(e.additionalMatchers) {
			break
		}
		if e.additionalMatchers[i].IsMatch(additional, MatchScopeSelf, nil) {
			if e.resolveAccesses(user, groups, nil, requested)[accessType] {
				return true
			}
		}
	}
	return false
}
