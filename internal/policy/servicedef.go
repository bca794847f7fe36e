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

import "github.com/tianyayunhai/ranger/internal/system/log"

const serviceDefLoggerComponentName = "ServiceDef"

// ResourceElementDef describes one level of a service's resource hierarchy.
type ResourceElementDef struct {
	Name string
	// HasTokenReplacer marks that policy resource values for this element may
	// carry macro tokens (e.g. "${USER}") that get expanded before matching.
	HasTokenReplacer bool
}

// ServiceDef carries the resource hierarchy and the implied-grants table for
// one service (the logical system the policies protect, e.g. a database
// engine or a filesystem).
type ServiceDef struct {
	Name      string
	Hierarchy []ResourceElementDef
	// ImpliedGrants maps an access type to the full set of access types it
	// implies, including itself. An access type absent from the map implies
	// only itself.
	ImpliedGrants map[string][]string
}

// ElementNames returns the resource hierarchy's element names in order.
func (d *ServiceDef) ElementNames() []string {
	names := make([]string, len(d.Hierarchy))
	for i, e := range d.Hierarchy {
		names[i] = e.Name
	}
	return names
}

// hasTokenReplacer reports whether the named resource element supports macro
// token expansion.
func (d *ServiceDef) hasTokenReplacer(elementName string) bool {
	for _, e := range d.Hierarchy {
		if e.Name == elementName {
			return e.HasTokenReplacer
		}
	}
	return false
}

// expandAccessType returns access type plus every access type it transitively
// implies, via the service-def's implied-grants table.
func (d *ServiceDef) expandAccessType(accessType string) []string {
	if implied, ok := d.ImpliedGrants[accessType]; ok && len(implied) > 0 {
		return implied
	}
	return []string{accessType}
}

// GetAllAccessTypes walks the item collections relevant to policy.Type,
// expands each declared access via implied grants, and returns the
// accumulated set. An empty result for a recognized policy type is widened to
// {AdminAccess}; an unrecognized type yields an empty set and is logged, per
// the spec's "unknown policy types are not granted the admin sentinel" rule.
func GetAllAccessTypes(p *Policy, serviceDef *ServiceDef) map[string]bool {
	collections := p.itemCollections()
	if collections == nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, serviceDefLoggerComponentName)).
			Error("unknown policy type, no access types computed", log.String("policyType", string(p.Type)),
				log.Int("policyId", int(p.ID)))
		return map[string]bool{}
	}

	result := map[string]bool{}
	for _, items := range collections {
		for _, item := range items {
			for _, access := range item.Accesses {
				for _, expanded := range serviceDef.expandAccessType(access.Type) {
					result[expanded] = true
				}
			}
		}
	}

	if len(result) == 0 {
		result[AdminAccess] = true
	}
	return result
}

// principalAccessMaps accumulates, per principal kind, the expanded access
// types granted to each principal name across a policy's item collections.
type principalAccessMaps struct {
	users  map[string]map[string]bool
	groups map[string]map[string]bool
	roles  map[string]map[string]bool
}

func newPrincipalAccessMaps() *principalAccessMaps {
	return &principalAccessMaps{
		users:  map[string]map[string]bool{},
		groups: map[string]map[string]bool{},
		roles:  map[string]map[string]bool{},
	}
}

func accumulate(dst map[string]map[string]bool, principals []string, expanded []string) {
	for _, principal := range principals {
		set, ok := dst[principal]
		if !ok {
			set = map[string]bool{}
			dst[principal] = set
		}
		for _, a := range expanded {
			set[a] = true
		}
	}
}

func buildPrincipalAccessMaps(p *Policy, serviceDef *ServiceDef) *principalAccessMaps {
	maps := newPrincipalAccessMaps()
	collections := p.itemCollections()
	for _, items := range collections {
		for _, item := range items {
			var expanded []string
			for _, access := range item.Accesses {
				expanded = append(expanded, serviceDef.expandAccessType(access.Type)...)
			}
			accumulate(maps.users, item.Users, expanded)
			accumulate(maps.groups, item.Groups, expanded)
			accumulate(maps.roles, item.Roles, expanded)
		}
	}
	return maps
}

// symmetricDelta adds to dst every access type present in exactly one of
// oldSet/newSet for each principal across both maps.
func symmetricDelta(dst map[string]bool, oldMap, newMap map[string]map[string]bool) {
	for principal, newSet := range newMap {
		oldSet := oldMap[principal]
		for accessType := range newSet {
			if !oldSet[accessType] {
				dst[accessType] = true
			}
		}
	}
	for principal, oldSet := range oldMap {
		newSet := newMap[principal]
		for accessType := range oldSet {
			if !newSet[accessType] {
				dst[accessType] = true
			}
		}
	}
}

// GetAllModifiedAccessTypes computes the union of symmetric differences of
// per-principal expanded access types between oldPolicy and newPolicy, across
// users, groups, and roles. An empty delta is widened to {AdminAccess}.
func GetAllModifiedAccessTypes(oldPolicy, newPolicy *Policy, serviceDef *ServiceDef) map[string]bool {
	oldMaps := buildPrincipalAccessMaps(oldPolicy, serviceDef)
	newMaps := buildPrincipalAccessMaps(newPolicy, serviceDef)

	delta := map[string]bool{}
	symmetricDelta(delta, oldMaps.users, newMaps.users)
	symmetricDelta(delta, oldMaps.groups, newMaps.groups)
	symmetricDelta(delta, oldMaps.roles, newMaps.roles)

	if len(delta) == 0 {
		delta[AdminAccess] = true
	}
	return delta
}
