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

// Package policy defines the resource-based policy data model, resource
// matching, and the per-policy evaluator shared by the policy admin façade.
package policy

// PolicyType identifies which item collections a policy carries.
type PolicyType string

const (
	// PolicyTypeAccess is the default policy type: allow/deny/allowExceptions/denyExceptions.
	PolicyTypeAccess PolicyType = "ACCESS"
	// PolicyTypeDataMask masks column values for matching requests.
	PolicyTypeDataMask PolicyType = "DATAMASK"
	// PolicyTypeRowFilter restricts visible rows for matching requests.
	PolicyTypeRowFilter PolicyType = "ROWFILTER"
)

// PolicyResource is one element of a policy's resource pattern: the set of
// values it matches, whether that set is an exclusion list, and whether the
// match recurses into child elements of the resource hierarchy.
type PolicyResource struct {
	Values      []string
	IsExcludes  bool
	IsRecursive bool
}

// ResourceDescriptor maps a resource-element name (e.g. "database", "table",
// "column") to its pattern. Declared as a type so both policy patterns and
// synthetic access-request resources share one shape; the hierarchy order is
// carried by the ServiceDef, not by this map.
type ResourceDescriptor map[string]*PolicyResource

// Access is a single (access type, grant) pair carried by a PolicyItem.
type Access struct {
	Type      string
	IsAllowed bool
}

// PolicyItem grants (or, in the deny collections, withholds) a set of
// accesses to a set of principals. ACCESS, DATAMASK, and ROWFILTER policies
// all share this shape; DATAMASK and ROWFILTER items simply carry a single
// access type in practice.
type PolicyItem struct {
	Users    []string
	Groups   []string
	Roles    []string
	Accesses []Access
}

// Policy is one access-control rule: a resource pattern plus the principals
// and access types granted (or denied) against it.
type Policy struct {
	ID       int64
	Type     PolicyType
	ZoneName string

	Resources           ResourceDescriptor
	AdditionalResources []ResourceDescriptor

	Allow           []PolicyItem
	Deny            []PolicyItem
	AllowExceptions []PolicyItem
	DenyExceptions  []PolicyItem

	DataMaskItems  []PolicyItem
	RowFilterItems []PolicyItem

	// IsTagPolicy marks a policy whose Resources describe a tag rather than
	// the resource it is ultimately attached to.
	IsTagPolicy bool
}

// itemCollections returns the item collections relevant to this policy's
// type, in the fixed order the spec's access-type walk uses. Unknown types
// yield no collections; callers treat that as "no access types computed".
func (p *Policy) itemCollections() [][]PolicyItem {
	switch p.Type {
	case PolicyTypeAccess, "":
		return [][]PolicyItem{p.Allow, p.Deny, p.AllowExceptions, p.DenyExceptions}
	case PolicyTypeDataMask:
		return [][]PolicyItem{p.DataMaskItems}
	case PolicyTypeRowFilter:
		return [][]PolicyItem{p.RowFilterItems}
	default:
		return nil
	}
}

// effectiveType returns PolicyTypeAccess when Type is unset, matching the
// "default ACCESS when absent" invariant.
func (p *Policy) effectiveType() PolicyType {
	if p.Type == "" {
		return PolicyTypeAccess
	}
	return p.Type
}
