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

// Package roles holds the role name → members table consulted to compute a
// caller's effective roles, and is the concrete RolesProvider the policy admin
// façade holds. The table itself is plain data; all synchronization is the
// embedding Admin's lock, per the spec's "mutable under the write lock only"
// invariant — Table has no lock of its own.
package roles

// Table maps a role name to the users and groups who hold it.
type Table struct {
	members map[string]roleMembers
}

type roleMembers struct {
	users  map[string]bool
	groups map[string]bool
}

// NewTable builds a Table from a role → (users, groups) definition.
func NewTable(definitions map[string]struct {
	Users  []string
	Groups []string
}) *Table {
	t := &Table{members: make(map[string]roleMembers, len(definitions))}
	for role, def := range definitions {
		rm := roleMembers{users: map[string]bool{}, groups: map[string]bool{}}
		for _, u := range def.Users {
			rm.users[u] = true
		}
		for _, g := range def.Groups {
			rm.groups[g] = true
		}
		t.members[role] = rm
	}
	return t
}

// GetRolesForUserAndGroups returns every role for which user is a direct
// member, or any of groups is a member.
func (t *Table) GetRolesForUserAndGroups(user string, groups []string) []string {
	var result []string
	for role, rm := range t.members {
		if rm.users[user] {
			result = append(result, role)
			continue
		}
		for _, g := range groups {
			if rm.groups[g] {
				result = append(result, role)
				break
			}
		}
	}
	return result
}
