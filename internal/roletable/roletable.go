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

// Package roletable builds a roles.Table from a declarative YAML document —
// the bootstrap path for deployments that define roles as files rather than
// rows in the policy store, mirroring how the teacher's role package treats a
// file-based store as an alternate backing for the same Role shape.
package roletable

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tianyayunhai/ranger/internal/roles"
	"github.com/tianyayunhai/ranger/internal/system/log"
)

const loggerComponentName = "RoleTable"

// memberDocument is one role entry as declared in YAML.
type memberDocument struct {
	ID     string   `yaml:"id,omitempty"`
	Name   string   `yaml:"name"`
	Users  []string `yaml:"users,omitempty"`
	Groups []string `yaml:"groups,omitempty"`
}

// document is the on-disk shape of a roles file: a flat list of role
// definitions, each naming its direct user and group members.
type document struct {
	Roles []memberDocument `yaml:"roles"`
}

// Load reads and parses a roles YAML file from path into a roles.Table.
func Load(path string) (*roles.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roles file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a roles YAML document into a roles.Table. An entry that omits
// its id is assigned a generated one, matching the teacher's file-based
// store's "role.ID = id when unset" bootstrap convention; the generated id
// plays no role in membership lookup, which is keyed by name.
func Parse(data []byte) (*roles.Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing roles file: %w", err)
	}

	definitions := make(map[string]struct {
		Users  []string
		Groups []string
	}, len(doc.Roles))

	seen := make(map[string]bool, len(doc.Roles))
	for _, r := range doc.Roles {
		if r.Name == "" {
			return nil, fmt.Errorf("roles file: role name is required")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("roles file: duplicate role %q", r.Name)
		}
		seen[r.Name] = true

		id := r.ID
		if id == "" {
			id = uuid.NewString()
			log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).Debug(
				"generated id for declarative role", log.String("role", r.Name), log.String("id", id))
		}

		definitions[r.Name] = struct {
			Users  []string
			Groups []string
		}{Users: r.Users, Groups: r.Groups}
	}

	return roles.NewTable(definitions), nil
}
