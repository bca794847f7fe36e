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

// Package servicedef loads a policy.ServiceDef from a declarative YAML
// document: the resource hierarchy, which elements carry macro tokens, and
// the implied-grants table. It is the one place a deployment edits to add a
// new protected service without touching Go code.
package servicedef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tianyayunhai/ranger/internal/policy"
)

// resourceElementDocument is one level of the resource hierarchy as declared
// in YAML.
type resourceElementDocument struct {
	Name             string `yaml:"name"`
	HasTokenReplacer bool   `yaml:"hasTokenReplacer,omitempty"`
}

// document is the on-disk shape of a service-def file.
type document struct {
	Name          string                    `yaml:"name"`
	Hierarchy     []resourceElementDocument `yaml:"hierarchy"`
	ImpliedGrants map[string][]string       `yaml:"impliedGrants,omitempty"`
}

// Load reads and parses a service-def YAML file from path.
func Load(path string) (*policy.ServiceDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service-def %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a service-def YAML document and validates it.
func Parse(data []byte) (*policy.ServiceDef, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing service-def: %w", err)
	}
	if err := validate(&doc); err != nil {
		return nil, err
	}

	hierarchy := make([]policy.ResourceElementDef, len(doc.Hierarchy))
	for i, el := range doc.Hierarchy {
		hierarchy[i] = policy.ResourceElementDef{Name: el.Name, HasTokenReplacer: el.HasTokenReplacer}
	}

	return &policy.ServiceDef{
		Name:          doc.Name,
		Hierarchy:     hierarchy,
		ImpliedGrants: normalizeImpliedGrants(doc.ImpliedGrants),
	}, nil
}

func validate(doc *document) error {
	if doc.Name == "" {
		return fmt.Errorf("service-def name is required")
	}
	if len(doc.Hierarchy) == 0 {
		return fmt.Errorf("service-def %q: hierarchy must declare at least one resource element", doc.Name)
	}
	seen := make(map[string]bool, len(doc.Hierarchy))
	for _, el := range doc.Hierarchy {
		if el.Name == "" {
			return fmt.Errorf("service-def %q: resource element name is required", doc.Name)
		}
		if seen[el.Name] {
			return fmt.Errorf("service-def %q: duplicate resource element %q", doc.Name, el.Name)
		}
		seen[el.Name] = true
	}
	return nil
}

// normalizeImpliedGrants ensures every access type implies at least itself,
// matching ServiceDef.expandAccessType's "absent means implies only itself"
// contract made explicit in the loaded table.
func normalizeImpliedGrants(declared map[string][]string) map[string][]string {
	if declared == nil {
		return nil
	}
	normalized := make(map[string][]string, len(declared))
	for accessType, implied := range declared {
		set := map[string]bool{accessType: true}
		for _, i := range implied {
			set[i] = true
		}
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		normalized[accessType] = values
	}
	return normalized
}
