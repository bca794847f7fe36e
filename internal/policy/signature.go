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
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ResourceSignature returns a canonical string identifying the set of
// resources a policy's Resources and AdditionalResources admit. Two policies
// with equal signatures pattern-match exactly the same resource set; this is
// the criterion the two-phase modify check uses to decide between a
// delta-only authorization and a retire-and-install authorization.
func ResourceSignature(p *Policy) string {
	var parts []string
	parts = append(parts, canonicalizeResource(p.Resources))
	for _, additional := range p.AdditionalResources {
		parts = append(parts, canonicalizeResource(additional))
	}
	// AdditionalResources order does not change what is matched — the policy
	// matches if resources OR any additional-resources entry matches the
	// request — so normalize order before joining.
	sort.Strings(parts[1:])

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// canonicalizeResource renders one ResourceDescriptor as a stable string:
// elements sorted by name, values sorted within each element, exclusion and
// recursion flags included since they change what the pattern admits.
func canonicalizeResource(r ResourceDescriptor) string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(';')
		}
		pr := r[name]
		values := append([]string(nil), pr.Values...)
		sort.Strings(values)

		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(values, ","))
		if pr.IsExcludes {
			b.WriteString(":excludes")
		}
		if pr.IsRecursive {
			b.WriteString(":recursive")
		}
	}
	return b.String()
}
