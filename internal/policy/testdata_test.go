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

// testServiceDef is a three-level rdbms-like hierarchy shared by this
// package's tests, with "select" implying itself and "all" implying the
// full read/write vocabulary.
func testServiceDef() *ServiceDef {
	return &ServiceDef{
		Name: "testdb",
		Hierarchy: []ResourceElementDef{
			{Name: "database"},
			{Name: "table"},
			{Name: "column", HasTokenReplacer: true},
		},
		ImpliedGrants: map[string][]string{
			"all": {"all", "select", "update", "delete"},
		},
	}
}

func resourceOf(database, table, column string) ResourceDescriptor {
	r := ResourceDescriptor{}
	if database != "" {
		r["database"] = &PolicyResource{Values: []string{database}}
	}
	if table != "" {
		r["table"] = &PolicyResource{Values: []string{table}}
	}
	if column != "" {
		r["column"] = &PolicyResource{Values: []string{column}}
	}
	return r
}
