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
	"testing"

	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	serviceDef *ServiceDef
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.serviceDef = testServiceDef()
}

func (suite *EngineTestSuite) bundle() *ServicePolicies {
	return &ServicePolicies{
		ServiceName:   "testdb",
		PolicyVersion: 1,
		RoleVersion:   1,
		ServiceDef:    suite.serviceDef,
		PoliciesByZone: map[string][]*Policy{
			"": {{ID: 1, Resources: resourceOf("sales", "", "")}},
			"finance-zone": {{ID: 2, Resources: resourceOf("finance", "", "")}},
		},
	}
}

func (suite *EngineTestSuite) TestNewEngineExposesAccessors() {
	e := NewEngine(suite.bundle(), nil)
	suite.Equal("testdb", e.ServiceName())
	suite.Equal(int64(1), e.PolicyVersion())
	suite.Equal(int64(1), e.RoleVersion())
	suite.NotNil(e.RepositoryForZone(""))
	suite.NotNil(e.RepositoryForZone("finance-zone"))
	suite.Nil(e.RepositoryForZone("no-such-zone"))
}

func (suite *EngineTestSuite) TestGetUniquelyMatchedZoneName() {
	e := NewEngine(suite.bundle(), nil)
	zone, ok := e.GetUniquelyMatchedZoneName(resourceOf("finance", "invoices", ""))
	suite.True(ok)
	suite.Equal("finance-zone", zone)
}

func (suite *EngineTestSuite) TestGetUniquelyMatchedZoneNameAmbiguous() {
	bundle := suite.bundle()
	bundle.PoliciesByZone["another-zone"] = []*Policy{{ID: 3, Resources: resourceOf("finance", "", "")}}
	e := NewEngine(bundle, nil)
	_, ok := e.GetUniquelyMatchedZoneName(resourceOf("finance", "invoices", ""))
	suite.False(ok, "two zones both claim the finance prefix")
}

func (suite *EngineTestSuite) TestCloneWithDeltaRejectsStaleVersion() {
	e := NewEngine(suite.bundle(), nil)
	_, ok := e.CloneWithDelta(&PolicyDelta{FromPolicyVersion: 99}, nil)
	suite.False(ok)
}

func (suite *EngineTestSuite) TestCloneWithDeltaEmptyReusesIdentity() {
	e := NewEngine(suite.bundle(), nil)
	next, ok := e.CloneWithDelta(&PolicyDelta{FromPolicyVersion: 1}, nil)
	suite.True(ok)
	suite.Same(e, next, "an empty delta must reuse the existing snapshot identity")
}

func (suite *EngineTestSuite) TestNewEngineWithManagedCacheServesLikelyMatches() {
	e := NewEngineWithManagedCache(suite.bundle())
	matches := e.RepositoryForZone("").GetLikelyMatchPolicyEvaluators(resourceOf("sales", "", ""), PolicyTypeAccess)
	suite.Len(matches, 1)
}

func (suite *EngineTestSuite) TestCloneWithDeltaRebuildsOnlyTouchedZone() {
	e := NewEngine(suite.bundle(), nil)
	defaultRepoBefore := e.RepositoryForZone("")

	delta := &PolicyDelta{
		FromPolicyVersion: 1,
		ZonePolicies: map[string][]*Policy{
			"finance-zone": {{ID: 4, Resources: resourceOf("finance", "payroll", "")}},
		},
	}
	next, ok := e.CloneWithDelta(delta, nil)
	suite.True(ok)
	suite.NotSame(e, next)
	suite.Equal(int64(2), next.PolicyVersion())
	suite.Same(defaultRepoBefore, next.RepositoryForZone(""), "untouched zones are shared by reference")
	suite.NotSame(e.RepositoryForZone("finance-zone"), next.RepositoryForZone("finance-zone"))
}
