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

type ResourceMatcherTestSuite struct {
	suite.Suite
	serviceDef *ServiceDef
}

func TestResourceMatcherTestSuite(t *testing.T) {
	suite.Run(t, new(ResourceMatcherTestSuite))
}

func (suite *ResourceMatcherTestSuite) SetupTest() {
	suite.serviceDef = testServiceDef()
}

func (suite *ResourceMatcherTestSuite) TestExactMatch() {
	pattern := resourceOf("sales", "orders", "id")
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.True(m.IsMatch(resourceOf("sales", "orders", "id"), MatchScopeSelf, nil))
}

func (suite *ResourceMatcherTestSuite) TestWildcardValueMatches() {
	pattern := resourceOf("sales", "*", "")
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.True(m.IsMatch(resourceOf("sales", "orders", ""), MatchScopeSelf, nil))
}

func (suite *ResourceMatcherTestSuite) TestExcludesInvertsAdmission() {
	pattern := ResourceDescriptor{
		"database": {Values: []string{"sales"}},
		"table":    {Values: []string{"secret"}, IsExcludes: true},
	}
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.False(m.IsMatch(resourceOf("sales", "secret", ""), MatchScopeSelf, nil))
	suite.True(m.IsMatch(resourceOf("sales", "orders", ""), MatchScopeSelf, nil))
}

func (suite *ResourceMatcherTestSuite) TestScopeAnyAllowsShallowerResource() {
	pattern := resourceOf("sales", "orders", "id")
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.False(m.IsMatch(resourceOf("sales", "", ""), MatchScopeSelf, nil),
		"self scope requires every pattern element to be specified")
	suite.True(m.IsMatch(resourceOf("sales", "", ""), MatchScopeAny, nil),
		"any scope allows a partial path shallower than the pattern")
}

func (suite *ResourceMatcherTestSuite) TestRecursivePatternMatchesDeeperResource() {
	pattern := ResourceDescriptor{
		"database": {Values: []string{"sales"}, IsRecursive: true},
	}
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.True(m.IsMatch(resourceOf("sales", "orders", "id"), MatchScopeSelf, nil),
		"a recursive database-level grant covers every table and column beneath it")
}

func (suite *ResourceMatcherTestSuite) TestNonRecursivePatternRejectsDeeperResource() {
	pattern := resourceOf("sales", "", "")
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.False(m.IsMatch(resourceOf("sales", "orders", "id"), MatchScopeSelf, nil),
		"the pattern stops at database and is not recursive, so a deeper table/column must not match")
}

func (suite *ResourceMatcherTestSuite) TestIsCompleteMatchRejectsSuperset() {
	pattern := resourceOf("sales", "orders", "")
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.False(m.IsCompleteMatch(resourceOf("sales", "orders", "id"), nil))
}

func (suite *ResourceMatcherTestSuite) TestIsCompleteMatchAcceptsSameShape() {
	pattern := resourceOf("sales", "orders", "")
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.True(m.IsCompleteMatch(resourceOf("sales", "orders", ""), nil))
}

func (suite *ResourceMatcherTestSuite) TestIsCompleteMatchRejectsRecursive() {
	pattern := ResourceDescriptor{
		"database": {Values: []string{"sales"}, IsRecursive: true},
	}
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.False(m.IsCompleteMatch(resourceOf("sales", "", ""), nil))
}

func (suite *ResourceMatcherTestSuite) TestMacroExpansionUnderWildcardContext() {
	pattern := ResourceDescriptor{
		"database": {Values: []string{"sales"}},
		"table":    {Values: []string{"orders"}},
		"column":   {Values: []string{"${USER}"}},
	}
	m := NewResourceMatcher(pattern, suite.serviceDef)
	suite.False(m.IsMatch(resourceOf("sales", "orders", "anything"), MatchScopeSelf, nil),
		"without a context the literal token never matches a concrete column value")
	suite.True(m.IsMatch(resourceOf("sales", "orders", "anything"), MatchScopeSelf, WildcardContext),
		"the wildcard context expands ${USER} to the wildcard, which admits any column")
}
