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

package policyadmin

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tianyayunhai/ranger/internal/policy"
)

// fakePolicyStore is a minimal policystore.ServiceStore stand-in keyed by
// policy ID, used to drive the two-phase modify check's P_old fetch.
type fakePolicyStore struct {
	byID map[int64]*policy.Policy
}

func newFakePolicyStore() *fakePolicyStore {
	return &fakePolicyStore{byID: map[int64]*policy.Policy{}}
}

func (s *fakePolicyStore) GetPolicy(_ context.Context, id int64) (*policy.Policy, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func adminServiceDef() *policy.ServiceDef {
	return &policy.ServiceDef{
		Name: "testdb",
		Hierarchy: []policy.ResourceElementDef{
			{Name: "database"},
			{Name: "table"},
		},
		ImpliedGrants: map[string][]string{
			"update": {"update", "select"},
		},
	}
}

func dbResource(name string) policy.ResourceDescriptor {
	return policy.ResourceDescriptor{"database": {Values: []string{name}}}
}

// adminAdminPolicy builds an ACCESS delegated-admin policy for aliceAccess
// access types granted to alice over database dbName.
func adminAdminPolicy(id int64, dbName string, aliceAccess ...string) *policy.Policy {
	accesses := make([]policy.Access, len(aliceAccess))
	for i, a := range aliceAccess {
		accesses[i] = policy.Access{Type: a, IsAllowed: true}
	}
	return &policy.Policy{
		ID:        id,
		Type:      policy.PolicyTypeAccess,
		Resources: dbResource(dbName),
		Allow: []policy.PolicyItem{
			{Users: []string{"alice"}, Accesses: accesses},
		},
	}
}

func newTestAdmin(adminPolicies []*policy.Policy, store policystoreStub) *Admin {
	bundle := &policy.ServicePolicies{
		ServiceName:   "testdb",
		PolicyVersion: 1,
		ServiceDef:    adminServiceDef(),
		PoliciesByZone: map[string][]*policy.Policy{
			"": adminPolicies,
		},
	}
	snapshot := policy.NewEngine(bundle, nil)
	return New(snapshot, nil, store, nil)
}

// policystoreStub lets tests pass either a real fakePolicyStore or nil.
type policystoreStub = interface {
	GetPolicy(ctx context.Context, id int64) (*policy.Policy, error)
}

type AccessTestSuite struct {
	suite.Suite
	ctx context.Context
}

func TestAccessTestSuite(t *testing.T) {
	suite.Run(t, new(AccessTestSuite))
}

func (suite *AccessTestSuite) SetupTest() {
	suite.ctx = context.Background()
}

// S1: alice's grant of "update" (implying select) covers a request for both.
func (suite *AccessTestSuite) TestS1GrantCover() {
	admin := newTestAdmin([]*policy.Policy{adminAdminPolicy(1, "sales", "update")}, nil)
	allowed := admin.IsDelegatedAdminAccessAllowed(suite.ctx, dbResource("sales"), "", "alice", nil,
		map[string]bool{"select": true, "update": true})
	suite.True(allowed)
}

// S2: alice's grant of "select" alone does not cover {select, update}.
func (suite *AccessTestSuite) TestS2PartialCover() {
	admin := newTestAdmin([]*policy.Policy{adminAdminPolicy(1, "sales", "select")}, nil)
	allowed := admin.IsDelegatedAdminAccessAllowed(suite.ctx, dbResource("sales"), "", "alice", nil,
		map[string]bool{"select": true, "update": true})
	suite.False(allowed)
}

// S3: signature-equal modify; alice holds admin for "update" only, and the
// symmetric delta between P_old and P_new is exactly {update}.
func (suite *AccessTestSuite) TestS3SignatureEqualModify() {
	store := newFakePolicyStore()
	store.byID[42] = &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("sales"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "select", IsAllowed: true}}},
		},
	}
	admin := newTestAdmin([]*policy.Policy{adminAdminPolicy(1, "sales", "update")}, store)

	newPolicy := &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("sales"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "update", IsAllowed: true}}},
		},
	}
	allowed := admin.IsDelegatedAdminAccessAllowedForModify(suite.ctx, newPolicy, "alice", nil, nil)
	suite.True(allowed)
}

// S4: signature-changed modify requires authorization over both the
// retired and installed resource footprints.
func (suite *AccessTestSuite) TestS4SignatureChangedModifyMissingOneSideFails() {
	store := newFakePolicyStore()
	store.byID[42] = &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("finance"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "select", IsAllowed: true}}},
		},
	}
	// alice is admin on "sales" only, not on "finance" — retiring the old
	// policy's footprint should fail, so the whole modify must fail.
	admin := newTestAdmin([]*policy.Policy{adminAdminPolicy(1, "sales", "select")}, store)

	newPolicy := &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("sales"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "select", IsAllowed: true}}},
		},
	}
	allowed := admin.IsDelegatedAdminAccessAllowedForModify(suite.ctx, newPolicy, "alice", nil, nil)
	suite.False(allowed)
}

func (suite *AccessTestSuite) TestS4SignatureChangedModifyBothSidesCovered() {
	store := newFakePolicyStore()
	store.byID[42] = &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("finance"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "select", IsAllowed: true}}},
		},
	}
	admin := newTestAdmin([]*policy.Policy{
		adminAdminPolicy(1, "finance", "select"),
		adminAdminPolicy(2, "sales", "select"),
	}, store)

	newPolicy := &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("sales"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "select", IsAllowed: true}}},
		},
	}
	allowed := admin.IsDelegatedAdminAccessAllowedForModify(suite.ctx, newPolicy, "alice", nil, nil)
	suite.True(allowed)
}

// S6: read-admin succeeds iff the caller is admin for at least one of the
// policy's access types.
func (suite *AccessTestSuite) TestS6ReadAnySucceedsOnPartialOverlap() {
	admin := newTestAdmin([]*policy.Policy{adminAdminPolicy(1, "sales", "select")}, nil)

	p := &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("sales"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{
				{Type: "select", IsAllowed: true},
				{Type: "update", IsAllowed: true},
			}},
		},
	}
	suite.True(admin.IsDelegatedAdminAccessAllowedForRead(suite.ctx, p, "alice", nil, nil))
}

func (suite *AccessTestSuite) TestS6ReadAnyFailsWithNoOverlap() {
	// alice is admin for "update" on "sales", which this service-def expands
	// to {update, select} — neither of which is "delete".
	admin := newTestAdmin([]*policy.Policy{adminAdminPolicy(1, "sales", "update")}, nil)

	p := &policy.Policy{
		ID:        42,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("sales"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "delete", IsAllowed: true}}},
		},
	}
	suite.False(admin.IsDelegatedAdminAccessAllowedForRead(suite.ctx, p, "alice", nil, nil))
}

// S5: the access types allowed on the policy's primary resource and on each
// of its additionalResources are intersected, and the intersection must
// cover every access type the policy needs — being covered for some access
// type on each resource separately is not enough.
func (suite *AccessTestSuite) TestS5AdditionalResourcesIntersectionLacksUpdate() {
	admin := newTestAdmin([]*policy.Policy{
		adminAdminPolicy(1, "sales", "select"),
		adminAdminPolicy(2, "marketing", "update"),
	}, newFakePolicyStore())

	newPolicy := &policy.Policy{
		ID:                  7,
		Type:                policy.PolicyTypeAccess,
		ZoneName:            "",
		Resources:           dbResource("sales"),
		AdditionalResources: []policy.ResourceDescriptor{dbResource("marketing")},
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "update", IsAllowed: true}}},
		},
	}
	// update implies {update, select}, so the new policy's footprint needs
	// authorization over both. alice's "sales" grant covers only select and
	// her "marketing" grant covers {update, select}; their intersection is
	// {select}, which lacks update.
	suite.False(admin.IsDelegatedAdminAccessAllowedForModify(suite.ctx, newPolicy, "alice", nil, nil))
}

// A missing P_old is treated identically to a fetch error: the modify check
// requires authorization for every access type P_new carries, as a creation.
func (suite *AccessTestSuite) TestModifyWithAbsentOldPolicyRequiresFullNewAuthorization() {
	admin := newTestAdmin([]*policy.Policy{adminAdminPolicy(1, "sales", "select")}, newFakePolicyStore())

	newPolicy := &policy.Policy{
		ID:        99,
		Type:      policy.PolicyTypeAccess,
		ZoneName:  "",
		Resources: dbResource("sales"),
		Allow: []policy.PolicyItem{
			{Users: []string{"bob"}, Accesses: []policy.Access{{Type: "select", IsAllowed: true}}},
		},
	}
	suite.True(admin.IsDelegatedAdminAccessAllowedForModify(suite.ctx, newPolicy, "alice", nil, nil))
}
