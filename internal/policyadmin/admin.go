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

// Package policyadmin is the façade a caller drives: one reader-preferred
// lock guarding an immutable policy.Engine snapshot, the delegated-admin
// access checks built on top of it, and policy discovery. All mutation goes
// through SetRoles or a snapshot swap; every other method only reads.
package policyadmin

import (
	"context"
	"errors"
	"sync"

	"github.com/tianyayunhai/ranger/internal/perftracer"
	"github.com/tianyayunhai/ranger/internal/policy"
	"github.com/tianyayunhai/ranger/internal/policystore"
	"github.com/tianyayunhai/ranger/internal/system/log"
)

const loggerComponentName = "PolicyAdmin"

// RolesProvider resolves a caller's effective roles from their user name and
// group memberships; roles.Table is the concrete implementation, but the
// façade depends only on this narrower shape so tests can substitute a fake.
type RolesProvider interface {
	GetRolesForUserAndGroups(user string, groups []string) []string
}

// Admin is the policy admin façade for one service: a snapshot pointer
// guarded by lock, plus the external collaborators the two-phase modify
// check and discovery consult. A zero Admin is not usable; build one with
// New.
type Admin struct {
	lock     sync.RWMutex
	snapshot *policy.Engine
	roles    RolesProvider
	store    policystore.ServiceStore
	tracer   *perftracer.Tracer

	// lockless disables lock acquisition for deployments that guarantee
	// external serialization. The zero value (false) is the safe default.
	lockless bool

	// lastDeltaStats records what the most recent ApplyDelta call did, for
	// operational visibility; it carries no policy content, only counters.
	lastDeltaStats policy.EngineStats
}

// New builds an Admin wrapping the given initial snapshot. store and tracer
// may be nil; a nil store fails every modify check's "fetch P_old" step as
// "absent", and a nil tracer makes Begin/IsEnabled/Log no-ops.
func New(snapshot *policy.Engine, rolesProvider RolesProvider, store policystore.ServiceStore,
	tracer *perftracer.Tracer) *Admin {
	return &Admin{
		snapshot: snapshot,
		roles:    rolesProvider,
		store:    store,
		tracer:   tracer,
	}
}

// DisableLocking switches a into lockless mode, for deployments that
// guarantee external serialization of every call into a. Must be called
// before a is shared across goroutines.
func (a *Admin) DisableLocking() {
	a.lockless = true
}

func (a *Admin) rLock() {
	if !a.lockless {
		a.lock.RLock()
	}
}

func (a *Admin) rUnlock() {
	if !a.lockless {
		a.lock.RUnlock()
	}
}

func (a *Admin) wLock() {
	if !a.lockless {
		a.lock.Lock()
	}
}

func (a *Admin) wUnlock() {
	if !a.lockless {
		a.lock.Unlock()
	}
}

// GetPolicyVersion returns the current snapshot's policy version.
func (a *Admin) GetPolicyVersion() int64 {
	a.rLock()
	defer a.rUnlock()
	return a.snapshot.PolicyVersion()
}

// GetRoleVersion returns the current snapshot's role version.
func (a *Admin) GetRoleVersion() int64 {
	a.rLock()
	defer a.rUnlock()
	return a.snapshot.RoleVersion()
}

// GetServiceName returns the service this Admin governs.
func (a *Admin) GetServiceName() string {
	a.rLock()
	defer a.rUnlock()
	return a.snapshot.ServiceName()
}

// GetServiceDef returns the service-def the current snapshot was built against.
func (a *Admin) GetServiceDef() *policy.ServiceDef {
	a.rLock()
	defer a.rUnlock()
	return a.snapshot.ServiceDef()
}

// GetRolesFromUserAndGroups resolves user's effective roles, including those
// held via group membership, under the read guard since the roles provider
// may be swapped by SetRoles concurrently.
func (a *Admin) GetRolesFromUserAndGroups(user string, groups []string) []string {
	a.rLock()
	defer a.rUnlock()
	if a.roles == nil {
		return nil
	}
	return a.roles.GetRolesForUserAndGroups(user, groups)
}

// GetZoneNamesForResource returns every zone whose resource prefix contains
// resource.
func (a *Admin) GetZoneNamesForResource(resource policy.ResourceDescriptor) []string {
	a.rLock()
	defer a.rUnlock()
	return a.snapshot.GetZoneNamesForResource(resource)
}

// GetUniquelyMatchedZoneName returns the single zone matching resource, and
// an error if zero or more than one zone matches.
func (a *Admin) GetUniquelyMatchedZoneName(resource policy.ResourceDescriptor) (string, error) {
	a.rLock()
	defer a.rUnlock()
	zone, ok := a.snapshot.GetUniquelyMatchedZoneName(resource)
	if !ok {
		return "", errors.New(NewError(ErrorCodeZoneAmbiguous, "resource does not resolve to exactly one zone").String())
	}
	return zone, nil
}

// SetRoles replaces the roles provider under the write guard; it is one of
// the admin's two mutators (the other being a snapshot swap).
func (a *Admin) SetRoles(rolesProvider RolesProvider) {
	a.wLock()
	defer a.wUnlock()
	a.roles = rolesProvider
}

// ApplyDelta applies delta to the current snapshot via Engine.CloneWithDelta
// and installs the result under the write guard. Returns false (without
// changing the snapshot) when the delta's FromPolicyVersion is stale; the
// caller must reload a fresh ServicePolicies bundle and call ReplaceSnapshot
// instead. When the delta is empty the existing snapshot is reused by
// identity, matching the engine's "reuse" signal. Rebuilt zones run without
// the likely-match pre-filter cache; a caller wanting a cached rebuild should
// reload via NewEngine and ReplaceSnapshot instead.
func (a *Admin) ApplyDelta(delta *policy.PolicyDelta) bool {
	a.wLock()
	defer a.wUnlock()

	next, ok := a.snapshot.CloneWithDeltaStats(delta, nil, &a.lastDeltaStats)
	if !ok {
		return false
	}
	a.snapshot = next
	return true
}

// LastDeltaStats reports what the most recent ApplyDelta call did: reused the
// existing snapshot, rebuilt a subset of zones, or was rejected for a stale
// FromPolicyVersion. It is diagnostic only, not an audit trail.
func (a *Admin) LastDeltaStats() policy.EngineStats {
	a.rLock()
	defer a.rUnlock()
	return a.lastDeltaStats
}

// ReplaceSnapshot installs a wholly new snapshot under the write guard,
// unconditionally. Used after a full reload (e.g. following a rejected
// ApplyDelta, or service startup).
func (a *Admin) ReplaceSnapshot(snapshot *policy.Engine) {
	a.wLock()
	defer a.wUnlock()
	a.snapshot = snapshot
}

// currentSnapshot returns the snapshot pointer under the read guard, for use
// by access.go/discovery.go methods that need more than one accessor call
// against a guaranteed-consistent view.
func (a *Admin) currentSnapshot() *policy.Engine {
	a.rLock()
	defer a.rUnlock()
	return a.snapshot
}

func (a *Admin) logger(ctx context.Context) *log.Logger {
	return log.GetLoggerWithContext(ctx).With(log.String(log.LoggerKeyComponentName, loggerComponentName))
}
