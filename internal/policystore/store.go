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

// Package policystore provides the persistent lookup the policy admin's
// two-phase modify check uses to fetch a policy's previously-stored version
// by ID. It is the one external collaborator the admin façade blocks on.
package policystore

import (
	"context"
	"database/sql"
	"encoding/json"

	dbmodel "github.com/tianyayunhai/ranger/internal/system/database/model"
	"github.com/tianyayunhai/ranger/internal/system/database/provider"
	"github.com/tianyayunhai/ranger/internal/system/log"

	"github.com/tianyayunhai/ranger/internal/policy"
)

const loggerComponentName = "PolicyStore"

var getPolicyQuery = dbmodel.DBQuery{
	ID:    "GET_POLICY_BY_ID",
	Query: "SELECT id, service_name, zone_name, policy_type, definition FROM policies WHERE id = ?",
}

// ServiceStore resolves a policy's previously-committed version by ID. A
// missing row or a query failure both return (nil, err); the admin façade
// treats either as "old policy absent" per the spec's conservative fallback.
type ServiceStore interface {
	GetPolicy(ctx context.Context, id int64) (*policy.Policy, error)
}

// dbServiceStore implements ServiceStore against the "policy" data source,
// storing each policy's definition as a JSON blob alongside a few indexed
// columns used for the lookup itself.
type dbServiceStore struct {
	db     dbmodel.DBInterface
	dbType string
}

// NewServiceStore opens (or reuses) the policy database connection and
// returns a ServiceStore backed by it.
func NewServiceStore() (ServiceStore, error) {
	db, dbType, err := provider.GetDBProvider().GetDBClient("policy")
	if err != nil {
		return nil, err
	}
	return &dbServiceStore{db: db, dbType: dbType}, nil
}

// GetPolicy implements ServiceStore.
func (s *dbServiceStore) GetPolicy(ctx context.Context, id int64) (*policy.Policy, error) {
	logger := log.GetLoggerWithContext(ctx).With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	query := getPolicyQuery.GetQuery(s.dbType)
	rows, err := s.db.Query(query, id)
	if err != nil {
		logger.Warn("failed to query policy", log.Int("policyId", int(id)), log.Error(err))
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, sql.ErrNoRows
	}

	var (
		rowID       int64
		serviceName string
		zoneName    string
		policyType  string
		definition  []byte
	)
	if err := rows.Scan(&rowID, &serviceName, &zoneName, &policyType, &definition); err != nil {
		logger.Warn("failed to scan policy row", log.Int("policyId", int(id)), log.Error(err))
		return nil, err
	}

	var p policy.Policy
	if err := json.Unmarshal(definition, &p); err != nil {
		logger.Warn("failed to unmarshal policy definition", log.Int("policyId", int(id)), log.Error(err))
		return nil, err
	}
	p.ID = rowID
	p.ZoneName = zoneName
	p.Type = policy.PolicyType(policyType)

	return &p, nil
}
