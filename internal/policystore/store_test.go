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

package policystore

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	dbmodel "github.com/tianyayunhai/ranger/internal/system/database/model"
)

type PolicyStoreTestSuite struct {
	suite.Suite
	mockDB *sql.DB
	mock   sqlmock.Sqlmock
	store  *dbServiceStore
}

func TestPolicyStoreTestSuite(t *testing.T) {
	suite.Run(t, new(PolicyStoreTestSuite))
}

func (suite *PolicyStoreTestSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	suite.Require().NoError(err)
	suite.mockDB = db
	suite.mock = mock
	suite.store = &dbServiceStore{db: dbmodel.NewDB(db), dbType: "postgres"}
}

func (suite *PolicyStoreTestSuite) TearDownTest() {
	suite.mockDB.Close()
}

func (suite *PolicyStoreTestSuite) TestGetPolicyScansMatchingRow() {
	definition := `{"allow":[{"users":["alice"],"accesses":[{"type":"select","isAllowed":true}]}]}`
	rows := sqlmock.NewRows([]string{"id", "service_name", "zone_name", "policy_type", "definition"}).
		AddRow(int64(42), "testdb", "finance-zone", "ACCESS", []byte(definition))
	suite.mock.ExpectQuery("SELECT id, service_name, zone_name, policy_type, definition FROM policies WHERE id = ?").
		WithArgs(int64(42)).WillReturnRows(rows)

	p, err := suite.store.GetPolicy(context.Background(), 42)
	suite.NoError(err)
	suite.Equal(int64(42), p.ID)
	suite.Equal("finance-zone", p.ZoneName)
	suite.Len(p.Allow, 1)
}

func (suite *PolicyStoreTestSuite) TestGetPolicyNoRowsReturnsErrNoRows() {
	rows := sqlmock.NewRows([]string{"id", "service_name", "zone_name", "policy_type", "definition"})
	suite.mock.ExpectQuery("SELECT id, service_name, zone_name, policy_type, definition FROM policies WHERE id = ?").
		WithArgs(int64(7)).WillReturnRows(rows)

	_, err := suite.store.GetPolicy(context.Background(), 7)
	suite.ErrorIs(err, sql.ErrNoRows)
}

func (suite *PolicyStoreTestSuite) TestGetPolicyQueryErrorPropagates() {
	suite.mock.ExpectQuery("SELECT id, service_name, zone_name, policy_type, definition FROM policies WHERE id = ?").
		WithArgs(int64(9)).WillReturnError(sql.ErrConnDone)

	_, err := suite.store.GetPolicy(context.Background(), 9)
	suite.ErrorIs(err, sql.ErrConnDone)
}
