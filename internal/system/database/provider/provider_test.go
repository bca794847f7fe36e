/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
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

package provider

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tianyayunhai/ranger/internal/system/config"
	"github.com/tianyayunhai/ranger/internal/system/database/model"
)

type DBProviderTestSuite struct {
	suite.Suite
}

func TestDBProviderTestSuite(t *testing.T) {
	suite.Run(t, new(DBProviderTestSuite))
}

func (suite *DBProviderTestSuite) SetupTest() {
	config.ResetRangerRuntime()
}

func (suite *DBProviderTestSuite) TestDriverAndDSN_Postgres() {
	ds := config.DataSource{
		Type: "postgres", Host: "localhost", Port: 5432,
		Username: "ranger", Password: "secret", Name: "policies",
	}
	driver, dsn := driverAndDSN(ds)
	suite.Equal("postgres", driver)
	suite.Contains(dsn, "dbname=policies")
	suite.Contains(dsn, "sslmode=disable")
}

func (suite *DBProviderTestSuite) TestDriverAndDSN_SQLiteDefaultsToMemory() {
	driver, dsn := driverAndDSN(config.DataSource{Type: "sqlite"})
	suite.Equal("sqlite", driver)
	suite.Equal(":memory:", dsn)
}

func (suite *DBProviderTestSuite) TestDriverAndDSN_SQLiteNamedFile() {
	driver, dsn := driverAndDSN(config.DataSource{Type: "sqlite", Name: "ranger.db"})
	suite.Equal("sqlite", driver)
	suite.Equal("ranger.db", dsn)
}

func (suite *DBProviderTestSuite) TestGetDBClient_OpensAndCachesDefaultSQLite() {
	p := &dbProvider{
		clients: make(map[string]model.DBInterface),
		dbType:  make(map[string]string),
	}

	client1, dbType, err := p.GetDBClient("policy")
	suite.Require().NoError(err)
	suite.Equal("sqlite", dbType)
	suite.NotNil(client1)

	client2, _, err := p.GetDBClient("policy")
	suite.Require().NoError(err)
	suite.Same(client1, client2, "second call should reuse the cached connection")
}
