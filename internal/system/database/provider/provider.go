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

// Package provider opens and caches the single database connection backing the
// policy store.
package provider

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/tianyayunhai/ranger/internal/system/config"
	"github.com/tianyayunhai/ranger/internal/system/database/model"
	"github.com/tianyayunhai/ranger/internal/system/log"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const loggerComponentName = "DBProvider"

// DBProviderInterface resolves a named data source to a usable database handle.
type DBProviderInterface interface {
	GetDBClient(name string) (model.DBInterface, string, error)
}

type dbProvider struct {
	mu      sync.Mutex
	clients map[string]model.DBInterface
	dbType  map[string]string
}

var (
	instance     DBProviderInterface
	instanceOnce sync.Once
)

// GetDBProvider returns the process-wide database provider.
func GetDBProvider() DBProviderInterface {
	instanceOnce.Do(func() {
		instance = &dbProvider{
			clients: make(map[string]model.DBInterface),
			dbType:  make(map[string]string),
		}
	})
	return instance
}

// GetDBClient returns the open database handle for the named data source,
// opening and caching it on first use, along with the dialect ("postgres" or
// "sqlite") it was opened as so callers can pick the right DBQuery rewrite.
func (p *dbProvider) GetDBClient(name string) (model.DBInterface, string, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[name]; ok {
		return client, p.dbType[name], nil
	}

	ds := dataSourceFor(name)
	driver, dsn := driverAndDSN(ds)

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database %q: %w", name, err)
	}
	if ds.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(ds.MaxOpenConns)
	}
	if ds.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(ds.MaxIdleConns)
	}

	client := model.NewDB(sqlDB)
	p.clients[name] = client
	p.dbType[name] = ds.Type
	logger.Debug("opened database connection", log.String("name", name), log.String("type", ds.Type))

	return client, ds.Type, nil
}

func dataSourceFor(name string) config.DataSource {
	cfg := config.GetRangerRuntime().Config.Database
	switch name {
	case "policy":
		return cfg.Policy
	default:
		return cfg.Policy
	}
}

func driverAndDSN(ds config.DataSource) (driver string, dsn string) {
	switch ds.Type {
	case "postgres":
		sslMode := ds.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			ds.Host, ds.Port, ds.Username, ds.Password, ds.Name, sslMode)
	default:
		if ds.Name == "" {
			return "sqlite", ":memory:"
		}
		return "sqlite", ds.Name
	}
}
