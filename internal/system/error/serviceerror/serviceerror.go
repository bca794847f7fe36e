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

// Package serviceerror defines the ServiceError type behind the policy admin's
// coded failures (policyadmin.ErrorCode). Decision methods exposed to callers
// never return a ServiceError — they return a boolean and log the detail —
// and zone resolution renders one into the text of a plain Go error. The
// store fetch and snapshot rebuild do not use it: they report plain errors
// and boolean results.
package serviceerror

import "fmt"

// ServiceErrorType classifies whether an error is the caller's fault or the
// service's.
type ServiceErrorType string

const (
	// ClientErrorType indicates the caller supplied invalid input.
	ClientErrorType ServiceErrorType = "CLIENT_ERROR"
	// ServerErrorType indicates an internal processing failure.
	ServerErrorType ServiceErrorType = "SERVER_ERROR"
)

// ServiceError carries a stable error code plus human-readable detail.
type ServiceError struct {
	Type             ServiceErrorType
	Code             string
	Error            string
	ErrorDescription string
}

// String renders the error for logging; ServiceError deliberately does not
// implement the built-in error interface since it is always returned as an
// explicit second value, never as an `error`.
func (e *ServiceError) String() string {
	return fmt.Sprintf("%s: %s - %s", e.Code, e.Error, e.ErrorDescription)
}

// ErrorDefinition pairs the fixed Type and Error message for a code, as declared
// by each package's validErrorCodes table.
type ErrorDefinition struct {
	Type  ServiceErrorType
	Error string
}
