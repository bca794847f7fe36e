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

import "github.com/tianyayunhai/ranger/internal/system/error/serviceerror"

// ErrorCode identifies one policyadmin failure mode.
type ErrorCode string

const (
	// ErrorCodeZoneAmbiguous reports that a grant/revoke resource matched
	// no zone or more than one zone, rather than exactly one.
	ErrorCodeZoneAmbiguous ErrorCode = "PAD-1001"
	// ErrorCodeDeltaRejected reports that CloneWithDelta rejected an
	// incremental change set; the caller must reload the full snapshot.
	ErrorCodeDeltaRejected ErrorCode = "PAD-1002"
	// ErrorCodeNoSnapshot reports that no snapshot has been installed yet.
	ErrorCodeNoSnapshot ErrorCode = "PAD-1003"
)

var validErrorCodes = map[ErrorCode]serviceerror.ErrorDefinition{
	ErrorCodeZoneAmbiguous: {
		Type:  serviceerror.ClientErrorType,
		Error: "resource does not match exactly one zone",
	},
	ErrorCodeDeltaRejected: {
		Type:  serviceerror.ServerErrorType,
		Error: "policy delta rejected, full reload required",
	},
	ErrorCodeNoSnapshot: {
		Type:  serviceerror.ServerErrorType,
		Error: "no policy snapshot installed",
	},
}

// NewError builds a ServiceError for code, attaching description as the
// caller-facing detail.
func NewError(code ErrorCode, description string) *serviceerror.ServiceError {
	def, ok := validErrorCodes[code]
	if !ok {
		def = serviceerror.ErrorDefinition{Type: serviceerror.ServerErrorType, Error: "unknown error"}
	}
	return &serviceerror.ServiceError{
		Type:             def.Type,
		Code:             string(code),
		Error:            def.Error,
		ErrorDescription: description,
	}
}
