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

// Package perftracer wraps the OpenTelemetry trace API behind the
// isEnabled/begin/log contract the policy admin façade expects, so tracing
// can be compiled in without pulling in a concrete exporter.
package perftracer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer begins spans around the policy admin's hot paths. A nil or
// non-recording trace.Tracer (the default when no SDK/exporter is wired by
// the embedding application) makes every span a cheap no-op.
type Tracer struct {
	tracer trace.Tracer
	name   string
}

// New wraps the given trace.Tracer under name, used as the span name prefix.
func New(tracer trace.Tracer, name string) *Tracer {
	return &Tracer{tracer: tracer, name: name}
}

// IsEnabled reports whether ctx carries a valid span context or a recording
// span; callers can skip building expensive span attributes when it does
// not. A nil Tracer, or one wrapping a nil trace.Tracer, is never enabled.
func (t *Tracer) IsEnabled(ctx context.Context) bool {
	if t == nil || t.tracer == nil {
		return false
	}
	return trace.SpanContextFromContext(ctx).IsValid() || trace.SpanFromContext(ctx).IsRecording()
}

// Begin starts a span named "<prefix>.<operation>" and returns the function
// to end it; callers defer the returned function. A nil Tracer, or one
// wrapping a nil trace.Tracer (no SDK/exporter wired), makes this a no-op.
func (t *Tracer) Begin(ctx context.Context, operation string) (context.Context, func()) {
	if t == nil || t.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := t.tracer.Start(ctx, t.name+"."+operation)
	return ctx, func() { span.End() }
}

// Log attaches a string attribute to the current span, a cheap substitute for
// a full structured-logging bridge when only trace-local detail is needed. A
// nil Tracer makes this a no-op.
func (t *Tracer) Log(ctx context.Context, key, value string) {
	if t == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String(key, value))
}
