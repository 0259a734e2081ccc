package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpanProviderRebuild  = "moltis.provider.rebuild"
	SpanSandboxExec      = "moltis.sandbox.exec"
	SpanBrowserLaunch    = "moltis.browser.launch"
	SpanChannelDispatch  = "moltis.channel.dispatch"

	AttrSessionKey = "moltis.session_key"
	AttrProvider   = "moltis.provider"
	AttrSandbox    = "moltis.sandbox.backend"
	AttrChannel    = "moltis.channel.type"
	AttrTaskID     = "moltis.task_id"
)

// StartSpan opens a span under the gateway's single tracer scope, attaching
// attrs directly (mirroring the teacher's startReactSpan helper, minus the
// agent-run-id propagation this gateway has no equivalent of).
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err (if any) on span and closes it.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return
	}
	span.SetStatus(codes.Ok, "")
	span.End()
}
