package transport

import (
	"context"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/logger"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrumented wraps a transport with logging and tracing. Requests get a
// span carrying the command type; oneway traffic and inbound commands are
// logged at debug level.
type Instrumented struct {
	BaseFilter
	tracer trace.Tracer
}

func NewInstrumented(next Transport) *Instrumented {
	i := &Instrumented{
		BaseFilter: NewBaseFilter(next, KindLogging),
		tracer:     otel.Tracer("pkg/transport"),
	}
	i.BindSelf(i)
	next.SetListener(i)
	return i
}

func (i *Instrumented) Oneway(ctx context.Context, cmd commands.Command) error {
	logger.L().DebugContext(ctx, "sending command",
		"type", cmd.DataStructureType(), "command_id", cmd.GetCommandId())
	err := i.BaseFilter.Oneway(ctx, cmd)
	if err != nil {
		logger.L().ErrorContext(ctx, "failed to send command",
			"type", cmd.DataStructureType(), "error", err)
	}
	return err
}

func (i *Instrumented) Request(ctx context.Context, cmd commands.Command, timeout time.Duration) (commands.Command, error) {
	ctx, span := i.tracer.Start(ctx, "transport.Request", trace.WithAttributes(
		attribute.Int("openwire.type", int(cmd.DataStructureType())),
	))
	defer span.End()

	response, err := i.BaseFilter.Request(ctx, cmd, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "request failed",
			"type", cmd.DataStructureType(), "command_id", cmd.GetCommandId(), "error", err)
		return response, err
	}
	span.SetStatus(codes.Ok, "response received")
	return response, nil
}

func (i *Instrumented) OnCommand(cmd commands.Command) {
	logger.L().Debug("received command",
		"type", cmd.DataStructureType(), "command_id", cmd.GetCommandId())
	i.BaseFilter.OnCommand(cmd)
}

func (i *Instrumented) OnException(err error) {
	logger.L().Error("transport exception", "error", err)
	i.BaseFilter.OnException(err)
}
