package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "canvas-backend/pkg/errors"
)

type echoCommand struct {
	Value string
}

func (c echoCommand) Validate() error {
	if c.Value == "" {
		return apperrors.NewValidationError("value is required")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

func echoHandler() CommandHandler {
	return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return cmd.(echoCommand).Value, nil
	})
}

func TestCommandBusDispatch(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(echoCommand{}, echoHandler()))

	result, err := b.Send(context.Background(), echoCommand{Value: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestCommandBusRejectsDuplicateRegistration(t *testing.T) {
	b := NewCommandBus()
	require.NoError(t, b.Register(echoCommand{}, echoHandler()))
	assert.Error(t, b.Register(echoCommand{}, echoHandler()))
}

func TestCommandBusValidatesBeforeDispatch(t *testing.T) {
	called := false
	b := NewCommandBus()
	require.NoError(t, b.Register(echoCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		called = true
		return nil, nil
	})))

	_, err := b.Send(context.Background(), echoCommand{})
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, called)
}

func TestCommandBusMissingHandler(t *testing.T) {
	_, err := NewCommandBus().Send(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestPipelineOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}

	b := NewCommandBus(mark("outer"), mark("inner"))
	require.NoError(t, b.Register(echoCommand{}, echoHandler()))
	_, err := b.Send(context.Background(), echoCommand{Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoggingMiddlewareAssignsOperationID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	var seen string

	b := NewCommandBus(LoggingMiddleware(zap.New(core)))
	require.NoError(t, b.Register(echoCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		seen = OperationID(ctx)
		return nil, errors.New("boom")
	})))

	_, err := b.Send(context.Background(), echoCommand{Value: "x"})
	require.Error(t, err)
	assert.NotEmpty(t, seen)

	failed := logs.FilterMessage("Command failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "echoCommand", failed[0].ContextMap()["command"])
	assert.Equal(t, seen, failed[0].ContextMap()["operationID"])
}

func TestTimeoutMiddleware(t *testing.T) {
	b := NewCommandBus(TimeoutMiddleware(5 * time.Millisecond))
	require.NoError(t, b.Register(echoCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})))

	_, err := b.Send(context.Background(), echoCommand{Value: "x"})
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeTimeout, appErr.Type)
}

func TestLoggingMiddlewareKeepsCallerOperationID(t *testing.T) {
	var seen string
	b := NewCommandBus(LoggingMiddleware(zap.NewNop()))
	require.NoError(t, b.Register(echoCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		seen = OperationID(ctx)
		return nil, nil
	})))

	_, err := b.Send(WithOperationID(context.Background(), "op-1"), echoCommand{Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, "op-1", seen)
}
