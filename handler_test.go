package courier_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hexlane/courier"
)

type testGreetingMessage struct {
	Greeting      string `json:"greeting"`
	Name          string `json:"name"`
	CorrelationID string `json:"-"`
}

func (m *testGreetingMessage) SetCorrelationID(id string) {
	m.CorrelationID = id
}

func greetingEvent(attrs courier.Attributes) courier.Event {
	return &stubEvent{
		subscription: "greetings",
		msg: &courier.Message{
			ID:         "123",
			Attributes: attrs,
			Body:       []byte(`{"greeting":"Hello","name":"Test"}`),
		},
	}
}

func TestCreateHandler_PointerType_CorrelationID(t *testing.T) {
	consumer := func(ctx context.Context, message *testGreetingMessage) error {
		require.Equal(t, "Hello", message.Greeting)
		require.Equal(t, "Test", message.Name)
		require.Equal(t, "correlation-id-123", message.CorrelationID)
		return nil
	}

	jsonDecoder := courier.DecoderFunc(json.Unmarshal)
	handler := courier.CreateHandler(jsonDecoder, consumer)

	event := greetingEvent(courier.Attributes{
		courier.AttrCorrelationID: "correlation-id-123",
	})

	require.NoError(t, handler(context.Background(), event))
}

func TestCreateHandler_NonPointerType(t *testing.T) {
	consumer := func(ctx context.Context, message testGreetingMessage) error {
		require.Equal(t, "Hello", message.Greeting)
		require.Equal(t, "Test", message.Name)
		return nil
	}

	jsonDecoder := courier.DecoderFunc(json.Unmarshal)
	handler := courier.CreateHandler(jsonDecoder, consumer)

	require.NoError(t, handler(context.Background(), greetingEvent(nil)))
}

func TestCreateHandler_PointerType_NoCorrelationID(t *testing.T) {
	consumer := func(ctx context.Context, message *testGreetingMessage) error {
		require.Equal(t, "", message.CorrelationID)
		return nil
	}

	jsonDecoder := courier.DecoderFunc(json.Unmarshal)
	handler := courier.CreateHandler(jsonDecoder, consumer)

	require.NoError(t, handler(context.Background(), greetingEvent(nil)))
}

func TestCreateHandler_DecodeError(t *testing.T) {
	consumer := func(ctx context.Context, message *testGreetingMessage) error {
		t.Error("consumer must not run when decoding fails")
		return nil
	}

	jsonDecoder := courier.DecoderFunc(json.Unmarshal)
	handler := courier.CreateHandler(jsonDecoder, consumer)

	event := &stubEvent{
		subscription: "greetings",
		msg: &courier.Message{
			ID:   "123",
			Body: []byte(`not json`),
		},
	}

	require.Error(t, handler(context.Background(), event))
}

func TestCreateHandler_MiddlewareApplied(t *testing.T) {
	consumer := func(ctx context.Context, message testGreetingMessage) error {
		return nil
	}

	calls := 0
	mw := func(next courier.Handler) courier.Handler {
		return func(ctx context.Context, e courier.Event) error {
			calls++
			return next(ctx, e)
		}
	}

	jsonDecoder := courier.DecoderFunc(json.Unmarshal)
	handler := courier.CreateHandler(jsonDecoder, consumer, mw)

	require.NoError(t, handler(context.Background(), greetingEvent(nil)))
	require.Equal(t, 1, calls)
}
