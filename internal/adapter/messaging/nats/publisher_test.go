package nats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewMessage_EncodesPayload(t *testing.T) {
	msg, err := newMessage(context.Background(), "item.created", map[string]string{"item_id": "abc"})
	require.NoError(t, err)

	assert.Equal(t, "item.created", msg.Subject)
	var got map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "abc", got["item_id"])
}

func TestNewMessage_RejectsUnencodablePayload(t *testing.T) {
	_, err := newMessage(context.Background(), "x", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestHeaderCarrier_RoundTripsTraceContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	h := nats.Header{}
	prop := propagation.TraceContext{}
	prop.Inject(ctx, HeaderCarrier(h))
	assert.Contains(t, HeaderCarrier(h).Keys(), "traceparent")

	extracted := trace.SpanContextFromContext(prop.Extract(context.Background(), HeaderCarrier(h)))
	assert.Equal(t, traceID, extracted.TraceID())
	assert.Equal(t, spanID, extracted.SpanID())
}
