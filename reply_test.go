package courier_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hexlane/courier"
)

type testRequest struct {
	Question string `json:"question"`
}

type testResponse struct {
	Answer string `json:"answer"`
}

func TestReplyHandlerPublishesToReplyTopic(t *testing.T) {
	replies := &fakeTopic{id: "reply-id"}
	replyPub, err := courier.NewPublisher(replies)
	require.NoError(t, err)

	var resolvedTopic string
	resolve := func(topic string) (*courier.Publisher, error) {
		resolvedTopic = topic
		return replyPub, nil
	}

	handler := courier.CreateReplyHandler(
		courier.DecoderFunc(json.Unmarshal),
		resolve,
		func(ctx context.Context, req testRequest) (testResponse, error) {
			return testResponse{Answer: req.Question + "!"}, nil
		},
	)

	attrs := courier.Attributes{}
	attrs.SetReplyTo("answers")
	event := &stubEvent{
		subscription: "questions",
		msg: &courier.Message{
			ID:         "req-1",
			Attributes: attrs,
			Body:       []byte(`{"question":"ping"}`),
		},
	}

	require.NoError(t, handler(context.Background(), event))
	require.Equal(t, "answers", resolvedTopic)
	require.Len(t, replies.published, 1)
	require.JSONEq(t, `{"answer":"ping!"}`, string(replies.published[0].Data))
	require.Equal(t, "req-1", replies.published[0].Attributes.GetReplyMessageID())
}

func TestReplyHandlerSkipsWithoutReplyTo(t *testing.T) {
	replies := &fakeTopic{id: "reply-id"}
	replyPub, err := courier.NewPublisher(replies)
	require.NoError(t, err)

	handler := courier.CreateReplyHandler(
		courier.DecoderFunc(json.Unmarshal),
		func(string) (*courier.Publisher, error) { return replyPub, nil },
		func(ctx context.Context, req testRequest) (testResponse, error) {
			return testResponse{Answer: "unused"}, nil
		},
	)

	event := &stubEvent{
		subscription: "questions",
		msg: &courier.Message{
			ID:   "req-1",
			Body: []byte(`{"question":"ping"}`),
		},
	}

	require.NoError(t, handler(context.Background(), event))
	require.Empty(t, replies.published)
}
