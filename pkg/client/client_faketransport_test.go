package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aiproto/aiproto/internal/faketransport"
	"github.com/aiproto/aiproto/pkg/request"
	"github.com/aiproto/aiproto/pkg/transport"
)

func TestChatAgainstFakeTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	fake := faketransport.NewMockIssuer(ctrl)
	fake.EXPECT().Issue(gomock.Any(), gomock.Any()).Return(&transport.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"choices":[{"message":{"content":"hi from fake"},"finish_reason":"stop"}]}`),
		Headers:    http.Header{},
	}, nil)

	m := testManifest(t, "https://example.test")
	c := NewWithTransport(Config{}, staticResolver{m}, nil, fake)

	resp, stats, err := c.Chat(context.Background(), &request.Unified{
		Model:    "fakeprovider/gpt-test",
		Messages: []request.Message{{Role: request.RoleUser, Text: "hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hi from fake", resp.Content)
	require.Equal(t, 1, stats.Attempts)
}
