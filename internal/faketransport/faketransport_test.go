package faketransport

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aiproto/aiproto/pkg/transport"
)

func TestMockIssuerReturnsConfiguredResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockIssuer(ctrl)

	want := &transport.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"ok":true}`),
		Headers:    http.Header{"X-Test": []string{"1"}},
	}
	mock.EXPECT().Issue(gomock.Any(), gomock.Any()).Return(want, nil)

	got, err := mock.Issue(context.Background(), transport.Request{Method: "POST", URL: "https://example.test/chat"})
	require.NoError(t, err)
	require.Equal(t, want, got)
}
