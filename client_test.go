package sgmail

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of the Provider interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Send(ctx context.Context, messages []*Message) (int, error) {
	args := m.Called(ctx, messages)
	return args.Int(0), args.Error(1)
}

func (m *MockProvider) ValidateConfig() error {
	return m.Called().Error(0)
}

func (m *MockProvider) Name() string {
	return "mock"
}

type sendgridStub struct {
	server *httptest.Server
	calls  atomic.Int32
	mu     sync.Mutex
	body   string
}

func newSendGridStub(t *testing.T, status int) *sendgridStub {
	t.Helper()

	stub := &sendgridStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.body = string(data)
		stub.mu.Unlock()
		stub.calls.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(stub.server.Close)

	return stub
}

func (s *sendgridStub) lastBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body
}

func newTestClient(t *testing.T, host string, opts ...Option) *Client {
	t.Helper()

	base := []Option{
		WithSendGrid("test_key"),
		WithSendGridHost(host),
		WithLogging("debug", "json", "discard"),
		WithoutTracing(),
	}
	client, err := New(DefaultConfig(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Parallel()

	client, err := New(DefaultConfig(), WithLogging("info", "json", "discard"))

	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrImproperlyConfigured)
	assert.True(t, IsConfigError(err))
	assert.False(t, IsProviderError(err))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SENDGRID_API_KEY", cfgErr.Setting)
}

func TestNew_EmptyAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultConfig(), WithSendGrid(""))

	assert.True(t, IsConfigError(err))
}

func TestNew_UnsupportedBackend(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultConfig(), WithBackend("postmark", ProviderSettings{}))

	assert.True(t, IsConfigError(err))
}

func TestNew_DoesNotModifySettings(t *testing.T) {
	t.Parallel()

	settings := ProviderSettings{"api_key": "test_key"}
	_, err := New(DefaultConfig(), WithBackend(BackendSendGrid, settings), WithLogging("info", "json", "discard"))
	require.NoError(t, err)

	assert.Equal(t, ProviderSettings{"api_key": "test_key"}, settings)
}

func TestNew_HostOptionDoesNotModifySettings(t *testing.T) {
	t.Parallel()

	settings := ProviderSettings{"api_key": "test_key"}
	_, err := New(DefaultConfig(),
		WithBackend(BackendSendGrid, settings),
		WithSendGridHost("http://localhost:3030"),
		WithLogging("info", "json", "discard"),
	)
	require.NoError(t, err)

	assert.Equal(t, ProviderSettings{"api_key": "test_key"}, settings)
}

func TestClient_Send_NoMessages(t *testing.T) {
	t.Parallel()

	stub := newSendGridStub(t, http.StatusAccepted)
	client := newTestClient(t, stub.server.URL)

	sent, err := client.Send(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, stub.calls.Load())
}

func TestClient_Send_Batch(t *testing.T) {
	t.Parallel()

	stub := newSendGridStub(t, http.StatusAccepted)
	client := newTestClient(t, stub.server.URL)

	sent, err := client.Send(context.Background(),
		&Message{To: []string{"one@example.com"}, Subject: "first"},
		&Message{To: []string{"two@example.com"}, Subject: "second"},
	)

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(1), stub.calls.Load())
	assert.Contains(t, stub.lastBody(), `"from":{"email":"webmaster@localhost"}`)
}

func TestClient_Send_DefaultFromEmail(t *testing.T) {
	t.Parallel()

	stub := newSendGridStub(t, http.StatusAccepted)
	client := newTestClient(t, stub.server.URL, WithDefaultFromEmail("noreply@example.com"))

	msg := &Message{To: []string{"a@b.com"}}
	sent, err := client.Send(context.Background(), msg)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.JSONEq(t, `{
		"from": {"email": "noreply@example.com"},
		"subject": "",
		"content": [{"type": "text/plain", "value": ""}],
		"personalizations": [{"to": [{"email": "a@b.com"}], "subject": ""}]
	}`, stub.lastBody())
	assert.Empty(t, msg.From, "caller's message must not be modified")
}

func TestClient_Send_ProviderError(t *testing.T) {
	t.Parallel()

	stub := newSendGridStub(t, http.StatusInternalServerError)
	client := newTestClient(t, stub.server.URL)

	sent, err := client.Send(context.Background(), &Message{Subject: "x"})

	require.Error(t, err)
	assert.Zero(t, sent)
	assert.True(t, IsProviderError(err))
	assert.False(t, IsConfigError(err))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
}

func TestClient_Send_FailSilently(t *testing.T) {
	t.Parallel()

	stub := newSendGridStub(t, http.StatusInternalServerError)
	client := newTestClient(t, stub.server.URL, WithFailSilently(true))

	sent, err := client.Send(context.Background(), &Message{Subject: "x"})

	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestClient_Send_Closed(t *testing.T) {
	t.Parallel()

	stub := newSendGridStub(t, http.StatusAccepted)
	client := newTestClient(t, stub.server.URL)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.Send(context.Background(), &Message{Subject: "x"})

	require.ErrorIs(t, err, ErrClientClosed)
	assert.Zero(t, stub.calls.Load())
}

func TestClient_Send_AppliesTimeout(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:0", WithTimeout(5*time.Second))
	provider := &MockProvider{}
	client.provider = provider

	msg := &Message{From: "sender@example.com", Subject: "x"}
	provider.On("Send", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 5*time.Second
	}), []*Message{msg}).Return(1, nil)

	sent, err := client.Send(context.Background(), msg)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	provider.AssertExpectations(t)
}

func TestClient_Send_PassesThroughSentCount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:0")
	provider := &MockProvider{}
	client.provider = provider

	provider.On("Send", mock.Anything, mock.Anything).Return(1, NewProviderError("mock", "send_failed", "boom"))

	sent, err := client.Send(context.Background(),
		&Message{From: "a@example.com"},
		&Message{From: "b@example.com"},
	)

	require.Error(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, IsProviderError(err))
	provider.AssertNumberOfCalls(t, "Send", 1)
}

func TestBuildPayload(t *testing.T) {
	t.Parallel()

	msg := &Message{To: []string{"a@b.com"}, TemplateID: "t1"}
	payload := BuildPayload(msg)

	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, "a@b.com", payload.Personalizations[0].To[0].Address)
	assert.Equal(t, "t1", payload.TemplateID)
	assert.Equal(t, "webmaster@localhost", payload.From.Address)
	assert.Equal(t, []*Content{{Type: "text/plain", Value: ""}}, payload.Content)
}
