package reflection

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/ai"
	"github.com/casualjim/genkit/messages"
)

type testPlugin struct{}

func (testPlugin) Name() string { return "test" }

func (testPlugin) Init(_ context.Context, g *genkit.Genkit) error {
	genkit.DefineModel(g, "test", "echo", ai.ModelInfo{Label: "Echo"},
		func(_ context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
			return &ai.ModelResponse{
				Message:      messages.NewModelTextMessage("echo: " + req.Messages[len(req.Messages)-1].Text()),
				FinishReason: ai.FinishReasonStop,
			}, nil
		})
	genkit.DefineModel(g, "test", "broken", ai.ModelInfo{},
		func(context.Context, *ai.ModelRequest) (*ai.ModelResponse, error) {
			return nil, errors.New("model exploded")
		})
	genkit.DefineEmbedder(g, "test", "len", func(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
		resp := &ai.EmbedResponse{}
		for _, d := range req.Documents {
			resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: []float32{float32(len(d.Text()))}})
		}
		return resp, nil
	})
	return nil
}

func newTestServer(t *testing.T, options ...Option) *httptest.Server {
	t.Helper()
	g, err := genkit.Init(context.Background(), genkit.WithPlugins(testPlugin{}))
	require.NoError(t, err)

	s, err := New(g, options...)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestListActions(t *testing.T) {
	server := newTestServer(t)

	status, body := do(t, http.MethodGet, server.URL+"/api/actions", "")
	require.Equal(t, http.StatusOK, status)

	var keys []string
	gjson.Parse(body).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	assert.Equal(t, []string{"/embedder/test/len", "/model/test/broken", "/model/test/echo"}, keys)

	echo := gjson.Get(body, `/model/test/echo`)
	assert.Equal(t, "test/echo", echo.Get("name").String())
	assert.Equal(t, "Echo", echo.Get("description").String())
	assert.True(t, echo.Get("inputSchema.properties.messages").Exists())
	assert.Equal(t, "Echo", echo.Get("metadata.model.label").String())
}

func TestRunAction(t *testing.T) {
	server := newTestServer(t)

	status, body := do(t, http.MethodPost, server.URL+"/api/runAction",
		`{"key":"/model/test/echo","input":{"messages":[{"role":"user","content":[{"text":"hi"}]}]}}`)
	require.Equal(t, http.StatusOK, status, body)

	assert.Equal(t, "echo: hi", gjson.Get(body, "result.message.content.0.text").String())
	assert.Equal(t, "stop", gjson.Get(body, "result.finishReason").String())
	assert.Len(t, gjson.Get(body, "telemetry.traceId").String(), 32)
	assert.True(t, strings.HasPrefix(gjson.Get(body, "telemetry.startedAt").String(), "2025-03-01T12:00:00"))
}

func TestRunAction_Embedder(t *testing.T) {
	server := newTestServer(t)

	status, body := do(t, http.MethodPost, server.URL+"/api/runAction",
		`{"key":"/embedder/test/len","input":{"input":[{"content":[{"text":"four"}]}]}}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"embeddings":[{"embedding":[4]}]}`, gjson.Get(body, "result").Raw)
}

func TestRunAction_Errors(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{name: "malformed body", body: `{"key":`, status: http.StatusBadRequest, message: "malformed request body"},
		{name: "missing key", body: `{"input":{}}`, status: http.StatusBadRequest, message: "action key is required"},
		{name: "unknown action", body: `{"key":"/model/test/nope","input":{}}`, status: http.StatusNotFound, message: "action not found"},
		{name: "missing input", body: `{"key":"/model/test/echo"}`, status: http.StatusBadRequest, message: "invalid action input"},
		{name: "action failure", body: `{"key":"/model/test/broken","input":{"messages":[{"role":"user","content":[{"text":"hi"}]}]}}`, status: http.StatusInternalServerError, message: "model exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, server.URL+"/api/runAction", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, gjson.Get(body, "message").String(), tt.message)
		})
	}
}

func TestEnvs(t *testing.T) {
	server := newTestServer(t, WithEnvs("dev", "prod"))

	status, body := do(t, http.MethodGet, server.URL+"/api/envs", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["dev","prod"]`, body)

	status, _ = do(t, http.MethodGet, server.URL+"/api/__health", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, http.MethodGet, server.URL+"/api/runAction", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	g, err := genkit.Init(context.Background())
	require.NoError(t, err)
	_, err = New(g, WithPort(70000))
	assert.Error(t, err)

	s, err := New(g, WithHost("127.0.0.1"), WithPort(4000))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4000", s.Addr())
}

func TestStart_Shutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	g, err := genkit.Init(context.Background())
	require.NoError(t, err)
	s, err := New(g, WithHost("127.0.0.1"), WithPort(port))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/__health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
