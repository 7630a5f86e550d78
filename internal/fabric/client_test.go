package fabric

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/fabctl/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoInjectsHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, auth.StaticToken("secret-token"))
	resp, err := client.Do(context.Background(), http.MethodGet, "/v1/workspaces", nil)
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())

	assert.Equal(t, "Bearer secret-token", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("x-ms-client-request-id"))
	assert.Empty(t, got.Get("Content-Type"), "GET without body sends no content type")
}

func TestDoSendsJSONBody(t *testing.T) {
	t.Parallel()

	var contentType, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, auth.StaticToken("t"))
	_, err := client.Do(context.Background(), http.MethodPost, "/v1/workspaces", CreateWorkspaceRequest{DisplayName: "Sales"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Contains(t, body, `"displayName":"Sales"`)
}

func TestDoClassifiesTimeoutAsSynthetic408(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, auth.StaticToken("t"), WithTimeout(20*time.Millisecond))
	resp, err := client.Do(context.Background(), http.MethodGet, "/v1/workspaces", nil)
	require.NoError(t, err, "a timeout is a response, not an error")

	assert.Equal(t, http.StatusRequestTimeout, resp.StatusCode)

	apiErr := errorFromResponse(resp)
	require.NotNil(t, apiErr)
	assert.Equal(t, "RequestTimeout", apiErr.ErrorCode)
	assert.Equal(t, NotifyWarning, apiErr.Level)
	assert.True(t, apiErr.Retryable())
}

func TestDoKeepsNonTimeoutTransportFailuresAsErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := New(server.URL, auth.StaticToken("t"))
	_, err := client.Do(context.Background(), http.MethodGet, "/v1/workspaces", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/v1/workspaces")
}

func TestDoAbsolutePathBypassesBaseURL(t *testing.T) {
	t.Parallel()

	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := New("http://unreachable.invalid", auth.StaticToken("t"))
	_, err := client.Do(context.Background(), http.MethodGet, server.URL+"/v1/operations/op-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1/operations/op-1", path)
}

func TestErrorFromResponseMapsEnvelope(t *testing.T) {
	t.Parallel()

	resp := &Response{
		StatusCode: http.StatusForbidden,
		Header:     http.Header{},
		Body:       []byte(`{"errorCode":"InsufficientPrivileges","message":"You need admin rights.","requestId":"req-9"}`),
	}

	apiErr := errorFromResponse(resp)
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "InsufficientPrivileges", apiErr.ErrorCode)
	assert.Equal(t, "You need admin rights.", apiErr.UserMessage)
	assert.Equal(t, "req-9", apiErr.RequestID)
	assert.Equal(t, NotifyError, apiErr.Level)
	assert.False(t, apiErr.Retryable())
	assert.True(t, strings.HasPrefix(apiErr.LearnMoreURL(), "https://learn.microsoft.com/"))
}

func TestErrorFromResponseWithoutEnvelope(t *testing.T) {
	t.Parallel()

	resp := &Response{StatusCode: http.StatusBadGateway, Header: http.Header{}, Body: []byte("<html>")}

	apiErr := errorFromResponse(resp)
	require.NotNil(t, apiErr)
	assert.Equal(t, "request failed with status 502", apiErr.UserMessage)
	assert.Empty(t, apiErr.LearnMoreURL(), "5xx never links documentation")
	assert.True(t, apiErr.Retryable())
}

func TestErrorFromResponseSuccessIsNil(t *testing.T) {
	t.Parallel()

	resp := &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(`{}`)}
	assert.Nil(t, errorFromResponse(resp))
	assert.NoError(t, ErrorFromResponse(resp))
}

func TestSortWorkspacesPersonalFirst(t *testing.T) {
	t.Parallel()

	ws := []Workspace{
		{ID: "1", DisplayName: "zeta", Type: "Workspace"},
		{ID: "2", DisplayName: "My workspace", Type: WorkspaceTypePersonal},
		{ID: "3", DisplayName: "Alpha", Type: "Workspace"},
		{ID: "4", DisplayName: "beta", Type: "Workspace"},
	}
	SortWorkspaces(ws)

	var names []string
	for _, w := range ws {
		names = append(names, w.DisplayName)
	}
	assert.Equal(t, []string{"My workspace", "Alpha", "beta", "zeta"}, names)
}
