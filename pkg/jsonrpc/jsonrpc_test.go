package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestUnmarshal(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"query","arguments":{"sql":"SELECT 1"}}}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	assert.Equal(t, Version, req.JSONRPC)
	assert.Equal(t, float64(7), req.ID)
	assert.Equal(t, "tools/call", req.Method)
	assert.False(t, req.IsNotification())

	params := struct {
		Name string `json:"name"`
	}{}
	require.NoError(t, json.Unmarshal(req.Params, &params))
	assert.Equal(t, "query", params.Name)
}

func TestIsNotification(t *testing.T) {
	notification := Request{JSONRPC: Version, Method: "notifications/initialized"}
	assert.True(t, notification.IsNotification())

	request := Request{JSONRPC: Version, ID: "abc", Method: "ping"}
	assert.False(t, request.IsNotification())
}

func TestNewResponseWithResult(t *testing.T) {
	req := &Request{JSONRPC: Version, ID: 1, Method: "ping"}

	resp := NewResponse(req, map[string]interface{}{}, nil)

	assert.Equal(t, Version, resp.JSONRPC)
	assert.Equal(t, 1, resp.ID)
	assert.NotNil(t, resp.Result)
	assert.Nil(t, resp.Error)
}

func TestNewResponseWithError(t *testing.T) {
	req := &Request{JSONRPC: Version, ID: 1, Method: "nope"}

	resp := NewResponse(req, nil, MethodNotFoundError("nope"))

	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFoundCode, resp.Error.Code)
}

func TestErrorHelpers(t *testing.T) {
	assert.Equal(t, MethodNotFoundCode, MethodNotFoundError(nil).Code)
	assert.Equal(t, InvalidParamsCode, InvalidParamsError(nil).Code)
	assert.Equal(t, InternalErrorCode, InternalError(nil).Code)

	err := NewError(InvalidParamsCode, "Invalid params", "missing sql")
	assert.Equal(t, "missing sql", err.Data)
	assert.Contains(t, err.Error(), "Invalid params")
}

func TestResponseSerialization(t *testing.T) {
	resp := Response{JSONRPC: Version, ID: 3, Result: map[string]interface{}{"ok": true}}

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{"ok":true}}`, string(raw))
}
