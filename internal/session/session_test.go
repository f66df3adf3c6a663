package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetSession(t *testing.T) {
	manager := NewManager()

	sess := manager.CreateSession()
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, manager.ActiveSessionCount())

	found, err := manager.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
}

func TestGetSessionNotFound(t *testing.T) {
	manager := NewManager()

	_, err := manager.GetSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRemoveSession(t *testing.T) {
	manager := NewManager()
	sess := manager.CreateSession()

	manager.RemoveSession(sess.ID)

	assert.Equal(t, 0, manager.ActiveSessionCount())
	_, err := manager.GetSession(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSendEventWithoutCallback(t *testing.T) {
	sess := NewManager().CreateSession()

	err := sess.SendEvent("message", []byte("{}"))
	assert.ErrorIs(t, err, ErrNoEventCallback)
}

func TestSendEventDeliversToCallback(t *testing.T) {
	sess := NewManager().CreateSession()

	var gotEvent string
	var gotData []byte
	sess.EventCallback = func(event string, data []byte) error {
		gotEvent = event
		gotData = data
		return nil
	}

	require.NoError(t, sess.SendEvent("message", []byte(`{"jsonrpc":"2.0"}`)))
	assert.Equal(t, "message", gotEvent)
	assert.JSONEq(t, `{"jsonrpc":"2.0"}`, string(gotData))
}

func TestSessionIDsAreUnique(t *testing.T) {
	manager := NewManager()
	a := manager.CreateSession()
	b := manager.CreateSession()

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, manager.ActiveSessionCount())
}
