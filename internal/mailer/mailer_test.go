package mailer

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
)

func TestTemplates(t *testing.T) {
	m := New(Options{AppURL: "https://app.example.com/"}, logger.NewNop())

	v := m.Verify("jane@example.com", "abc123")
	assert.Equal(t, "jane@example.com", v.To)
	assert.Contains(t, v.Body, "https://app.example.com/#/verify/abc123\n")

	r := m.Reset("jane@example.com", "def456")
	assert.Contains(t, r.Body, "https://app.example.com/#/reset/def456\n")
	assert.Contains(t, r.Subject, "Reset your password")

	c := m.ResetConfirm("jane@example.com")
	assert.Contains(t, c.Body, "jane@example.com has just been changed")
}

func TestSendWithoutSMTPOnlyLogs(t *testing.T) {
	m := New(Options{}, logger.NewNop())
	assert.False(t, m.Enabled())

	err := m.Send(context.Background(), m.Verify("jane@example.com", "abc"))
	assert.NoError(t, err)
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	m := New(Options{}, logger.NewNop())

	err := m.Send(context.Background(), Message{To: " ", Subject: "x"})
	assert.Error(t, err)
}

func TestSendCanceledContext(t *testing.T) {
	m := New(Options{}, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, m.ResetConfirm("jane@example.com"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendUnreachableServer(t *testing.T) {
	// grab a free port and close it so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, _ := net.SplitHostPort(l.Addr().String())
	require.NoError(t, l.Close())
	port, _ := strconv.Atoi(portStr)

	m := New(Options{Host: "127.0.0.1", Port: port, From: "no-reply@example.com"}, logger.NewNop())
	assert.True(t, m.Enabled())

	err = m.Send(context.Background(), m.Verify("jane@example.com", "abc"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "send email:"))
}
