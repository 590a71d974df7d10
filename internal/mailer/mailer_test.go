package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToLogMailer(t *testing.T) {
	m := New(&config.Config{})
	logMailer, ok := m.(*LogMailer)
	require.True(t, ok)

	require.NoError(t, logMailer.Send(context.Background(), "a@example.com", "hi", "body"))
	sent := logMailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)
}

func TestNewSMTPMailer(t *testing.T) {
	m := New(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: "587", SMTPFrom: "no-reply@lynk.app"})
	smtpMailer, ok := m.(*SMTPMailer)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com:587", smtpMailer.addr)
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("from@lynk.app", "to@example.com", "Code", "123456"))
	assert.True(t, strings.HasPrefix(msg, "From: from@lynk.app\r\nTo: to@example.com\r\nSubject: Code\r\n"))
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n123456"))
}
