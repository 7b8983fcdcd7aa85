package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_Send(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	m := NewSMTPMailer("smtp.example.com", 587, "user", "pass", "no-reply@example.com")
	err := m.Send(context.Background(), Message{To: "alice@example.com", Subject: "Verify", Body: "line1\nline2"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Verify\r\n")
	assert.Contains(t, msg, "\r\n\r\nline1\r\nline2")
}

func TestSMTPMailer_NoAuthWithoutUser(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "a@b")
	assert.Nil(t, m.auth)
}

func TestSMTPMailer_SendError(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	boom := errors.New("relay denied")
	sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := NewSMTPMailer("h", 25, "", "", "a@b").Send(context.Background(), Message{To: "x@y"})
	assert.ErrorIs(t, err, boom)
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	called := false
	sendMail = func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSMTPMailer("h", 25, "", "", "a@b").Send(ctx, Message{To: "x@y"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLogMailer_WritesMessage(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	err := NewLogMailer(log).Send(context.Background(), Message{To: "bob@example.com", Subject: "Reset", Body: "http://x/reset"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "to=bob@example.com")
	assert.Contains(t, out, "subject=Reset")
	assert.Contains(t, out, "http://x/reset")
}

func TestNew_ChoosesImplementation(t *testing.T) {
	cfg := &config.Config{}
	assert.IsType(t, &LogMailer{}, New(cfg, logging.Nop{}))

	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPPort = 587
	assert.IsType(t, &SMTPMailer{}, New(cfg, logging.Nop{}))
}
