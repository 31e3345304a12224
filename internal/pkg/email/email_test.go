package email

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendVerificationEmail_LogsWithoutCredentials(t *testing.T) {
	var buf bytes.Buffer
	svc := NewEmailService(SMTPConfig{BaseURL: "http://localhost:8080/"}, zerolog.New(&buf))

	require.NoError(t, svc.SendVerificationEmail("ana@example.com", "ana", "tok-123"))
	assert.Contains(t, buf.String(), "http://localhost:8080/api/v1/auth/verify-email?token=tok-123")
}

func TestBuildMessage(t *testing.T) {
	s := &EmailServiceImpl{config: SMTPConfig{FromName: "EcoSphere", FromEmail: "no-reply@ecosphere.rw"}}

	msg := string(s.buildMessage("ana@example.com", "Hi", "<p>body</p>"))
	assert.Contains(t, msg, "From: EcoSphere <no-reply@ecosphere.rw>\r\n")
	assert.Contains(t, msg, "To: ana@example.com\r\n")
	assert.Contains(t, msg, "\r\n\r\n<p>body</p>")
}
