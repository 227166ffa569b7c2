package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rids-cl/webchat/internal/config"
)

var _ Mailer = (*SMTPMailer)(nil)

func TestSend_RequiresHost(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{})
	err := m.Send(context.Background(), Message{Email: "ana@acme.cl"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestBuildBody(t *testing.T) {
	body := string(buildBody("bot@rids.cl", "contacto@rids.cl", Message{
		Nombre:  "Ana",
		Email:   "ana@acme.cl",
		Mensaje: "Necesito soporte con mi servidor.",
	}))

	assert.Contains(t, body, "From: bot@rids.cl\r\n")
	assert.Contains(t, body, "To: contacto@rids.cl\r\n")
	assert.Contains(t, body, "Reply-To: ana@acme.cl\r\n")
	assert.Contains(t, body, "Subject: Nuevo contacto desde rids.cl (general)\r\n")
	assert.Contains(t, body, "Nombre: Ana")
	assert.Contains(t, body, "Necesito soporte con mi servidor.")
}
