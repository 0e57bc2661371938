package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "[HIGH] Alert: TEMPERATURE Out of Range", Subject(sampleAlert()))

	low := sampleAlert()
	low.Type = sensor.Heartbeat
	low.Status = sensor.StatusLow
	assert.Equal(t, "[LOW] Alert: HEARTBEAT Out of Range", Subject(low))
}

func TestTextBody(t *testing.T) {
	body, err := TextBody(sampleAlert())
	require.NoError(t, err)

	assert.Contains(t, body, "ALERT: TEMPERATURE Out of Range")
	assert.Contains(t, body, "Current Value: 35.50")
	assert.Contains(t, body, "Normal Range: 20 - 30")
	assert.Contains(t, body, "Status: HIGH")
	assert.Contains(t, body, "Timestamp: 2024-05-01T12:00:00.000Z")
	assert.Contains(t, body, "TEMPERATURE is HIGH: 35.50 (Normal range: 20-30)")
}

func TestHTMLBodyEscapesMessage(t *testing.T) {
	a := sampleAlert()
	a.Message = "<script>x</script>"

	body, err := HTMLBody(a)
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "TEMPERATURE: 35.50")
	assert.Contains(t, body, "#e74c3c")
}

func TestEmailConfigEnabled(t *testing.T) {
	assert.False(t, EmailConfig{Host: "smtp.gmail.com", Port: 587}.Enabled())
	assert.False(t, EmailConfig{Username: "bot@example.com"}.Enabled())
	assert.True(t, EmailConfig{Username: "bot@example.com", Password: "secret"}.Enabled())
}

func TestEmailMessageHeaders(t *testing.T) {
	s := NewEmailSink(EmailConfig{Host: "smtp.example.com", Port: 465, Username: "bot@example.com", Password: "x", To: "ops@example.com"})
	assert.Equal(t, "email", s.Name())
	assert.True(t, s.dialer.SSL)

	m, err := s.message(sampleAlert())
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"[HIGH] Alert: TEMPERATURE Out of Range"}, m.GetHeader("Subject"))
}
