package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Winner-yo/mqtt-dashboard/services/api/sensor"
)

const humanTimeLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// EmailConfig holds SMTP settings. The sink is disabled without credentials.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	To       string
}

// Enabled reports whether credentials are present.
func (c EmailConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}

// EmailSink mails each alert to a single recipient.
type EmailSink struct {
	cfg    EmailConfig
	dialer *gomail.Dialer
}

// NewEmailSink builds a sink; port 465 uses implicit TLS, other ports STARTTLS.
func NewEmailSink(cfg EmailConfig) *EmailSink {
	return &EmailSink{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, alert sensor.Alert) error {
	msg, err := s.message(alert)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send alert email to %s: %w", s.cfg.To, err)
	}
	return nil
}

func (s *EmailSink) message(alert sensor.Alert) (*gomail.Message, error) {
	text, err := TextBody(alert)
	if err != nil {
		return nil, err
	}
	html, err := HTMLBody(alert)
	if err != nil {
		return nil, err
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.Username, "MQTT Dashboard Alert")
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", Subject(alert))
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)
	return m, nil
}

// Subject encodes the severity and the metric.
func Subject(alert sensor.Alert) string {
	return fmt.Sprintf("[%s] Alert: %s Out of Range",
		strings.ToUpper(string(alert.Status)), strings.ToUpper(string(alert.Type)))
}

type emailView struct {
	Metric    string
	Value     string
	Min, Max  float64
	Status    string
	High      bool
	Message   string
	HumanTime string
	Timestamp string
}

func newEmailView(alert sensor.Alert) emailView {
	human := alert.Timestamp
	if t := alert.Time(); !t.IsZero() {
		human = t.In(time.Local).Format(humanTimeLayout)
	}
	return emailView{
		Metric:    strings.ToUpper(string(alert.Type)),
		Value:     alert.Value,
		Min:       alert.Threshold.Min,
		Max:       alert.Threshold.Max,
		Status:    strings.ToUpper(string(alert.Status)),
		High:      alert.Status == sensor.StatusHigh,
		Message:   alert.Message,
		HumanTime: human,
		Timestamp: alert.Timestamp,
	}
}

var textTmpl = template.Must(template.New("text").Parse(`ALERT: {{.Metric}} Out of Range

{{.Message}}

Current Value: {{.Value}}
Normal Range: {{.Min}} - {{.Max}}
Status: {{.Status}}
Time: {{.HumanTime}}
Timestamp: {{.Timestamp}}

Please check your sensor dashboard immediately.
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2>Sensor Alert</h2>
      <div style="padding: 15px; margin: 20px 0; border-radius: 4px; {{if .High}}background: #fee; border-left: 4px solid #e74c3c;{{else}}background: #ffeaa7; border-left: 4px solid #f39c12;{{end}}">
        <div style="font-size: 24px; font-weight: bold;">{{.Metric}}: {{.Value}}</div>
        <div style="color: #7f8c8d; font-size: 14px;">Normal Range: {{.Min}} - {{.Max}}</div>
        <p><strong>Status:</strong> {{.Status}}</p>
        <p><strong>Message:</strong> {{.Message}}</p>
        <div style="color: #95a5a6; font-size: 12px; margin-top: 10px;">Alert Time: {{.HumanTime}} ({{.Timestamp}})</div>
      </div>
      <p>Please check your sensor dashboard immediately.</p>
    </div>
  </body>
</html>
`))

// TextBody renders the plain-text email body.
func TextBody(alert sensor.Alert) (string, error) {
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, newEmailView(alert)); err != nil {
		return "", fmt.Errorf("render text body: %w", err)
	}
	return buf.String(), nil
}

// HTMLBody renders the HTML alternative.
func HTMLBody(alert sensor.Alert) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, newEmailView(alert)); err != nil {
		return "", fmt.Errorf("render html body: %w", err)
	}
	return buf.String(), nil
}
