package notify

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridHost = "https://api.sendgrid.com"

// SendGrid mails alerts to a single address, sent from that same address.
type SendGrid struct {
	APIKey string
	Email  string
	Host   string
}

func NewSendGrid(apiKey, email string) *SendGrid {
	if apiKey == "" || email == "" {
		return nil
	}
	return &SendGrid{APIKey: apiKey, Email: email, Host: sendgridHost}
}

func (s *SendGrid) Send(ctx context.Context, title, text string) error {
	from := mail.NewEmail("Uptime Monitor", s.Email)
	to := mail.NewEmail("Admin", s.Email)
	msg := mail.NewSingleEmail(from, title, to, text, "<pre>"+html.EscapeString(text)+"</pre>")

	req := sendgrid.GetRequest(s.APIKey, "/v3/mail/send", s.Host)
	req.Method = http.MethodPost
	req.Body = mail.GetRequestBody(msg)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
