package notify

import (
	"fmt"
	"html"
	"strings"
)

// Content is a rendered notification
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Render builds the content of template for channel. WhatsApp gets text only.
func Render(template Template, channel Channel, data map[string]string) (Content, error) {
	get := func(key string) string {
		if v := strings.TrimSpace(data[key]); v != "" {
			return v
		}
		return "Not provided"
	}

	var c Content
	switch template {
	case TemplateNewQuery:
		c.Subject = fmt.Sprintf("New support query #%s from %s", get("queryId"), get("name"))
		c.Text = fmt.Sprintf(`New support query #%s

Name: %s
Email: %s
Phone: %s
Subject: %s

Message:
%s

Please respond within %s.`, get("queryId"), get("name"), get("email"), get("phone"), get("subject"), get("message"), get("responseWindow"))

	case TemplateEscalation:
		c.Subject = fmt.Sprintf("[Escalated to %s] Query #%s from %s", get("level"), get("queryId"), get("name"))
		c.Text = fmt.Sprintf(`Query #%s has been escalated to %s.

It was received %s ago and has not been answered by %s.

Name: %s
Email: %s
Phone: %s

Message:
%s`, get("queryId"), get("level"), get("elapsed"), get("previousLevel"), get("name"), get("email"), get("phone"), get("message"))

	case TemplateAdminInquiry:
		c.Subject = fmt.Sprintf("New inquiry for %s from %s", get("vendorName"), get("name"))
		c.Text = fmt.Sprintf(`New vendor inquiry #%s

Vendor: %s (#%s)
Name: %s
Email: %s
Phone: %s

Message:
%s`, get("inquiryId"), get("vendorName"), get("vendorId"), get("name"), get("email"), get("phone"), get("message"))

	case TemplateQueryReceived:
		c.Subject = "We received your message"
		c.Text = fmt.Sprintf(`Hi %s,

Thank you for reaching out. Your reference number is #%s and our team will get back to you soon.`, get("name"), get("queryId"))

	default:
		return Content{}, fmt.Errorf("unknown template %q", template)
	}

	if channel == ChannelEmail {
		c.HTML = textToHTML(c.Subject, c.Text)
	}
	return c, nil
}

// textToHTML wraps plain text in the minimal branded layout used for all emails
func textToHTML(title, text string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #9D174D;">%s</h2>
        <div style="background: #FDF2F8; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <p style="white-space: pre-wrap;">%s</p>
        </div>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(title), html.EscapeString(text))
}
