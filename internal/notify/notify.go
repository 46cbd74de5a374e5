package notify

import (
	"context"
	"fmt"
	"log"

	"vendorhub/internal/metrics"
	apperrors "vendorhub/pkg/errors"
)

// Channel is an outbound delivery channel
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Template names a message layout
type Template string

const (
	// TemplateNewQuery goes to the customer-support tier when a query arrives
	TemplateNewQuery Template = "new_query"
	// TemplateEscalation goes to a tier a query has just been escalated to
	TemplateEscalation Template = "query_escalated"
	// TemplateAdminInquiry goes to the inquiry desk for every vendor inquiry
	TemplateAdminInquiry Template = "admin_inquiry"
	// TemplateQueryReceived acknowledges a submission to the customer
	TemplateQueryReceived Template = "query_received"
)

// Message is one notification to one recipient
type Message struct {
	Channel   Channel
	Recipient string
	Template  Template
	Data      map[string]string
}

// Notifier sends a single notification
type Notifier interface {
	Notify(ctx context.Context, channel Channel, recipient string, template Template, data map[string]string) error
}

// Sender delivers rendered content over one channel
type Sender interface {
	Send(ctx context.Context, recipient string, content Content) error
	Name() string
}

// Gateway routes notifications to the sender registered for their channel
type Gateway struct {
	senders map[Channel]Sender
}

// NewGateway creates a gateway over the given per-channel senders
func NewGateway(senders map[Channel]Sender) *Gateway {
	return &Gateway{senders: senders}
}

// Notify renders template with data and sends it to recipient over channel
func (g *Gateway) Notify(ctx context.Context, channel Channel, recipient string, template Template, data map[string]string) (err error) {
	defer func() {
		metrics.RecordNotification(string(channel), string(template), err)
	}()

	sender, ok := g.senders[channel]
	if !ok {
		return apperrors.Notification(fmt.Sprintf("no sender for channel %s", channel), nil)
	}

	content, err := Render(template, channel, data)
	if err != nil {
		return apperrors.Notification("failed to render notification", err)
	}

	if err := sender.Send(ctx, recipient, content); err != nil {
		log.Printf("[NOTIFY] %s send to %s failed: %v", sender.Name(), recipient, err)
		return apperrors.Notification(fmt.Sprintf("%s delivery failed", channel), err)
	}
	return nil
}
