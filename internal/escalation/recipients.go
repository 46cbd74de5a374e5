package escalation

import (
	"fmt"
	"strconv"
	"time"

	"vendorhub/internal/config"
	"vendorhub/internal/domain"
	"vendorhub/internal/notify"
)

// Directory knows who to notify for each tier
type Directory struct {
	tiers       map[domain.EscalationLevel]config.TierRecipients
	inquiryDesk []string
	thresholds  Thresholds
}

// NewDirectory builds the directory from escalation config
func NewDirectory(cfg *config.EscalationConfig) *Directory {
	tiers := make(map[domain.EscalationLevel]config.TierRecipients, len(cfg.Tiers))
	for name, r := range cfg.Tiers {
		tiers[domain.EscalationLevel(name)] = r
	}
	return &Directory{
		tiers:       tiers,
		inquiryDesk: cfg.AdminInquiryEmails,
		thresholds:  ThresholdsFromConfig(cfg),
	}
}

// QueryData flattens the fields templates may reference
func QueryData(q *domain.Query) map[string]string {
	data := map[string]string{
		"queryId":   strconv.FormatUint(uint64(q.ID), 10),
		"name":      q.Name,
		"email":     q.Email,
		"message":   q.Message,
		"level":     string(q.EscalationLevel),
		"source":    string(q.Source),
		"createdAt": q.CreatedAt.Format(time.RFC3339),
	}
	if q.Phone != nil {
		data["phone"] = *q.Phone
	}
	if q.Subject != nil {
		data["subject"] = *q.Subject
	}
	if o, ok := q.Origin().(domain.InquiryOrigin); ok {
		data["inquiryId"] = strconv.FormatUint(uint64(o.InquiryID), 10)
		data["vendorId"] = strconv.FormatUint(uint64(o.VendorID), 10)
		if o.VendorName != "" {
			data["vendorName"] = o.VendorName
		}
	}
	return data
}

// tierMessages addresses one template to every recipient of a tier
func (d *Directory) tierMessages(level domain.EscalationLevel, template notify.Template, data map[string]string) []notify.Message {
	r := d.tiers[level]
	msgs := make([]notify.Message, 0, len(r.Emails)+len(r.WhatsApp))
	for _, to := range r.Emails {
		msgs = append(msgs, notify.Message{Channel: notify.ChannelEmail, Recipient: to, Template: template, Data: data})
	}
	for _, to := range r.WhatsApp {
		msgs = append(msgs, notify.Message{Channel: notify.ChannelWhatsApp, Recipient: to, Template: template, Data: data})
	}
	return msgs
}

// NewQueryMessages are sent to the first tier when a query is created
func (d *Directory) NewQueryMessages(q *domain.Query) []notify.Message {
	data := QueryData(q)
	data["responseWindow"] = formatDuration(d.thresholds.CustomerSupport)
	return d.tierMessages(domain.LevelCustomerSupport, notify.TemplateNewQuery, data)
}

// EscalationMessages are sent to a tier a query has just reached
func (d *Directory) EscalationMessages(q *domain.Query, from, to domain.EscalationLevel, elapsed time.Duration) []notify.Message {
	data := QueryData(q)
	data["level"] = string(to)
	data["previousLevel"] = string(from)
	data["elapsed"] = formatDuration(elapsed)
	return d.tierMessages(to, notify.TemplateEscalation, data)
}

// AdminInquiryMessages are sent to the inquiry desk for a vendor inquiry
func (d *Directory) AdminInquiryMessages(i *domain.Inquiry) []notify.Message {
	data := map[string]string{
		"inquiryId": strconv.FormatUint(uint64(i.ID), 10),
		"vendorId":  strconv.FormatUint(uint64(i.VendorID), 10),
		"name":      i.Name,
		"email":     i.Email,
		"message":   i.Message,
	}
	if i.Phone != nil {
		data["phone"] = *i.Phone
	}
	if i.Vendor != nil {
		data["vendorName"] = i.Vendor.Name
	}
	msgs := make([]notify.Message, 0, len(d.inquiryDesk))
	for _, to := range d.inquiryDesk {
		msgs = append(msgs, notify.Message{Channel: notify.ChannelEmail, Recipient: to, Template: notify.TemplateAdminInquiry, Data: data})
	}
	return msgs
}

// AcknowledgementMessage confirms receipt to the customer
func (d *Directory) AcknowledgementMessage(q *domain.Query) notify.Message {
	return notify.Message{
		Channel:   notify.ChannelEmail,
		Recipient: q.Email,
		Template:  notify.TemplateQueryReceived,
		Data:      QueryData(q),
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, m)
}
