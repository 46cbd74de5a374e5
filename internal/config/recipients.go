package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// recipientsFile is the on-disk layout of ESCALATION_RECIPIENTS_FILE:
//
//	tiers:
//	  CUSTOMER_SUPPORT:
//	    emails: [support@example.com]
//	    whatsapp: ["+919800000000"]
//	admin_inquiry_emails: [ops@example.com]
type recipientsFile struct {
	Tiers              map[string]TierRecipients `yaml:"tiers"`
	AdminInquiryEmails []string                  `yaml:"admin_inquiry_emails"`
}

// loadRecipientsFile merges the YAML recipients file over the env values.
// A tier present in the file replaces the env entry for that tier.
func loadRecipientsFile(path string, esc *EscalationConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read recipients file: %w", err)
	}

	var f recipientsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse recipients file %s: %w", path, err)
	}

	if esc.Tiers == nil {
		esc.Tiers = make(map[string]TierRecipients)
	}
	for tier, r := range f.Tiers {
		switch tier {
		case "CUSTOMER_SUPPORT", "MANAGER", "CEO":
			esc.Tiers[tier] = r
		default:
			return fmt.Errorf("recipients file %s: unknown tier %q", path, tier)
		}
	}
	if len(f.AdminInquiryEmails) > 0 {
		esc.AdminInquiryEmails = f.AdminInquiryEmails
	}
	return nil
}
