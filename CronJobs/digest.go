package CronJobs

import (
	"fmt"
	"log"
	"strings"

	"Souq/Models"
	"Souq/email"
)

type overdueItem struct {
	Vendor   Models.Vendor
	Purchase Models.CreditPurchase
	Payable  float64
}

// sendOverdueDigest mails the admin a summary of purchases that went overdue
// in this sweep. Best effort: a mail failure is logged and never blocks the
// sweep or the vendor-facing notifications.
func sendOverdueDigest(items []overdueItem) {
	recipient := Models.EnvString("ADMIN_ALERT_EMAIL", "")
	if recipient == "" {
		return
	}

	config := email.ConfigFromEnv()
	if config.SMTPServer == "" {
		log.Println("SMTP not configured, skipping overdue digest")
		return
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("%d credit purchase(s) went overdue in the last sweep:\n\n", len(items)))
	for _, item := range items {
		body.WriteString(fmt.Sprintf("- Vendor %s (#%d): purchase #%d, principal %.2f, payable %.2f, due %s\n",
			item.Vendor.Name, item.Vendor.ID, item.Purchase.ID,
			item.Purchase.Principal, item.Payable, item.Purchase.DueDate.Format("2006-01-02")))
	}

	message := Models.EmailMessage{
		To:      []string{recipient},
		Subject: fmt.Sprintf("Souq: %d newly overdue credit purchase(s)", len(items)),
		Body:    body.String(),
	}

	if err := email.SendEmail(config, message); err != nil {
		log.Printf("Error sending overdue digest: %v", err)
	}
}
