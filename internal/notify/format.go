package notify

import (
	"fmt"
	"strings"

	"github.com/healthwatch/go-health-alerts/internal/models"
)

// SMS messages are delivered in 160-char segments; keep alert texts within
// three segments so providers do not drop the tail.
const smsMaxLen = 480

var severityMarker = map[models.AlertSeverity]string{
	models.SeverityLow:      "[NOTICE]",
	models.SeverityMedium:   "[WARNING]",
	models.SeverityHigh:     "[ALERT]",
	models.SeverityCritical: "[EMERGENCY]",
}

// FormatMessage renders a channel-appropriate notification text for the
// alert: header, region, disease, severity and the top recommendations.
func FormatMessage(a *models.Alert, channel models.Channel) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s HEALTH ALERT\n\n", severityMarker[a.Severity])
	fmt.Fprintf(&b, "Region: %s\n", a.Region)
	fmt.Fprintf(&b, "Disease: %s\n", a.Disease)
	fmt.Fprintf(&b, "Severity: %s\n\n", strings.ToUpper(string(a.Severity)))
	fmt.Fprintf(&b, "%s\n\n", a.Message)

	if len(a.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for i, rec := range a.Recommendations {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}
	b.WriteString("Stay safe and follow health guidelines.")

	msg := b.String()
	if channel == models.ChannelSMS {
		return truncate(msg, smsMaxLen)
	}
	return msg
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
