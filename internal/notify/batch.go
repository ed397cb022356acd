// Package notify turns availability reports into mail batches and delivers
// them over SMTP or AWS SES.
package notify

import (
	"fmt"

	"cowin-slot-mailer/internal/availability"
)

const (
	ImportantPrefix = "(IMPORTANT) "
	ErrorSubject    = "Internal Error"

	StatesNotFoundBody    = "States info not found. Contact admin"
	StateNotFoundBody     = "State not found. Contact admin"
	DistrictsNotFoundBody = "District details not found. Contact admin"
	DistrictNotFoundBody  = "District not found. Contact admin"
	SlotsUnavailableBody  = "Couldnt retrieve vaccination slots. Contact admin"
)

// MailBatch is one message to a set of blind recipients. Report is nil for
// error placeholders.
type MailBatch struct {
	Recipients []string
	Subject    string
	Body       string
	Report     *availability.Report
}

// Available reports whether the batch carries slots someone can book.
func (b MailBatch) Available() bool {
	return b.Report != nil && b.Report.Status == availability.StatusAvailable
}

// Subject is the headline of a report mail, e.g. "18+ Slots in Pune: AVAILABLE".
func Subject(minAge int, report availability.Report) string {
	return fmt.Sprintf("%d+ Slots in %s: %s", minAge, report.DistrictName, report.Status)
}

func ReportBatch(report availability.Report, recipients []string, minAge int) (MailBatch, error) {
	body, err := RenderTable(report)
	if err != nil {
		return MailBatch{}, err
	}
	return MailBatch{
		Recipients: recipients,
		Subject:    Subject(minAge, report),
		Body:       body,
		Report:     &report,
	}, nil
}

func ErrorBatch(recipients []string, body string) MailBatch {
	return MailBatch{Recipients: recipients, Subject: ErrorSubject, Body: body}
}

// Suppress keeps only AVAILABLE report batches and flags their subjects when
// onlyAvailable is set. Otherwise batches are returned unchanged.
func Suppress(batches []MailBatch, onlyAvailable bool) []MailBatch {
	if !onlyAvailable {
		return batches
	}
	kept := make([]MailBatch, 0, len(batches))
	for _, b := range batches {
		if !b.Available() {
			continue
		}
		b.Subject = ImportantPrefix + b.Subject
		kept = append(kept, b)
	}
	return kept
}
