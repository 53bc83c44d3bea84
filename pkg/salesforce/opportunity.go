package salesforce

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// CreateOpportunity creates an Opportunity record and returns the new
// Salesforce ID. Name and StageName are required; CloseDate defaults to 30
// days out when unset.
func CreateOpportunity(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if fields["Name"] == nil || fields["Name"] == "" {
		return "", eris.New("sf: opportunity Name is required")
	}
	if fields["StageName"] == nil || fields["StageName"] == "" {
		return "", eris.New("sf: opportunity StageName is required")
	}
	if fields["CloseDate"] == nil {
		fields["CloseDate"] = time.Now().UTC().AddDate(0, 0, 30).Format("2006-01-02")
	}

	id, err := c.InsertOne(ctx, "Opportunity", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create opportunity")
	}
	return id, nil
}

// LogActivity records a completed Task against a Contact.
func LogActivity(ctx context.Context, c Client, contactID, subject, description string) (string, error) {
	if contactID == "" {
		return "", eris.New("sf: contact id is required for activity")
	}
	id, err := c.InsertOne(ctx, "Task", map[string]any{
		"WhoId":        contactID,
		"Subject":      subject,
		"Description":  description,
		"Status":       "Completed",
		"ActivityDate": time.Now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: log activity for contact %s", contactID))
	}
	return id, nil
}
