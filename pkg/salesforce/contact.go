package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Contact represents a Salesforce Contact record.
type Contact struct {
	ID        string  `json:"Id" salesforce:"Id"`
	FirstName string  `json:"FirstName" salesforce:"FirstName"`
	LastName  string  `json:"LastName" salesforce:"LastName"`
	Email     string  `json:"Email" salesforce:"Email"`
	Title     string  `json:"Title" salesforce:"Title"`
	OwnerID   string  `json:"OwnerId" salesforce:"OwnerId"`
	LeadScore float64 `json:"Lead_Score__c" salesforce:"Lead_Score__c"`
	LeadTier  string  `json:"Lead_Tier__c" salesforce:"Lead_Tier__c"`
}

// contactFields are the SOQL fields selected for Contact queries.
var contactFields = []string{
	"Id", "FirstName", "LastName", "Email", "Title",
	"OwnerId", "Lead_Score__c", "Lead_Tier__c",
}

// FindContactByEmail queries Salesforce for a Contact matching the given email.
// Returns nil if no contact is found.
func FindContactByEmail(ctx context.Context, c Client, email string) (*Contact, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Contact WHERE Email = '%s' LIMIT 1",
		strings.Join(contactFields, ", "),
		escapeSoql(email),
	)

	var contacts []Contact
	if err := c.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find contact by email %s", email))
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// CreateContact creates a new Contact record and returns the new Salesforce ID.
// Salesforce requires LastName on Contact.
func CreateContact(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if fields["LastName"] == nil || fields["LastName"] == "" {
		return "", eris.New("sf: contact LastName is required")
	}
	id, err := c.InsertOne(ctx, "Contact", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create contact")
	}
	return id, nil
}

// UpdateContact updates a Contact record with the given fields.
func UpdateContact(ctx context.Context, c Client, contactID string, fields map[string]any) error {
	if contactID == "" {
		return eris.New("sf: contact id is required")
	}
	if len(fields) == 0 {
		return eris.New("sf: no fields to update")
	}
	if err := c.UpdateOne(ctx, "Contact", contactID, fields); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update contact %s", contactID))
	}
	return nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
