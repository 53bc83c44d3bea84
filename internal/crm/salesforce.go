// Package crm records routing outcomes in Salesforce.
package crm

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/model"
	"github.com/sells-group/lead-qualifier/pkg/salesforce"
)

// Syncer writes qualification outcomes to Salesforce: find-or-create the
// contact, stamp score and tier, open an opportunity for HOT leads, and log
// the assignment as a completed activity.
type Syncer struct {
	client salesforce.Client
}

// NewSyncer creates a Salesforce-backed CRM syncer.
func NewSyncer(client salesforce.Client) *Syncer {
	return &Syncer{client: client}
}

// SyncAssignment implements route.CRMSyncer.
func (s *Syncer) SyncAssignment(ctx context.Context, lead model.Lead, qual model.QualificationResult, rep model.SalesRep) error {
	contactID, err := s.ensureContact(ctx, lead)
	if err != nil {
		return eris.Wrap(err, "crm: ensure contact")
	}

	if err := salesforce.UpdateContact(ctx, s.client, contactID, map[string]any{
		"Lead_Score__c": qual.Score,
		"Lead_Tier__c":  string(qual.Tier),
	}); err != nil {
		return eris.Wrap(err, "crm: stamp qualification")
	}

	if qual.Tier == model.TierHot {
		oppID, err := salesforce.CreateOpportunity(ctx, s.client, map[string]any{
			"Name":      opportunityName(lead),
			"StageName": "Qualification",
		})
		if err != nil {
			// The contact record is already current; a failed opportunity
			// should not unwind the sync.
			zap.L().Error("opportunity creation failed",
				zap.String("email", lead.Email),
				zap.Error(err),
			)
		} else {
			zap.L().Info("opportunity created",
				zap.String("opportunity_id", oppID),
				zap.String("email", lead.Email),
			)
		}
	}

	subject := fmt.Sprintf("Lead qualified: %s (%d/100)", qual.Tier, qual.Score)
	description := fmt.Sprintf("Assigned to %s <%s>. %s", rep.Name, rep.Email, qual.Reasoning)
	if _, err := salesforce.LogActivity(ctx, s.client, contactID, subject, description); err != nil {
		return eris.Wrap(err, "crm: log activity")
	}
	return nil
}

// ensureContact returns the existing contact ID for the lead's email, or
// creates one.
func (s *Syncer) ensureContact(ctx context.Context, lead model.Lead) (string, error) {
	contact, err := salesforce.FindContactByEmail(ctx, s.client, lead.Email)
	if err != nil {
		return "", err
	}
	if contact != nil {
		return contact.ID, nil
	}

	lastName := lead.LastName
	if lastName == "" {
		// Salesforce requires LastName; fall back to the mailbox name.
		lastName = lead.Email
	}
	return salesforce.CreateContact(ctx, s.client, map[string]any{
		"FirstName": lead.FirstName,
		"LastName":  lastName,
		"Email":     lead.Email,
	})
}

func opportunityName(lead model.Lead) string {
	company := lead.Company
	if company == "" {
		company = lead.Domain()
	}
	return company + " - Inbound Lead"
}
