package service

import (
	"strings"

	"github.com/maheshrc27/postpipe/internal/models"
)

// IsApproved reports whether a record may be scheduled. A record that does not
// require approval passes; otherwise a human must have answered "yes".
func IsApproved(rec *models.PostRecord) bool {
	switch strings.ToLower(strings.TrimSpace(rec.RequiresHumanApproval)) {
	case models.ApprovalNo, "":
		return true
	}
	return strings.ToLower(strings.TrimSpace(rec.ApprovedByHuman)) == models.ApprovalYes
}

// FilterApproved keeps the approved records in their original order.
func FilterApproved(records []*models.PostRecord) []*models.PostRecord {
	approved := make([]*models.PostRecord, 0, len(records))
	for _, rec := range records {
		if IsApproved(rec) {
			approved = append(approved, rec)
		}
	}
	return approved
}

// AwaitingApproval returns records that need a human decision and have none yet.
func AwaitingApproval(records []*models.PostRecord) []*models.PostRecord {
	var pending []*models.PostRecord
	for _, rec := range records {
		switch strings.ToLower(strings.TrimSpace(rec.RequiresHumanApproval)) {
		case models.ApprovalNo, "":
			continue
		}
		if strings.TrimSpace(rec.ApprovedByHuman) == "" {
			pending = append(pending, rec)
		}
	}
	return pending
}
