package models

import (
	"strings"
	"time"
)

// Column names shared by the fan-out and schedule stages. Order matters for
// positional writes into an empty stage.
const (
	ColumnPostID                = "post_id"
	ColumnArticleURL            = "article_url"
	ColumnName                  = "Name"
	ColumnSummary               = "Summary"
	ColumnConclusion            = "Conclusion"
	ColumnImagePaths            = "Image_Paths"
	ColumnRequiresHumanApproval = "Requires_human_approval"
	ColumnApprovedByHuman       = "Approved_by_human"
	ColumnApproverEmails        = "Approver_Emails"
	ColumnMatchedImagePath      = "Matched_Image_Path"

	ColumnScheduledTime = "Scheduled_Time"
	ColumnPostedStatus  = "Posted_Status"
	ColumnPostLink      = "Post_Link"
)

const (
	ApprovalYes = "yes"
	ApprovalNo  = "no"

	PostedStatusPosted = "Posted"
	PostedStatusError  = "Error: "

	// ScheduledTimeLayout renders "YYYY-MM-DD HH:MM:SS TZ".
	ScheduledTimeLayout = "2006-01-02 15:04:05 MST"
)

// PostRecord is one generated post for a (conclusion, platform) pair as it is
// stored in a platform's fan-out stage.
type PostRecord struct {
	PostID                string            `json:"post_id"`
	Platform              string            `json:"platform,omitempty"`
	ArticleURL            string            `json:"article_url"`
	Name                  string            `json:"Name"`
	Summary               string            `json:"Summary"`
	Conclusion            string            `json:"Conclusion"`
	ImagePaths            []string          `json:"Image_Paths"`
	RequiresHumanApproval string            `json:"Requires_human_approval"`
	ApprovedByHuman       string            `json:"Approved_by_human"`
	ApproverEmails        []string          `json:"Approver_Emails"`
	Text                  string            `json:"text"`
	Hashtags              string            `json:"hashtags"`
	MatchedImagePath      string            `json:"Matched_Image_Path"`
	Extra                 map[string]string `json:"extra,omitempty"` // columns the pipeline does not model
	RowRef                int               `json:"-"`
}

// ScheduleEntry is a PostRecord with a slot in a platform's schedule stage.
type ScheduleEntry struct {
	PostRecord
	ScheduledTime    time.Time `json:"-"`
	ScheduledTimeRaw string    `json:"Scheduled_Time"`
	PostedStatus     string    `json:"Posted_Status"`
	PostLink         string    `json:"Post_Link"`
}

// IsPosted reports whether the dispatcher recorded a successful publish.
func (e *ScheduleEntry) IsPosted() bool {
	return strings.TrimSpace(e.PostedStatus) == PostedStatusPosted
}

// IsPending reports whether no publish attempt has been recorded yet.
func (e *ScheduleEntry) IsPending() bool {
	return strings.TrimSpace(e.PostedStatus) == ""
}

// IsDue reports whether the entry is pending and its slot is not after now.
func (e *ScheduleEntry) IsDue(now time.Time) bool {
	if !e.IsPending() || e.ScheduledTime.IsZero() {
		return false
	}
	return !now.Before(e.ScheduledTime)
}

// ErrorStatus formats a publish failure for the Posted_Status column.
func ErrorStatus(message string) string {
	return PostedStatusError + message
}

// ParseScheduledTime reads a Scheduled_Time cell. The zone abbreviation is
// ignored and the wall clock is interpreted in loc.
func ParseScheduledTime(raw string, loc *time.Location) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return time.ParseInLocation("2006-01-02 15:04:05", strings.Join(fields, " "), loc)
}
