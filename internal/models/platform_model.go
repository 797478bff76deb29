package models

type Stage string

const (
	StageFanout   Stage = "fanout"
	StageSchedule Stage = "schedule"
)

type AdapterKind string

const (
	AdapterPhotoFeed AdapterKind = "photo_feed"
	AdapterTwoPhase  AdapterKind = "two_phase"
	AdapterShortText AdapterKind = "short_text"
)

// PlatformConfig is the static description of one publishing target.
type PlatformConfig struct {
	Name              string           `yaml:"name" json:"name"`
	StoreID           string           `yaml:"store_id" json:"store_id"`
	Stages            map[Stage]string `yaml:"stages" json:"stages"`
	Adapter           AdapterKind      `yaml:"adapter" json:"adapter"`
	TextColumn        string           `yaml:"text_column" json:"text_column"`
	HashtagsColumn    string           `yaml:"hashtags_column" json:"hashtags_column,omitempty"`
	AppendArticleLink bool             `yaml:"append_article_link" json:"append_article_link"`
	Prompt            string           `yaml:"prompt" json:"-"`
}

// Location returns the worksheet name for a stage.
func (p PlatformConfig) Location(stage Stage) string {
	return p.Stages[stage]
}

// FanoutHeader is the column order used when a fan-out stage has no header row yet.
func (p PlatformConfig) FanoutHeader() []string {
	header := []string{
		ColumnPostID, ColumnArticleURL, ColumnName, ColumnSummary, ColumnConclusion,
		ColumnImagePaths, ColumnRequiresHumanApproval, ColumnApprovedByHuman, ColumnApproverEmails,
		p.TextColumn,
	}
	if p.HashtagsColumn != "" {
		header = append(header, p.HashtagsColumn)
	}
	return append(header, ColumnMatchedImagePath)
}

// ScheduleHeader appends the schedule columns to a fan-out header. Schedule
// columns already present in fanout are moved to the end.
func ScheduleHeader(fanout []string) []string {
	header := make([]string, 0, len(fanout)+3)
	for _, h := range fanout {
		switch h {
		case ColumnScheduledTime, ColumnPostedStatus, ColumnPostLink:
			continue
		}
		header = append(header, h)
	}
	return append(header, ColumnScheduledTime, ColumnPostedStatus, ColumnPostLink)
}
