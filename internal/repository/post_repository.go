package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postpipe/internal/models"
)

// PostRepository gives typed access to the fan-out and schedule stages of
// every platform. Cells are parsed here; services never see raw strings.
type PostRepository interface {
	ListRecords(ctx context.Context, p models.PlatformConfig) ([]*models.PostRecord, []string, error)
	Append(ctx context.Context, p models.PlatformConfig, rec *models.PostRecord) error
	SetApproval(ctx context.Context, p models.PlatformConfig, postID, value string) error
	ListScheduled(ctx context.Context, p models.PlatformConfig, loc *time.Location) ([]*models.ScheduleEntry, error)
	ReplaceSchedule(ctx context.Context, p models.PlatformConfig, header []string, entries []*models.ScheduleEntry) error
	UpdatePublishResult(ctx context.Context, p models.PlatformConfig, rowRef int, postID, status, link string) error
}

type postRepository struct {
	so StoreOpener
}

func NewPostRepository(so StoreOpener) PostRepository {
	return &postRepository{so: so}
}

func (r *postRepository) open(ctx context.Context, p models.PlatformConfig) (Store, error) {
	store, err := r.so.Open(ctx, p.StoreID)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("open store for %s: %w", p.Name, err)
	}
	return store, nil
}

func (r *postRepository) ListRecords(ctx context.Context, p models.PlatformConfig) ([]*models.PostRecord, []string, error) {
	store, err := r.open(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	stage := p.Location(models.StageFanout)
	header, err := store.Header(ctx, stage)
	if err != nil {
		return nil, nil, err
	}
	if len(header) > 0 {
		for _, col := range []string{models.ColumnRequiresHumanApproval, models.ColumnApprovedByHuman} {
			if columnIndex(header, col) < 0 {
				return nil, nil, fmt.Errorf("%s %q column %q: %w", p.Name, stage, col, ErrColumnNotFound)
			}
		}
	}
	rows, err := store.ReadAll(ctx, stage)
	if err != nil {
		return nil, nil, err
	}

	columns := recordColumns(p)
	records := make([]*models.PostRecord, 0, len(rows))
	for _, row := range rows {
		values, extra := canonicalValues(row.Values, columns)
		records = append(records, decodeRecord(row.Ref, values, extra, p))
	}
	return records, header, nil
}

func (r *postRepository) Append(ctx context.Context, p models.PlatformConfig, rec *models.PostRecord) error {
	store, err := r.open(ctx, p)
	if err != nil {
		return err
	}

	stage := p.Location(models.StageFanout)
	header, err := store.Header(ctx, stage)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		if err := store.Overwrite(ctx, stage, p.FanoutHeader(), nil); err != nil {
			return err
		}
	}

	return store.AppendRow(ctx, stage, encodeRecord(rec, p))
}

func (r *postRepository) SetApproval(ctx context.Context, p models.PlatformConfig, postID, value string) error {
	if strings.TrimSpace(postID) == "" {
		return fmt.Errorf("empty post id: %w", ErrRowNotFound)
	}
	store, err := r.open(ctx, p)
	if err != nil {
		return err
	}

	stage := p.Location(models.StageFanout)
	ref, err := store.FindRow(ctx, stage, postID)
	if err != nil {
		return fmt.Errorf("post %s on %s: %w", postID, p.Name, err)
	}
	return store.UpdateCell(ctx, stage, ref, models.ColumnApprovedByHuman, value)
}

func (r *postRepository) ListScheduled(ctx context.Context, p models.PlatformConfig, loc *time.Location) ([]*models.ScheduleEntry, error) {
	store, err := r.open(ctx, p)
	if err != nil {
		return nil, err
	}

	rows, err := store.ReadAll(ctx, p.Location(models.StageSchedule))
	if err != nil {
		return nil, err
	}

	columns := append(recordColumns(p), models.ColumnScheduledTime, models.ColumnPostedStatus, models.ColumnPostLink)
	entries := make([]*models.ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		values, extra := canonicalValues(row.Values, columns)
		entry := &models.ScheduleEntry{
			PostRecord:       *decodeRecord(row.Ref, values, extra, p),
			ScheduledTimeRaw: values[models.ColumnScheduledTime],
			PostedStatus:     values[models.ColumnPostedStatus],
			PostLink:         values[models.ColumnPostLink],
		}
		if t, err := models.ParseScheduledTime(entry.ScheduledTimeRaw, loc); err == nil {
			entry.ScheduledTime = t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *postRepository) ReplaceSchedule(ctx context.Context, p models.PlatformConfig, header []string, entries []*models.ScheduleEntry) error {
	store, err := r.open(ctx, p)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		values := encodeRecord(&e.PostRecord, p)
		values[models.ColumnScheduledTime] = e.ScheduledTimeRaw
		values[models.ColumnPostedStatus] = e.PostedStatus
		values[models.ColumnPostLink] = e.PostLink
		rows = append(rows, orderByHeader(header, values))
	}

	return store.Overwrite(ctx, p.Location(models.StageSchedule), header, rows)
}

// UpdatePublishResult writes the outcome of a publish attempt. The row is
// looked up again by postID, so a schedule rewritten since rowRef was read
// cannot receive another post's result; rowRef is only used for rows without
// a post_id.
func (r *postRepository) UpdatePublishResult(ctx context.Context, p models.PlatformConfig, rowRef int, postID, status, link string) error {
	store, err := r.open(ctx, p)
	if err != nil {
		return err
	}

	stage := p.Location(models.StageSchedule)
	ref := rowRef
	if postID != "" {
		ref, err = store.FindRow(ctx, stage, postID)
		if err != nil {
			return fmt.Errorf("post %s on %s: %w", postID, p.Name, err)
		}
		if ref != rowRef {
			slog.Warn("schedule row moved", "platform", p.Name, "post_id", postID, "from", rowRef, "to", ref)
		}
	}

	if err := store.UpdateCell(ctx, stage, ref, models.ColumnPostedStatus, status); err != nil {
		return err
	}
	return store.UpdateCell(ctx, stage, ref, models.ColumnPostLink, link)
}

// recordColumns lists the columns decodeRecord reads for platform p.
func recordColumns(p models.PlatformConfig) []string {
	columns := []string{
		models.ColumnPostID, models.ColumnArticleURL, models.ColumnName,
		models.ColumnSummary, models.ColumnConclusion, models.ColumnImagePaths,
		models.ColumnRequiresHumanApproval, models.ColumnApprovedByHuman,
		models.ColumnApproverEmails, models.ColumnMatchedImagePath,
	}
	if p.TextColumn != "" {
		columns = append(columns, p.TextColumn)
	}
	if p.HashtagsColumn != "" {
		columns = append(columns, p.HashtagsColumn)
	}
	return columns
}

// canonicalValues re-keys a row under the canonical spelling of each known
// column. Headers are matched like columnIndex matches them; anything else is
// returned as extra under its header name.
func canonicalValues(row map[string]string, columns []string) (map[string]string, map[string]string) {
	canonical := make(map[string]string, len(columns))
	for _, c := range columns {
		canonical[normalizeColumn(c)] = c
	}

	values := make(map[string]string, len(columns))
	var extra map[string]string
	for k, v := range row {
		if c, ok := canonical[normalizeColumn(k)]; ok {
			values[c] = v
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[k] = v
	}
	return values, extra
}

func decodeRecord(ref int, v, extra map[string]string, p models.PlatformConfig) *models.PostRecord {
	rec := &models.PostRecord{
		PostID:                v[models.ColumnPostID],
		Platform:              p.Name,
		ArticleURL:            v[models.ColumnArticleURL],
		Name:                  v[models.ColumnName],
		Summary:               v[models.ColumnSummary],
		Conclusion:            v[models.ColumnConclusion],
		ImagePaths:            decodeImagePaths(v[models.ColumnImagePaths]),
		RequiresHumanApproval: v[models.ColumnRequiresHumanApproval],
		ApprovedByHuman:       v[models.ColumnApprovedByHuman],
		ApproverEmails:        splitEmails(v[models.ColumnApproverEmails]),
		MatchedImagePath:      strings.TrimSpace(v[models.ColumnMatchedImagePath]),
		RowRef:                ref,
		Extra:                 extra,
	}
	if p.TextColumn != "" {
		rec.Text = v[p.TextColumn]
	}
	if p.HashtagsColumn != "" {
		rec.Hashtags = v[p.HashtagsColumn]
	}
	return rec
}

func encodeRecord(rec *models.PostRecord, p models.PlatformConfig) map[string]string {
	values := make(map[string]string, len(rec.Extra)+12)
	for k, v := range rec.Extra {
		values[k] = v
	}

	paths := rec.ImagePaths
	if paths == nil {
		paths = []string{}
	}
	encoded, _ := json.Marshal(paths)

	values[models.ColumnPostID] = rec.PostID
	values[models.ColumnArticleURL] = rec.ArticleURL
	values[models.ColumnName] = rec.Name
	values[models.ColumnSummary] = rec.Summary
	values[models.ColumnConclusion] = rec.Conclusion
	values[models.ColumnImagePaths] = string(encoded)
	values[models.ColumnRequiresHumanApproval] = rec.RequiresHumanApproval
	values[models.ColumnApprovedByHuman] = rec.ApprovedByHuman
	values[models.ColumnApproverEmails] = strings.Join(rec.ApproverEmails, ";")
	values[models.ColumnMatchedImagePath] = rec.MatchedImagePath
	if p.TextColumn != "" {
		values[p.TextColumn] = rec.Text
	}
	if p.HashtagsColumn != "" {
		values[p.HashtagsColumn] = rec.Hashtags
	}
	return values
}

func decodeImagePaths(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(raw), &paths); err != nil {
		return []string{raw}
	}
	return paths
}

func splitEmails(raw string) []string {
	var emails []string
	for _, e := range strings.Split(raw, ";") {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}
