package models

import "time"

type PostingHistory struct {
	ID            int64     `db:"id" json:"id"`
	Platform      string    `db:"platform" json:"platform"`
	PostID        string    `db:"post_id" json:"post_id"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time"`
	Success       bool      `db:"success" json:"success"`
	Result        string    `db:"result" json:"result"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
