package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims identifies an operator of the control API. The operator name
// travels in the registered "sub" claim.
type CustomClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type StartWorkflowRequest struct {
	ArticleURL     string   `json:"article_url"`
	Platforms      []string `json:"platforms"`
	ApproverEmails string   `json:"approver_emails"`
}

type StartWorkflowResult struct {
	ArticleURL  string `json:"article_url"`
	Title       string `json:"title"`
	Conclusions int    `json:"conclusions"`
	Created     int    `json:"created"`
	Failed      int    `json:"failed"`
	Notified    bool   `json:"notified"`
}

type ApprovalRequest struct {
	Platform string `json:"platform"`
	PostID   string `json:"post_id"`
}

// PlatformRun reports one platform's part of a scheduling or publishing run.
type PlatformRun struct {
	Platform  string `json:"platform"`
	Processed int    `json:"processed"`
	Error     string `json:"error,omitempty"`
}
