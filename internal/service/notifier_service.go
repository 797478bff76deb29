package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"mime"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Notifier tells approvers that new posts are waiting for review.
type Notifier interface {
	NotifyApprovers(ctx context.Context, title string, emails []string) error
}

type gmailNotifier struct {
	srv          *gmail.Service
	sender       string
	dashboardURL string
}

// NewGmailNotifier sends as sender through domain-wide delegation of the
// service account in credentials (a file path or the JSON itself).
func NewGmailNotifier(ctx context.Context, credentials, sender, dashboardURL string) (Notifier, error) {
	data := []byte(credentials)
	if !strings.HasPrefix(strings.TrimSpace(credentials), "{") {
		b, err := os.ReadFile(credentials)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		data = b
	}

	conf, err := google.JWTConfigFromJSON(data, gmail.GmailSendScope)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	conf.Subject = sender

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return newGmailNotifier(srv, sender, dashboardURL), nil
}

func newGmailNotifier(srv *gmail.Service, sender, dashboardURL string) Notifier {
	return &gmailNotifier{srv: srv, sender: sender, dashboardURL: dashboardURL}
}

func (n *gmailNotifier) NotifyApprovers(ctx context.Context, title string, emails []string) error {
	if len(emails) == 0 {
		return nil
	}

	raw := approvalMessage(n.sender, title, n.dashboardURL, emails)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := n.srv.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("send approval notification: %w", err)
	}

	log.Printf("Sent approval notification for %q to %s", title, strings.Join(emails, ", "))
	return nil
}

// headerValue folds any run of whitespace, line breaks included, into a
// single space so a value can never start a new header.
func headerValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func approvalMessage(sender, title, dashboardURL string, emails []string) []byte {
	to := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = headerValue(e); e != "" {
			to = append(to, e)
		}
	}
	subject := fmt.Sprintf("Action Required: Content for '%s' is Ready for Approval", headerValue(title))

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(sender))
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	fmt.Fprintf(&b, "The automated content generation for the article %q is complete.\r\n\r\n", title)
	b.WriteString("The new posts are now waiting for your review in the approval queue:\r\n")
	fmt.Fprintf(&b, "%s\r\n", strings.TrimRight(dashboardURL, "/")+"/Approval_Queue")
	return []byte(b.String())
}

type logNotifier struct{}

// NewLogNotifier only logs. Used when no mail sender is configured.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) NotifyApprovers(ctx context.Context, title string, emails []string) error {
	slog.Warn("mail sender not configured, approvers not emailed", "title", title, "emails", strings.Join(emails, ";"))
	return nil
}
