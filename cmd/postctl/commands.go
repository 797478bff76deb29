package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/maheshrc27/postpipe/pkg/utils"
)

var stdout io.Writer = os.Stdout

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type startCommand struct {
	Platforms []string `short:"p" long:"platform" required:"true" description:"Target platform, repeatable"`
	Approvers string   `short:"a" long:"approvers" description:"Approver emails separated by ; or ,"`
	Args      struct {
		ArticleURL string `positional-arg-name:"article-url" required:"yes"`
	} `positional-args:"yes"`
}

func (c *startCommand) Execute(args []string) error {
	ctx := context.Background()
	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	var emails []string
	for _, e := range strings.FieldsFunc(c.Approvers, func(r rune) bool { return r == ';' || r == ',' }) {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}

	result, err := app.Workflow.StartWorkflow(ctx, c.Args.ArticleURL, c.Platforms, emails)
	if err != nil {
		return err
	}
	return printJSON(result)
}

type scheduleCommand struct{}

func (c *scheduleCommand) Execute(args []string) error {
	ctx := context.Background()
	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return printJSON(app.Workflow.RunScheduling(ctx))
}

type publishCommand struct{}

func (c *publishCommand) Execute(args []string) error {
	ctx := context.Background()
	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return printJSON(app.Workflow.RunPublishing(ctx))
}

type pendingCommand struct{}

func (c *pendingCommand) Execute(args []string) error {
	ctx := context.Background()
	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.Workflow.ListAwaitingApproval(ctx)
	if err != nil {
		return err
	}
	return printJSON(records)
}

type approvalCommand struct {
	value string
	Args  struct {
		Platform string `positional-arg-name:"platform" required:"yes"`
		PostID   string `positional-arg-name:"post-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *approvalCommand) Execute(args []string) error {
	ctx := context.Background()
	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Workflow.SetApproval(ctx, c.Args.Platform, c.Args.PostID, c.value); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s/%s: Approved_by_human=%s\n", c.Args.Platform, c.Args.PostID, c.value)
	return nil
}

type tokenCommand struct {
	Subject string        `short:"s" long:"subject" default:"operator" description:"Token subject"`
	TTL     time.Duration `long:"ttl" default:"720h" description:"Token lifetime"`
}

func (c *tokenCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.SecretKey == "" {
		return errors.New("SECRET_KEY is not set")
	}

	token, err := utils.GenerateToken(cfg.SecretKey, c.Subject, "workflow", c.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}

type apiKeyCommand struct {
	Length int `long:"length" default:"32" description:"Random bytes before encoding"`
}

func (c *apiKeyCommand) Execute(args []string) error {
	key, err := utils.GenerateRandomKey(c.Length)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, key)
	return nil
}
