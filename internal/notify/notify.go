// Package notify posts pipeline notifications to Slack.
package notify

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/nlopes/slack"
	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/secrets"
)

// Alert types
const (
	Processed = "processed"
	Sorted    = "sorted"
	Failed    = "error"
)

// ErrInvalidToken is returned when Slack rejects the token
var ErrInvalidToken = errors.New("slack token is invalid")

var tokenErrors = []string{"invalid_auth", "not_authed", "token_revoked", "account_inactive"}

// Poster is an abstraction for a Slack client
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SecretReader resolves a token held in Secrets Manager
type SecretReader interface {
	String(ctx context.Context, id string) (string, error)
}

// Notifier sends notifications to a channel
type Notifier struct {
	slack Poster
}

// NewNotifier returns a new Notifier
func NewNotifier(p Poster) *Notifier {
	return &Notifier{slack: p}
}

// NewSlackClient builds a Slack client from a token or a secret ARN.
// It returns nil when no token is configured.
func NewSlackClient(ctx context.Context, token string, sr SecretReader) (*slack.Client, error) {

	if token == "" {
		return nil, nil
	}

	if secrets.IsARN(token) {
		if sr == nil {
			return nil, errors.New("no secret reader for slack token")
		}
		t, err := sr.String(ctx, token)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve slack token")
		}
		token = strings.TrimSpace(t)
	}

	return slack.New(token), nil
}

type alert struct {
	color string
	title string
	verb  string
}

var alerts = map[string]alert{
	Processed: {color: "good", title: "File Processed", verb: "has been processed"},
	Sorted:    {color: "#439FE0", title: "File Sorted", verb: "has been sorted"},
	Failed:    {color: "danger", title: "File Processing Error", verb: "could not be processed"},
}

// Message builds the message options for a file notification
func Message(filePath, alertType string) ([]slack.MsgOption, error) {

	a, ok := alerts[alertType]
	if !ok {
		return nil, errors.Errorf("unknown alert type %q", alertType)
	}

	name := path.Base(filePath)
	text := fmt.Sprintf("File (%s) %s", name, a.verb)

	att := slack.Attachment{
		Color: a.color,
		Title: a.title,
		Text:  text,
		Fields: []slack.AttachmentField{
			{Title: "File", Value: name, Short: true},
			{Title: "Path", Value: filePath, Short: false},
		},
	}

	return []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionAttachments(att),
	}, nil
}

// Send posts a notification about filePath to channel
func (n *Notifier) Send(ctx context.Context, channel, filePath, alertType string) error {

	opts, err := Message(filePath, alertType)
	if err != nil {
		return err
	}

	_, _, err = n.slack.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		for _, te := range tokenErrors {
			if strings.Contains(err.Error(), te) {
				return errors.Wrap(ErrInvalidToken, err.Error())
			}
		}
		return errors.Wrap(err, "failed to post slack message")
	}
	return nil
}
