// -----------------------------------------------------------------------
// Email Trigger - polls an IMAP inbox for presentation links and submits
// them as jobs
// -----------------------------------------------------------------------

package imap

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
)

// SubmitFunc receives a presentation URL found in an inbox message.
type SubmitFunc func(ctx context.Context, url, requestedBy string) error

// presentation URL shapes accepted as triggers
var triggerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://portal\.mypromooffice\.com/presentations/\d+\?accessCode=[a-f0-9]+`),
	regexp.MustCompile(`https://portal\.mypromooffice\.com/projects/\d+/presentations/\d+\S*`),
	regexp.MustCompile(`https://(?:www\.)?viewpresentation\.com/\S+`),
	regexp.MustCompile(`https://sageconnect\.sage\.com/Presentation/[A-Za-z0-9]+`),
}

// ExtractPresentationURL finds the first presentation link in an email
// body. Returns false when the message carries none.
func ExtractPresentationURL(body string) (string, bool) {
	for _, pattern := range triggerPatterns {
		if match := pattern.FindString(body); match != "" {
			return strings.TrimRight(match, ".,;)>"), true
		}
	}
	return "", false
}

// Watcher polls the configured mailbox and submits a job for every
// unseen message containing a presentation link. Messages are marked
// seen once inspected so they are never processed twice.
type Watcher struct {
	config   *common.IMAPConfig
	interval time.Duration
	submit   SubmitFunc
	logger   arbor.ILogger
}

// NewWatcher creates an inbox watcher.
func NewWatcher(config *common.IMAPConfig, submit SubmitFunc, logger arbor.ILogger) (*Watcher, error) {
	if config.Server == "" || config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("IMAP server, username and password are required")
	}
	if submit == nil {
		return nil, fmt.Errorf("submit callback is required")
	}

	interval, err := time.ParseDuration(config.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid poll interval '%s': %w", config.PollInterval, err)
	}

	return &Watcher{
		config:   config,
		interval: interval,
		submit:   submit,
		logger:   logger,
	}, nil
}

// Run polls until the context is cancelled. Poll failures are logged
// and retried on the next tick; a flaky mail server must not take the
// trigger down.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info().
		Str("server", w.config.Server).
		Str("folder", w.config.Folder).
		Str("interval", w.interval.String()).
		Msg("Email trigger started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Email trigger stopped")
			return
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				w.logger.Warn().Err(err).Msg("Inbox poll failed")
			}
		}
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	c, err := client.DialTLS(w.config.Server, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(w.config.Username, w.config.Password); err != nil {
		return fmt.Errorf("IMAP login failed: %w", err)
	}

	folder := w.config.Folder
	if folder == "" {
		folder = "INBOX"
	}
	mbox, err := c.Select(folder, false)
	if err != nil {
		return fmt.Errorf("failed to select %s: %w", folder, err)
	}
	if mbox.Messages == 0 {
		return nil
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(seqNums) == 0 {
		return nil
	}

	w.logger.Debug().Int("count", len(seqNums)).Msg("Found unseen messages")

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	section := &imap.BodySectionName{}
	messages := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, section.FetchItem()}, messages)
	}()

	for msg := range messages {
		if msg == nil {
			continue
		}
		w.handleMessage(ctx, msg, section)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}

	// Mark everything inspected as seen, link or not, so the next poll
	// starts fresh.
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.Store(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("failed to mark messages as seen: %w", err)
	}

	return nil
}

func (w *Watcher) handleMessage(ctx context.Context, msg *imap.Message, section *imap.BodySectionName) {
	from := ""
	subject := ""
	if msg.Envelope != nil {
		subject = msg.Envelope.Subject
		if len(msg.Envelope.From) > 0 {
			from = msg.Envelope.From[0].Address()
		}
	}

	body, err := parseTextBody(msg, section)
	if err != nil {
		w.logger.Warn().Err(err).Int64("seq", int64(msg.SeqNum)).Msg("Failed to parse message body")
		return
	}

	url, ok := ExtractPresentationURL(body)
	if !ok {
		w.logger.Debug().Str("subject", subject).Msg("Message carries no presentation link, skipping")
		return
	}

	w.logger.Info().
		Str("url", url).
		Str("from", from).
		Str("subject", subject).
		Msg("Presentation link received by email")

	if err := w.submit(ctx, url, from); err != nil {
		w.logger.Error().Err(err).Str("url", url).Msg("Failed to submit job from email trigger")
	}
}

// parseTextBody extracts the text/plain part of a message.
func parseTextBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", fmt.Errorf("no body section")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to create mail reader: %w", err)
	}

	var body string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/plain") {
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return "", fmt.Errorf("failed to read body: %w", err)
				}
				body = string(b)
			}
		}
	}

	return strings.TrimSpace(body), nil
}
