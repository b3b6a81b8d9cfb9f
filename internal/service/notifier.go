package service

import (
	"context"
	"fmt"

	"clinic-management-api/config"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notification channels reported in metrics.
const (
	ChannelSMS = "sms"
	ChannelLog = "log"
)

// Notifier delivers a text message to a phone number and returns the provider message id.
type Notifier interface {
	Send(ctx context.Context, to, body string) (string, error)
	Channel() string
}

// NewNotifier returns a Twilio notifier when credentials are configured, a
// log-only notifier otherwise.
func NewNotifier(cfg config.TwilioConfig, log *logrus.Logger) Notifier {
	if !cfg.Enabled() {
		log.Info("Twilio not configured, reminders will only be logged")
		return &logNotifier{log: log}
	}
	return &twilioNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		from: cfg.FromNumber,
		log:  log,
	}
}

type twilioNotifier struct {
	client *twilio.RestClient
	from   string
	log    *logrus.Logger
}

func (n *twilioNotifier) Channel() string { return ChannelSMS }

func (n *twilioNotifier) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("send sms to %s: %w", to, err)
	}
	if resp.Sid == nil {
		n.log.Warnf("Message sent to %s, but no SID returned", to)
		return "", nil
	}
	return *resp.Sid, nil
}

type logNotifier struct {
	log *logrus.Logger
}

func (n *logNotifier) Channel() string { return ChannelLog }

func (n *logNotifier) Send(_ context.Context, to, body string) (string, error) {
	n.log.WithField("to", to).Infof("Reminder: %s", body)
	return "", nil
}
