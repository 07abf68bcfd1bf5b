// Package slack adapts Slack Socket Mode to the channel contract. Slack has
// no per-channel typing API for bots, so the adapter does not implement the
// typing capability.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/config"
)

// Adapter is the Slack surface adapter.
type Adapter struct {
	logger *slog.Logger
	cfg    config.SlackConfig
	client *slack.Client
	botUID string
}

func New(log *slog.Logger, cfg config.SlackConfig) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "slack")),
		cfg:    cfg,
	}
}

func (a *Adapter) Surface() channel.Surface {
	return channel.SurfaceSlack
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Surface:        channel.SurfaceSlack,
		DisplayName:    "Slack",
		TextChunkLimit: 4000,
		SupportsTyping: false,
	}
}

// Connect opens a Socket Mode session and feeds message events to handler.
func (a *Adapter) Connect(ctx context.Context, handler channel.InboundHandler) (channel.Connection, error) {
	if strings.TrimSpace(a.cfg.BotToken) == "" || strings.TrimSpace(a.cfg.AppToken) == "" {
		return nil, fmt.Errorf("slack bot_token and app_token are required")
	}
	api := slack.New(a.cfg.BotToken, slack.OptionAppLevelToken(a.cfg.AppToken))
	authResp, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack auth: %w", err)
	}
	a.client = api
	a.botUID = authResp.UserID
	a.logger.Info("connected", slog.String("user", authResp.User), slog.String("user_id", authResp.UserID))

	socketClient := socketmode.New(api)
	connCtx, cancel := context.WithCancel(ctx)

	go func() {
		for evt := range socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				socketClient.Ack(*evt.Request)
				a.handleEventsAPI(connCtx, apiEvent, handler)
			default:
				// Unacked events disconnect Socket Mode.
				if evt.Request != nil {
					socketClient.Ack(*evt.Request)
				}
			}
		}
	}()
	go func() {
		if err := socketClient.RunContext(connCtx); err != nil && connCtx.Err() == nil {
			a.logger.Error("socket mode stopped", slog.Any("error", err))
		}
	}()

	stop := func(context.Context) error {
		a.logger.Info("stop")
		cancel()
		return nil
	}
	return channel.NewConnection(channel.SurfaceSlack, stop), nil
}

func (a *Adapter) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent, handler channel.InboundHandler) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	if ev.User == a.botUID || ev.User == "" || ev.SubType != "" {
		return
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	chatType := channel.ChatGroup
	if strings.HasPrefix(ev.Channel, "D") {
		chatType = channel.ChatDirect
	}
	msg := channel.InboundMessage{
		Surface:     channel.SurfaceSlack,
		From:        ev.User,
		To:          a.botUID,
		Body:        text,
		MessageID:   ev.TimeStamp,
		ChatType:    chatType,
		ReplyTarget: ev.Channel,
		ReceivedAt:  time.Now().UTC(),
	}
	if chatType == channel.ChatGroup {
		msg.GroupID = ev.Channel
	}
	a.logger.Info("inbound received",
		slog.String("channel", ev.Channel),
		slog.String("from", ev.User),
	)
	go func() {
		if err := handler(ctx, msg); err != nil {
			a.logger.Error("handle inbound failed", slog.Any("error", err))
		}
	}()
}

// Send posts text and attachment links to a channel.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	if a.client == nil {
		return fmt.Errorf("slack not connected")
	}
	target := strings.TrimSpace(msg.Target)
	if target == "" {
		return fmt.Errorf("slack target is required")
	}
	if msg.IsEmpty() {
		return fmt.Errorf("message is required")
	}
	text := msg.Text
	for _, att := range msg.Attachments {
		if strings.TrimSpace(att.URL) == "" {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += att.URL
	}
	_, _, err := a.client.PostMessageContext(ctx, target,
		slack.MsgOptionText(text, false),
	)
	return err
}
