// Package discord adapts a discordgo gateway session to the channel
// contract.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/config"
)

// Adapter is the Discord surface adapter.
type Adapter struct {
	logger *slog.Logger
	cfg    config.DiscordConfig

	initOnce sync.Once
	session  *discordgo.Session
	initErr  error
}

func New(log *slog.Logger, cfg config.DiscordConfig) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "discord")),
		cfg:    cfg,
	}
}

func (a *Adapter) Surface() channel.Surface {
	return channel.SurfaceDiscord
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Surface:        channel.SurfaceDiscord,
		DisplayName:    "Discord",
		TextChunkLimit: 2000,
		SupportsTyping: true,
	}
}

// open initializes the session once. Connect and the dispatcher
// goroutines race on first use, so the handshake is guarded.
func (a *Adapter) open() (*discordgo.Session, error) {
	a.initOnce.Do(func() {
		if strings.TrimSpace(a.cfg.BotToken) == "" {
			a.initErr = fmt.Errorf("discord bot token is required")
			return
		}
		session, err := discordgo.New("Bot " + a.cfg.BotToken)
		if err != nil {
			a.initErr = fmt.Errorf("create discord session: %w", err)
			return
		}
		session.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentMessageContent
		a.session = session
	})
	if a.initErr != nil {
		return nil, a.initErr
	}
	return a.session, nil
}

// Connect opens the gateway session and feeds normalized messages to
// handler. The bot's own messages are filtered out here.
func (a *Adapter) Connect(ctx context.Context, handler channel.InboundHandler) (channel.Connection, error) {
	session, err := a.open()
	if err != nil {
		a.logger.Error("connect failed", slog.Any("error", err))
		return nil, err
	}
	connCtx, cancel := context.WithCancel(ctx)

	remove := session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
			return
		}
		msg, ok := a.normalize(s, m)
		if !ok {
			return
		}
		a.logger.Info("inbound received",
			slog.String("guild_id", msg.GroupSpace),
			slog.String("channel_id", msg.GroupID),
			slog.String("from", msg.From),
		)
		go func() {
			if err := handler(connCtx, msg); err != nil {
				a.logger.Error("handle inbound failed", slog.Any("error", err))
			}
		}()
	})

	if err := session.Open(); err != nil {
		remove()
		cancel()
		return nil, fmt.Errorf("open discord gateway: %w", err)
	}

	stop := func(context.Context) error {
		a.logger.Info("stop")
		remove()
		cancel()
		return session.Close()
	}
	return channel.NewConnection(channel.SurfaceDiscord, stop), nil
}

func (a *Adapter) normalize(s *discordgo.Session, m *discordgo.MessageCreate) (channel.InboundMessage, bool) {
	text := strings.TrimSpace(m.Content)
	if text == "" {
		return channel.InboundMessage{}, false
	}
	chatType := channel.ChatDirect
	if m.GuildID != "" {
		chatType = channel.ChatGroup
	}
	to := ""
	if s.State.User != nil {
		to = s.State.User.ID
	}
	receivedAt := time.Now().UTC()
	if ts := m.Timestamp; !ts.IsZero() {
		receivedAt = ts.UTC()
	}
	msg := channel.InboundMessage{
		Surface:     channel.SurfaceDiscord,
		From:        m.Author.ID,
		To:          to,
		SenderName:  m.Author.Username,
		Body:        text,
		MessageID:   m.ID,
		ChatType:    chatType,
		ReplyTarget: m.ChannelID,
		ReceivedAt:  receivedAt,
	}
	if chatType == channel.ChatGroup {
		msg.GroupID = m.ChannelID
		msg.GroupSpace = m.GuildID
		msg.GroupRoom = a.channelName(s, m.ChannelID)
	}
	return msg, true
}

// channelName resolves the human channel name for routing overrides. State
// cache first, REST fallback, empty on failure.
func (a *Adapter) channelName(s *discordgo.Session, channelID string) string {
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
		if err != nil {
			return ""
		}
	}
	if ch.Name == "" {
		return ""
	}
	return "#" + ch.Name
}

// Send delivers text and attachments to a channel id.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	session, err := a.open()
	if err != nil {
		return err
	}
	target := strings.TrimSpace(msg.Target)
	if target == "" {
		return fmt.Errorf("discord target is required")
	}
	if msg.IsEmpty() {
		return fmt.Errorf("message is required")
	}
	send := &discordgo.MessageSend{Content: msg.Text}
	for _, att := range msg.Attachments {
		if strings.TrimSpace(att.URL) == "" {
			continue
		}
		if att.Type == channel.AttachmentImage {
			send.Embeds = append(send.Embeds, &discordgo.MessageEmbed{
				Image: &discordgo.MessageEmbedImage{URL: att.URL},
			})
			continue
		}
		if send.Content != "" {
			send.Content += "\n"
		}
		send.Content += att.URL
	}
	_, err = session.ChannelMessageSendComplex(target, send)
	return err
}

// NotifyTyping triggers the typing indicator in a channel. Discord keeps it
// visible for about ten seconds per trigger.
func (a *Adapter) NotifyTyping(ctx context.Context, target string) error {
	session, err := a.open()
	if err != nil {
		return err
	}
	return session.ChannelTyping(strings.TrimSpace(target))
}
