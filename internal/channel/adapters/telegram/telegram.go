// Package telegram adapts the Telegram Bot API (long polling) to the
// channel contract.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/config"
)

// Adapter is the Telegram surface adapter.
type Adapter struct {
	logger *slog.Logger
	cfg    config.TelegramConfig

	initOnce sync.Once
	bot      *tgbotapi.BotAPI
	initErr  error
}

func New(log *slog.Logger, cfg config.TelegramConfig) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		logger: log.With(slog.String("adapter", "telegram")),
		cfg:    cfg,
	}
}

func (a *Adapter) Surface() channel.Surface {
	return channel.SurfaceTelegram
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Surface:        channel.SurfaceTelegram,
		DisplayName:    "Telegram",
		TextChunkLimit: 4096,
		SupportsTyping: true,
	}
}

// api initializes the bot client once. Connect and the dispatcher
// goroutines race on first use, so the handshake is guarded.
func (a *Adapter) api() (*tgbotapi.BotAPI, error) {
	a.initOnce.Do(func() {
		if strings.TrimSpace(a.cfg.BotToken) == "" {
			a.initErr = fmt.Errorf("telegram bot token is required")
			return
		}
		bot, err := tgbotapi.NewBotAPI(a.cfg.BotToken)
		if err != nil {
			a.initErr = fmt.Errorf("create telegram bot: %w", err)
			return
		}
		a.bot = bot
	})
	if a.initErr != nil {
		return nil, a.initErr
	}
	return a.bot, nil
}

// Connect starts long polling and feeds normalized messages to handler.
func (a *Adapter) Connect(ctx context.Context, handler channel.InboundHandler) (channel.Connection, error) {
	bot, err := a.api()
	if err != nil {
		a.logger.Error("connect failed", slog.Any("error", err))
		return nil, err
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := bot.GetUpdatesChan(updateConfig)
	connCtx, cancel := context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-connCtx.Done():
				bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					a.logger.Info("updates channel closed")
					return
				}
				if update.Message == nil {
					continue
				}
				msg, ok := a.normalize(bot, update.Message)
				if !ok {
					continue
				}
				a.logger.Info("inbound received",
					slog.String("chat_id", msg.GroupID),
					slog.String("from", msg.From),
				)
				go func() {
					if err := handler(connCtx, msg); err != nil {
						a.logger.Error("handle inbound failed", slog.Any("error", err))
					}
				}()
			}
		}
	}()

	stop := func(context.Context) error {
		a.logger.Info("stop")
		cancel()
		bot.StopReceivingUpdates()
		return nil
	}
	return channel.NewConnection(channel.SurfaceTelegram, stop), nil
}

func (a *Adapter) normalize(bot *tgbotapi.BotAPI, m *tgbotapi.Message) (channel.InboundMessage, bool) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		text = strings.TrimSpace(m.Caption)
	}
	if text == "" {
		return channel.InboundMessage{}, false
	}
	chatID := ""
	chatType := channel.ChatDirect
	if m.Chat != nil {
		chatID = strconv.FormatInt(m.Chat.ID, 10)
		if m.Chat.IsGroup() || m.Chat.IsSuperGroup() {
			chatType = channel.ChatGroup
		}
	}
	from := ""
	senderName := ""
	if m.From != nil {
		from = strconv.FormatInt(m.From.ID, 10)
		senderName = strings.TrimSpace(m.From.UserName)
		if senderName == "" {
			senderName = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
		}
	}
	to := ""
	if bot != nil {
		to = strconv.FormatInt(bot.Self.ID, 10)
	}
	msg := channel.InboundMessage{
		Surface:     channel.SurfaceTelegram,
		From:        from,
		To:          to,
		SenderName:  senderName,
		Body:        text,
		MessageID:   strconv.Itoa(m.MessageID),
		ChatType:    chatType,
		ReplyTarget: chatID,
		ReceivedAt:  time.Unix(int64(m.Date), 0).UTC(),
	}
	if chatType == channel.ChatGroup {
		msg.GroupID = chatID
	}
	return msg, true
}

// Send delivers text and attachments to a chat id or @channel target.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	bot, err := a.api()
	if err != nil {
		return err
	}
	target := strings.TrimSpace(msg.Target)
	if target == "" {
		return fmt.Errorf("telegram target is required")
	}
	if msg.IsEmpty() {
		return fmt.Errorf("message is required")
	}
	text := strings.TrimSpace(msg.Text)
	if len(msg.Attachments) > 0 {
		usedCaption := false
		for _, att := range msg.Attachments {
			caption := ""
			if !usedCaption && text != "" {
				caption = text
				usedCaption = true
			}
			if err := sendAttachment(bot, target, att, caption); err != nil {
				a.logger.Error("send attachment failed", slog.Any("error", err))
				return err
			}
		}
		if text == "" || usedCaption {
			return nil
		}
	}
	return sendText(bot, target, text)
}

// NotifyTyping renders the "typing..." chat action.
func (a *Adapter) NotifyTyping(ctx context.Context, target string) error {
	bot, err := a.api()
	if err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64)
	if err != nil {
		return fmt.Errorf("telegram target must be a chat_id")
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, err = bot.Request(action)
	return err
}

func sendText(bot *tgbotapi.BotAPI, target, text string) error {
	if strings.HasPrefix(target, "@") {
		_, err := bot.Send(tgbotapi.NewMessageToChannel(target, text))
		return err
	}
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram target must be @username or chat_id")
	}
	_, err = bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func sendAttachment(bot *tgbotapi.BotAPI, target string, att channel.Attachment, caption string) error {
	if strings.TrimSpace(att.URL) == "" {
		return fmt.Errorf("attachment url is required")
	}
	chatID, parseErr := strconv.ParseInt(target, 10, 64)
	if parseErr != nil {
		return fmt.Errorf("telegram attachment target must be a chat_id")
	}
	file := tgbotapi.FileURL(att.URL)
	switch att.Type {
	case channel.AttachmentImage:
		photo := tgbotapi.NewPhoto(chatID, file)
		photo.Caption = caption
		_, err := bot.Send(photo)
		return err
	case channel.AttachmentAudio:
		audio := tgbotapi.NewAudio(chatID, file)
		audio.Caption = caption
		_, err := bot.Send(audio)
		return err
	case channel.AttachmentVideo:
		video := tgbotapi.NewVideo(chatID, file)
		video.Caption = caption
		_, err := bot.Send(video)
		return err
	case channel.AttachmentGIF:
		animation := tgbotapi.NewAnimation(chatID, file)
		animation.Caption = caption
		_, err := bot.Send(animation)
		return err
	case channel.AttachmentFile, "":
		document := tgbotapi.NewDocument(chatID, file)
		document.Caption = caption
		_, err := bot.Send(document)
		return err
	default:
		return fmt.Errorf("unsupported attachment type: %s", att.Type)
	}
}
