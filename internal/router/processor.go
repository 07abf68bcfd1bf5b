package router

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/harborai/harbor/internal/authprofiles"
	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/chat"
	"github.com/harborai/harbor/internal/config"
	"github.com/harborai/harbor/internal/history"
	"github.com/harborai/harbor/internal/models"
	"github.com/harborai/harbor/internal/typing"
)

// Processor runs the full inbound pipeline: structural stripping, directive
// extraction, authorization, group policy, model resolution, the reply run,
// and outbound dispatch with typing presence.
type Processor struct {
	logger         *slog.Logger
	cfg            config.Config
	gateway        chat.Gateway
	profiles       *authprofiles.Store
	journal        *history.Store
	aliasIndex     models.AliasIndex
	mentionRegexes []*regexp.Regexp
	typingInterval time.Duration
	typingTTL      time.Duration
}

// NewProcessor builds a Processor. journal may be nil to disable the message
// journal. Invalid mention patterns are reported once here and skipped.
func NewProcessor(log *slog.Logger, cfg config.Config, gateway chat.Gateway, profiles *authprofiles.Store, journal *history.Store) *Processor {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("service", "router"))
	patterns := config.CompileMentionPatterns(cfg.Routing.GroupChat.MentionPatterns)
	config.ReportInvalidPatterns(logger, patterns)
	return &Processor{
		logger:         logger,
		cfg:            cfg,
		gateway:        gateway,
		profiles:       profiles,
		journal:        journal,
		aliasIndex:     models.BuildAliasIndex(cfg, cfg.Agent.DefaultProvider),
		mentionRegexes: config.ValidMentionRegexes(patterns),
		typingInterval: time.Duration(cfg.Typing.IntervalSeconds) * time.Second,
		typingTTL:      time.Duration(cfg.Typing.TTLSeconds) * time.Second,
	}
}

// HandleInbound processes one inbound message end to end. Authorization and
// mention-gate rejections drop the message and return nil; only engine and
// dispatch failures surface as errors.
func (p *Processor) HandleInbound(ctx context.Context, msg channel.InboundMessage, sender channel.ReplySender) error {
	log := p.logger.With(
		slog.String("surface", msg.Surface.String()),
		slog.String("from", msg.From),
	)

	body := StripStructuralPrefixes(msg.Body)
	directive := ExtractModelDirective(body)
	body = directive.Cleaned

	auth := ResolveCommandAuthorization(p.cfg, msg, directive.HasDirective)
	if directive.HasDirective && !auth.IsAuthorizedSender {
		log.Debug("model directive from unauthorized sender ignored",
			slog.String("sender", auth.SenderE164))
		directive = Directive{Cleaned: directive.Cleaned}
	}

	group := GroupResolution{Surface: msg.Surface, ID: msg.GroupID, ChatType: msg.ChatType}
	if msg.ChatType == channel.ChatGroup {
		if !ResolveGroupAllowed(p.cfg, msg, group) {
			log.Debug("group not allowed, dropping", slog.String("group", msg.GroupID))
			return nil
		}
		if ResolveGroupRequireMention(p.cfg, msg, group) {
			if !MatchesMentionPatterns(body, p.mentionRegexes) {
				log.Debug("group message without mention, dropping", slog.String("group", msg.GroupID))
				return nil
			}
		}
	}
	body = StripMentions(body, msg, p.mentionRegexes)
	if body == "" {
		log.Debug("empty body after stripping, dropping")
		return nil
	}

	p.journalMessage(ctx, msg.Surface, history.DirectionInbound, msg.From, msg.To, msg.Body)

	ref, fallbacks := p.resolveModel(directive, log)
	order := authprofiles.ResolveOrder(p.cfg, p.profiles, ref.Provider, directive.RawProfile)

	controller := p.startTyping(ctx, msg, sender)
	defer controller.Stop()

	resp, err := p.gateway.Reply(ctx, chat.Request{
		Surface:      msg.Surface.String(),
		SessionID:    sessionKey(msg),
		Body:         body,
		SenderName:   msg.SenderName,
		ReplyTarget:  replyTarget(msg),
		Model:        ref,
		Fallbacks:    fallbacks,
		ProfileOrder: order,
	})
	controller.MarkRunComplete()
	if err != nil {
		sender.NotifyWhenIdle(controller.MarkDispatchIdle)
		return fmt.Errorf("reply run: %w", err)
	}

	var dispatchErr error
	for _, reply := range resp.Replies {
		out := channel.OutboundMessage{
			Target:      replyTarget(msg),
			Text:        reply.Text,
			Attachments: reply.Attachments,
		}
		if out.IsEmpty() {
			continue
		}
		if err := sender.Send(ctx, out); err != nil {
			dispatchErr = err
			log.Error("reply dispatch failed", slog.Any("error", err))
			continue
		}
		p.journalMessage(ctx, msg.Surface, history.DirectionOutbound, msg.To, out.Target, out.Text)
	}
	sender.NotifyWhenIdle(controller.MarkDispatchIdle)
	return dispatchErr
}

// resolveModel applies the precedence directive override > configured
// primary > defaults. An unresolvable directive value falls back to the
// configured selection rather than failing the message.
func (p *Processor) resolveModel(directive Directive, log *slog.Logger) (models.Ref, []models.Ref) {
	if directive.RawModel != "" {
		if ref, ok := models.ResolveRefFromString(directive.RawModel, p.cfg.Agent.DefaultProvider, p.aliasIndex); ok {
			return ref, models.ResolveFallbackRefs(p.cfg)
		}
		log.Debug("unresolvable model directive, using configured model",
			slog.String("raw", directive.RawModel))
	}
	return models.ResolveConfiguredRef(p.cfg), models.ResolveFallbackRefs(p.cfg)
}

func (p *Processor) startTyping(ctx context.Context, msg channel.InboundMessage, sender channel.ReplySender) *typing.Controller {
	target := replyTarget(msg)
	controller := typing.NewController(func(ctx context.Context) {
		if err := sender.Typing(ctx, target); err != nil {
			p.logger.Debug("typing signal failed", slog.Any("error", err))
		}
	}, p.typingInterval, p.typingTTL)
	controller.Start(ctx)
	return controller
}

func (p *Processor) journalMessage(ctx context.Context, surface channel.Surface, dir history.Direction, sender, target, body string) {
	if p.journal == nil {
		return
	}
	p.journal.Record(ctx, history.Entry{
		Surface:   surface.String(),
		Direction: dir,
		Sender:    sender,
		Target:    target,
		Body:      body,
	})
}

// sessionKey identifies a conversation: the group for group chats, the
// sender for direct chats.
func sessionKey(msg channel.InboundMessage) string {
	if msg.ChatType == channel.ChatGroup && msg.GroupID != "" {
		return msg.Surface.String() + ":" + msg.GroupID
	}
	return msg.Surface.String() + ":" + msg.From
}

func replyTarget(msg channel.InboundMessage) string {
	if msg.ReplyTarget != "" {
		return msg.ReplyTarget
	}
	if msg.ChatType == channel.ChatGroup && msg.GroupID != "" {
		return msg.GroupID
	}
	return msg.From
}
