package router

import (
	"regexp"
	"strings"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/config"
)

// CommandAuthorization is the per-event authorization result. It is computed
// fresh for every inbound message and never persisted.
type CommandAuthorization struct {
	IsWhatsAppSurface  bool
	OwnerList          []string
	SenderE164         string
	IsAuthorizedSender bool
	From               string
	To                 string
}

var (
	e164Shape     = regexp.MustCompile(`^\+?\d{3,}$`)
	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
)

// NormalizeE164 reduces a raw address to a normalized +digits phone number.
// It returns "" when the value does not look like a phone number; malformed
// addresses degrade to absence, never to an error.
func NormalizeE164(raw string) string {
	cleaned := nonPhoneChars.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.TrimLeft(cleaned, "+")
	if cleaned == "" || len(cleaned) < 3 {
		return ""
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return "+" + cleaned
}

func looksLikeE164(value string) bool {
	if value == "" {
		return false
	}
	return e164Shape.MatchString(nonPhoneChars.ReplaceAllString(value, ""))
}

// ResolveCommandAuthorization decides whether the sender of msg may issue
// privileged commands. commandAuthorized is the externally pre-computed
// command-level gate; ownership and that gate are independent necessary
// conditions.
func ResolveCommandAuthorization(cfg config.Config, msg channel.InboundMessage, commandAuthorized bool) CommandAuthorization {
	surface := strings.ToLower(strings.TrimSpace(msg.Surface.String()))
	if msg.Surface == channel.SurfaceUnknown {
		surface = ""
	}
	from := strings.TrimPrefix(msg.From, "whatsapp:")
	to := strings.TrimPrefix(msg.To, "whatsapp:")
	hasWhatsAppPrefix := strings.HasPrefix(msg.From, "whatsapp:") || strings.HasPrefix(msg.To, "whatsapp:")
	inferWhatsApp := surface == "" &&
		len(cfg.WhatsApp.AllowFrom) > 0 &&
		(looksLikeE164(from) || looksLikeE164(to))
	isWhatsApp := surface == "whatsapp" || hasWhatsAppPrefix || inferWhatsApp

	allowFrom := make([]string, 0, len(cfg.WhatsApp.AllowFrom))
	if isWhatsApp {
		for _, entry := range cfg.WhatsApp.AllowFrom {
			if strings.TrimSpace(entry) != "" {
				allowFrom = append(allowFrom, entry)
			}
		}
	}
	allowAll := !isWhatsApp || len(allowFrom) == 0
	for _, entry := range allowFrom {
		if strings.TrimSpace(entry) == "*" {
			allowAll = true
			break
		}
	}

	senderRaw := msg.SenderE164
	if senderRaw == "" && isWhatsApp {
		senderRaw = from
	}
	senderE164 := NormalizeE164(senderRaw)

	var ownerCandidates []string
	if isWhatsApp && !allowAll {
		for _, entry := range allowFrom {
			if entry != "*" {
				ownerCandidates = append(ownerCandidates, entry)
			}
		}
		if len(ownerCandidates) == 0 && to != "" {
			ownerCandidates = append(ownerCandidates, to)
		}
	}
	ownerList := make([]string, 0, len(ownerCandidates))
	for _, candidate := range ownerCandidates {
		if normalized := NormalizeE164(candidate); normalized != "" {
			ownerList = append(ownerList, normalized)
		}
	}

	isOwner := !isWhatsApp || allowAll || len(ownerList) == 0
	if !isOwner && senderE164 != "" {
		for _, owner := range ownerList {
			if owner == senderE164 {
				isOwner = true
				break
			}
		}
	}

	return CommandAuthorization{
		IsWhatsAppSurface:  isWhatsApp,
		OwnerList:          ownerList,
		SenderE164:         senderE164,
		IsAuthorizedSender: commandAuthorized && isOwner,
		From:               from,
		To:                 to,
	}
}
