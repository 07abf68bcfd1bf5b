// Package channel defines the surface abstraction: message shapes, adapter
// contracts, the adapter registry, and the dispatch manager.
package channel

import (
	"strings"
	"time"
)

// Surface identifies a messaging platform.
type Surface string

const (
	SurfaceWhatsApp Surface = "whatsapp"
	SurfaceTelegram Surface = "telegram"
	SurfaceDiscord  Surface = "discord"
	SurfaceSlack    Surface = "slack"
	SurfaceWeb      Surface = "web"
	SurfaceUnknown  Surface = "unknown"
)

// ParseSurface normalizes a raw surface string. Unrecognized values map to
// SurfaceUnknown rather than failing.
func ParseSurface(raw string) Surface {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "whatsapp":
		return SurfaceWhatsApp
	case "telegram":
		return SurfaceTelegram
	case "discord":
		return SurfaceDiscord
	case "slack":
		return SurfaceSlack
	case "web":
		return SurfaceWeb
	default:
		return SurfaceUnknown
	}
}

func (s Surface) String() string {
	return string(s)
}

// ChatType distinguishes direct conversations from group/channel ones.
type ChatType string

const (
	ChatDirect ChatType = "direct"
	ChatGroup  ChatType = "group"
)

// AttachmentType classifies outbound media.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentAudio AttachmentType = "audio"
	AttachmentVideo AttachmentType = "video"
	AttachmentGIF   AttachmentType = "gif"
	AttachmentFile  AttachmentType = "file"
)

// Attachment is a media item attached to a message.
type Attachment struct {
	Type AttachmentType `json:"type"`
	URL  string         `json:"url,omitempty"`
	Name string         `json:"name,omitempty"`
	Mime string         `json:"mime,omitempty"`
}

// InboundMessage is one normalized inbound event. Surface adapters build it
// from platform payloads before handing it to the router; it is not mutated
// afterwards.
type InboundMessage struct {
	Surface     Surface
	From        string // raw sender address, possibly surface-prefixed
	To          string // raw recipient address, possibly surface-prefixed
	SenderE164  string // normalized sender phone when the adapter knows it
	SenderName  string
	Body        string
	MessageID   string
	ChatType    ChatType
	GroupID     string // group/room/channel id
	GroupSpace  string // containing space, e.g. Discord guild id
	GroupRoom   string // human channel name, e.g. "#general"
	ReplyTarget string
	ReceivedAt  time.Time
}

// OutboundMessage is one reply to deliver on a surface.
type OutboundMessage struct {
	Target      string       `json:"target"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// IsEmpty reports whether the message carries nothing to send.
func (m OutboundMessage) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == "" && len(m.Attachments) == 0
}

// Descriptor describes a surface adapter's delivery constraints.
type Descriptor struct {
	Surface        Surface
	DisplayName    string
	TextChunkLimit int
	SupportsTyping bool
}
