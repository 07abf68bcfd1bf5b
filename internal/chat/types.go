// Package chat defines the boundary to the reply engine that actually calls
// models. The engine is an external collaborator reached over HTTP; this
// package only carries the contract and the client.
package chat

import (
	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/models"
)

// Request is one reply run handed to the engine: the cleaned message body
// plus everything the engine needs to pick credentials and models.
type Request struct {
	Surface      string       `json:"surface"`
	SessionID    string       `json:"session_id"`
	Body         string       `json:"body"`
	SenderName   string       `json:"sender_name,omitempty"`
	ReplyTarget  string       `json:"reply_target,omitempty"`
	Model        models.Ref   `json:"model"`
	Fallbacks    []models.Ref `json:"fallbacks,omitempty"`
	ProfileOrder []string     `json:"profile_order,omitempty"`
}

// Reply is one outbound message produced by the engine.
type Reply struct {
	Text        string               `json:"text,omitempty"`
	Attachments []channel.Attachment `json:"attachments,omitempty"`
}

// Response is the engine's output for one run.
type Response struct {
	Replies []Reply `json:"replies"`
}
