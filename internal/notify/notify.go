// Package notify renders and delivers best-effort email notices.
package notify

import (
	"context"
	"fmt"

	"todoapp/pkg/logger"
)

// Kind names the notice to send.
type Kind string

const (
	KindWelcome     Kind = "welcome"
	KindTodoCreated Kind = "todo_created"
)

// Message is a notification request. It is also the Kafka payload.
type Message struct {
	Kind            Kind   `json:"kind"`
	To              string `json:"to"`
	Name            string `json:"name"`
	TodoTitle       string `json:"todo_title,omitempty"`
	TodoDescription string `json:"todo_description,omitempty"`
}

// Welcome builds the notice sent to new accounts.
func Welcome(to, name string) Message {
	return Message{Kind: KindWelcome, To: to, Name: name}
}

// TodoCreated builds the notice sent after a todo is created.
func TodoCreated(to, name, title string, description *string) Message {
	m := Message{Kind: KindTodoCreated, To: to, Name: name, TodoTitle: title}
	if description != nil {
		m.TodoDescription = *description
	}
	return m
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs messages instead of mailing them. Used when no relay is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	email, err := Render(msg)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Notification (mail disabled)", "kind", msg.Kind, "to", msg.To, "subject", email.Subject)
	return nil
}

// Email is a rendered message.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

// Render produces subject and bodies for msg.
func Render(msg Message) (Email, error) {
	var subject string
	switch msg.Kind {
	case KindWelcome:
		subject = "Welcome to TODO App! 🎉"
	case KindTodoCreated:
		subject = "New TODO Created: " + msg.TodoTitle
	default:
		return Email{}, fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
	text, html, err := renderBodies(msg)
	if err != nil {
		return Email{}, err
	}
	return Email{Subject: subject, Text: text, HTML: html}, nil
}
