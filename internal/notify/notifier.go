// Package notify delivers fire-and-forget alert notifications.
package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Notifier delivers a plain-text alert. Delivery is best-effort: callers
// treat a returned error as log-worthy, never as a pipeline failure.
type Notifier interface {
	Notify(message string) error
}

// Console logs notifications to the given logger.
type Console struct {
	logger *log.Logger
}

// NewConsole creates a console notifier.
func NewConsole(logger *log.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Notify(message string) error {
	c.logger.Printf("ALERT: %s", message)
	return nil
}

// SMTP sends notifications as plain-text email.
type SMTP struct {
	addr string // host:port
	from string
	to   []string
}

// NewSMTP creates an SMTP notifier. addr is host:port of the relay.
func NewSMTP(addr, from string, to []string) *SMTP {
	return &SMTP{addr: addr, from: from, to: to}
}

func (s *SMTP) Notify(message string) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: crypto pipeline alert\r\n\r\n%s\r\n",
		s.from, strings.Join(s.to, ", "), message,
	)
	if err := smtp.SendMail(s.addr, nil, s.from, s.to, []byte(body)); err != nil {
		return fmt.Errorf("send alert mail: %w", err)
	}
	return nil
}

// Multi fans a notification out to several notifiers, returning the first
// error after attempting all of them.
type Multi []Notifier

func (m Multi) Notify(message string) error {
	var first error
	for _, n := range m {
		if err := n.Notify(message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
