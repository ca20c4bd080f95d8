package notification

import (
	"context"
	"log/slog"
)

// Message addresses one interested party of a transition. Recipient identity
// is the employee id; the dispatcher resolves it to a deliverable address.
type Message struct {
	EmployeeID int64  `json:"employee_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// Dispatcher delivers transition notifications. Delivery is best-effort: a
// failed or undelivered send is logged and never surfaces to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []Message)
}

// Sender is the delivery transport: returns whether the message was accepted.
// A false return or an error is non-fatal to the workflow.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) (bool, error)
}

// Directory resolves an employee id to a deliverable address.
type Directory interface {
	EmailForEmployee(ctx context.Context, employeeID int64) (string, error)
}

// MailDispatcher resolves recipients through the employee directory and hands
// messages to the relay sender inline.
type MailDispatcher struct {
	sender    Sender
	directory Directory
	logger    *slog.Logger
}

func NewMailDispatcher(sender Sender, directory Directory, logger *slog.Logger) *MailDispatcher {
	return &MailDispatcher{
		sender:    sender,
		directory: directory,
		logger:    logger,
	}
}

func (d *MailDispatcher) Dispatch(ctx context.Context, msgs []Message) {
	for _, msg := range msgs {
		recipient, err := d.directory.EmailForEmployee(ctx, msg.EmployeeID)
		if err != nil {
			d.logger.Warn("notification recipient lookup failed",
				"employee_id", msg.EmployeeID,
				"subject", msg.Subject,
				"error", err)
			continue
		}

		delivered, err := d.sender.Send(ctx, recipient, msg.Subject, msg.Body)
		if err != nil {
			d.logger.Warn("notification send failed",
				"employee_id", msg.EmployeeID,
				"recipient", recipient,
				"subject", msg.Subject,
				"error", err)
			continue
		}
		if !delivered {
			d.logger.Warn("notification not delivered",
				"employee_id", msg.EmployeeID,
				"recipient", recipient,
				"subject", msg.Subject)
			continue
		}

		d.logger.Info("notification delivered",
			"employee_id", msg.EmployeeID,
			"subject", msg.Subject)
	}
}

// NoopDispatcher drops all messages. Used where no transport is configured.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(ctx context.Context, msgs []Message) {}
