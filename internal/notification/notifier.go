// Package notification defines the outbound message contract. The core
// only ever calls Send after a state change has committed.
package notification

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
}

// logNotifier writes notifications to the log. Mail/SMS transports are
// deployment concerns; this keeps development and tests self-contained.
type logNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log.Named("notification")}
}

func (n *logNotifier) Send(ctx context.Context, recipients []string, subject, body string) error {
	n.log.Info("notification sent",
		zap.Strings("recipients", recipients),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

var Module = fx.Module("notification",
	fx.Provide(NewLogNotifier),
)
