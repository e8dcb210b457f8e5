package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

// LogNotifier writes notifications to the log instead of sending them.
// Used in development.
type LogNotifier struct {
	log zerolog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.log.Info().
		Str("kind", string(n.Kind)).
		Str("user_id", n.UserID).
		Str("to", n.To).
		Str("url", n.URL).
		Msg("notification")
	return nil
}
