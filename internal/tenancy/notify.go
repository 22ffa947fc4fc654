package tenancy

import "github.com/rs/zerolog"

// Notifier surfaces outcomes to the user, the way a UI shows toasts.
type Notifier interface {
	Success(msg string)
	Error(err error)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Success(msg string) { n.Log.Info().Msg(msg) }

func (n LogNotifier) Error(err error) { n.Log.Error().Err(err).Msg("request failed") }
