package corpus

import (
	"sync"

	"github.com/rs/zerolog"
)

// Loader memoizes a corpus read from a primary path with optional fallbacks.
// Only the first Load touches disk; failures are logged and yield an empty
// corpus that is cached like any other.
type Loader struct {
	paths  []string
	logger zerolog.Logger

	once   sync.Once
	corpus *Corpus
}

func NewLoader(logger zerolog.Logger, paths ...string) *Loader {
	return &Loader{
		paths:  paths,
		logger: logger,
	}
}

func (l *Loader) Load() *Corpus {
	l.once.Do(func() {
		c, err := Load(l.paths...)
		if err != nil {
			l.logger.Error().Err(err).Strs("paths", l.paths).Msg("Error loading training data")
		} else {
			l.logger.Info().
				Str("source", c.Source()).
				Int("examples", c.Len()).
				Int("terms", len(c.Index().terms)).
				Msg("Loaded training data")
		}
		l.corpus = c
	})
	return l.corpus
}
