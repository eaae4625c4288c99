package build

import (
	"github.com/rs/zerolog"

	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/types"
)

// machine tracks the build state and logs every transition
type machine struct {
	state  types.BuildState
	logger zerolog.Logger
}

func (m *machine) to(next types.BuildState) error {
	if !m.state.CanTransition(next) {
		return errors.Newf(errors.ErrInternal, "invalid build state transition %s -> %s", m.state, next)
	}
	m.logger.Debug().
		Str("from", m.state.String()).
		Str("to", next.String()).
		Msg("Build state changed")
	m.state = next
	return nil
}

func (m *machine) fail(err error) {
	if m.state.Terminal() {
		return
	}
	m.logger.Error().
		Err(err).
		Str("state", m.state.String()).
		Msg("Build failed")
	m.state = types.StateFailed
}
