package sheet

import "github.com/rs/zerolog/log"

// continueAutomix appends the first automix candidate once the queue has run
// out of tracks to skip to.
func (s *Sheet) continueAutomix() {
	if s.state.CanSkipNext() {
		return
	}

	automix := s.state.AutomixItems()
	if len(automix) == 0 {
		return
	}

	if !s.state.AddToQueueAutomix(automix[0], 0) {
		log.Debug().Str("id", automix[0].MediaID()).Msg("Automix changed before it could be queued")
	}
}
