package rendezvous

import (
	"github.com/mcdev12/rendezvous/go/internal/models"
)

// Decide computes the verdict for a set of proposals.
// Fewer than required proposals is a reject; otherwise every proposal must
// carry the same value. The agreed value is returned only on accept.
func Decide(proposals map[string]models.Proposal, required int) (models.Verdict, string) {
	if len(proposals) < required {
		return models.VerdictReject, ""
	}

	distinct := make(map[string]struct{}, len(proposals))
	var agreed string
	for _, p := range proposals {
		distinct[p.Value] = struct{}{}
		agreed = p.Value
	}
	if len(distinct) != 1 {
		return models.VerdictReject, ""
	}
	return models.VerdictAccept, agreed
}

// validTransitions lists the only edges a round may take
var validTransitions = map[models.Phase]models.Phase{
	models.PhaseIdle:       models.PhaseCollecting,
	models.PhaseCollecting: models.PhaseDecided,
	models.PhaseDecided:    models.PhaseIdle,
}

// CanTransition reports whether from -> to is a legal phase edge
func CanTransition(from, to models.Phase) bool {
	next, ok := validTransitions[from]
	return ok && next == to
}
