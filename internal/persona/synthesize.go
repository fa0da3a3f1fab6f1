package persona

// SynthesisStatus is the synthesizer persona's output status. It is
// deliberately a different vocabulary from individual persona verdicts
// (endorse/reject/abstain): the synthesizer's job is to reconcile a panel
// into a single queue action, not to cast one more vote.
type SynthesisStatus string

const (
	StatusProceed        SynthesisStatus = "proceed"         // majority endorse, no hard blocker raised
	StatusHoldForReview  SynthesisStatus = "hold_for_review"  // split panel or a risk_manager reject
	StatusDiscard        SynthesisStatus = "discard"          // majority reject, quorum met, no risk_manager reject
)

// Synthesis is the reconciled panel outcome.
type Synthesis struct {
	Status     SynthesisStatus
	Summary    string
	Dissent    []Opinion
}

// Synthesize reconciles a Panel into a single queue action. A
// risk_manager rejection always forces hold_for_review regardless of the
// rest of the panel: risk concerns don't get outvoted by enthusiasm.
func Synthesize(panel Panel) Synthesis {
	var endorse, reject int
	var dissent []Opinion
	riskRejected := false

	for _, op := range panel.Opinions {
		if op.Missing {
			continue
		}
		switch op.Verdict {
		case "endorse":
			endorse++
		case "reject":
			reject++
			dissent = append(dissent, op)
			if op.Persona == KindRiskManager {
				riskRejected = true
			}
		}
	}

	if !panel.QuorumMet {
		return Synthesis{Status: StatusHoldForReview, Summary: "quorum not met, insufficient persona responses", Dissent: dissent}
	}
	if riskRejected {
		return Synthesis{Status: StatusHoldForReview, Summary: "risk manager rejected", Dissent: dissent}
	}
	if endorse > reject {
		return Synthesis{Status: StatusProceed, Summary: "majority endorse", Dissent: dissent}
	}
	if reject > endorse {
		return Synthesis{Status: StatusDiscard, Summary: "majority reject", Dissent: dissent}
	}
	return Synthesis{Status: StatusHoldForReview, Summary: "panel evenly split", Dissent: dissent}
}
