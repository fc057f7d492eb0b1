package risk

import (
	"github.com/opensource-finance/kestrel/internal/domain"
)

// ScoredExposure pairs a score result with its requested loan amount for
// threshold simulation.
type ScoredExposure struct {
	Result *domain.CreditScoreResult
	Amount float64
}

// SimulateThresholdImpact replays a set of scored applications against a
// proposed auto-approve threshold and reports the approval-rate and
// expected-loss deltas. An application counts as auto-approved when its
// score clears the threshold and its PD stays under the configured cap.
func (a *Analyzer) SimulateThresholdImpact(exposures []ScoredExposure, proposedThreshold float64) *domain.ThresholdImpact {
	impact := &domain.ThresholdImpact{
		CurrentThreshold:  a.cfg.AutoApproveScore,
		ProposedThreshold: proposedThreshold,
	}

	if len(exposures) == 0 {
		return impact
	}

	approves := func(threshold float64, e ScoredExposure) bool {
		return e.Result.OverallScore >= threshold &&
			e.Result.DefaultProbability < a.cfg.AutoApproveMaxPD
	}

	var currentLoss, proposedLoss float64
	for _, e := range exposures {
		if approves(a.cfg.AutoApproveScore, e) {
			impact.CurrentApprovals++
			currentLoss += e.Amount * e.Result.DefaultProbability * a.cfg.LossGivenDefault
		}
		if approves(proposedThreshold, e) {
			impact.ProposedApprovals++
			proposedLoss += e.Amount * e.Result.DefaultProbability * a.cfg.LossGivenDefault
		}
	}

	n := float64(len(exposures))
	impact.ApprovalRateDelta = float64(impact.ProposedApprovals-impact.CurrentApprovals) / n
	impact.ExpectedLossDelta = proposedLoss - currentLoss

	return impact
}
