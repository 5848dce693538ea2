// -----------------------------------------------------------------------
// Progress Model - maps workflow stages onto a 0-100 progress bar
// -----------------------------------------------------------------------

package state

import (
	"github.com/ternarybob/promoparse/internal/models"
)

// ProgressModel computes dashboard progress from the canonical stage
// table. It is immutable after construction; one instance can be shared
// by any number of jobs.
type ProgressModel struct {
	stages []models.StageWeight
}

// NewProgressModel creates a progress model over the canonical stage table.
func NewProgressModel() *ProgressModel {
	return &ProgressModel{stages: models.Stages}
}

// applicable reports whether a stage counts toward the denominator for a
// job with the given platform and features. Jobs with no detected
// platform are budgeted as ESP, the longer path, so early progress never
// overshoots once the platform is known.
func (p *ProgressModel) applicable(stage models.StageWeight, platform string, features models.JobFeatures) bool {
	switch stage.Phase {
	case models.PhaseInit, models.PhaseShared, models.PhaseReview:
		return true
	case models.PhaseESP:
		return platform == models.PlatformESP || platform == ""
	case models.PhaseSAGE:
		return platform == models.PlatformSAGE
	case models.PhaseCRMUpload:
		return features.CRMUpload
	case models.PhaseCRMQuote:
		return features.CRMQuote
	case models.PhaseCalculator:
		return features.Calculator
	default:
		return false
	}
}

// TotalWeight returns the progress denominator for a job: the sum of all
// stage weights on its active pipeline plus enabled feature extensions.
func (p *ProgressModel) TotalWeight(platform string, features models.JobFeatures) int {
	total := 0
	for _, stage := range p.stages {
		if p.applicable(stage, platform, features) {
			total += stage.Weight
		}
	}
	return total
}

// Progress computes the integer progress percentage for a status.
//
// The cumulative weight of all applicable stages preceding the status is
// credited in full; the current stage's own weight is scaled by
// currentItem/totalItems when both are provided and totalItems > 0,
// giving fractional credit inside multi-item stages. The result is
// normalized by TotalWeight, truncated, and capped at 99: only the
// terminal completed status may report 100.
//
// error and partial_success freeze progress at lastProgress.
func (p *ProgressModel) Progress(status models.WorkflowStatus, platform string, features models.JobFeatures, currentItem, totalItems *int, lastProgress int) int {
	if status == models.StatusCompleted {
		return 100
	}
	if status == models.StatusError || status == models.StatusPartialSuccess {
		return lastProgress
	}

	cumulative := 0.0
	for _, stage := range p.stages {
		if stage.Status == status {
			if !p.applicable(stage, platform, features) {
				break
			}
			if currentItem != nil && totalItems != nil && *totalItems > 0 {
				cumulative += float64(*currentItem) / float64(*totalItems) * float64(stage.Weight)
			} else {
				cumulative += float64(stage.Weight)
			}
			break
		}
		if p.applicable(stage, platform, features) {
			cumulative += float64(stage.Weight)
		}
	}

	total := p.TotalWeight(platform, features)
	if total <= 0 {
		return 0
	}

	progress := int(cumulative / float64(total) * 100)
	if progress > 99 {
		progress = 99
	}
	if progress < 0 {
		progress = 0
	}
	return progress
}
