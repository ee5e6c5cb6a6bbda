package motion

// ArtifactFilter decides which raw candidates represent real moving targets
// versus atmospheric or sensor artifacts. Three rules are evaluated against
// the camera's recent accepted detections; a candidate is accepted iff every
// evaluated rule passes. Rules that need more history than the log holds are
// skipped, so early candidates are accepted optimistically.
type ArtifactFilter struct {
	cfg Config
}

// NewArtifactFilter builds a filter for a validated config.
func NewArtifactFilter(cfg Config) *ArtifactFilter {
	return &ArtifactFilter{cfg: cfg}
}

// Evaluate applies the movement, area-band and speed rules to a candidate
// given the camera's recent accepted detections (oldest first). The returned
// reason is the first failing rule in rule order; tags record every evaluated
// rule's outcome for diagnostics.
func (af *ArtifactFilter) Evaluate(c Candidate, history []Detection) (RejectReason, []string) {
	reason := RejectNone
	var tags []string

	fail := func(r RejectReason) {
		if reason == RejectNone {
			reason = r
		}
	}

	// Rule 1: movement distance against the previous accepted detection.
	// Needs at least two prior detections to separate motion from jitter.
	var movement float64
	movementEvaluated := false
	if len(history) >= 2 {
		movementEvaluated = true
		last := history[len(history)-1]
		movement = c.Center.Dist(last.Center)
		if movement < af.cfg.MinMovement {
			fail(RejectTooSlow)
			tags = append(tags, "SLOW")
		} else {
			tags = append(tags, "FAST")
		}
	}

	// Rule 2: tighter anti-cloud area band, always evaluated.
	switch {
	case c.Area < af.cfg.ArtifactMinArea:
		fail(RejectTooSmall)
		tags = append(tags, "TINY")
	case c.Area > af.cfg.ArtifactMaxArea:
		fail(RejectTooLarge)
		tags = append(tags, "HUGE")
	default:
		tags = append(tags, "SIZE_OK")
	}

	// Rule 3: pixels-per-frame speed over the two most recent entries.
	if movementEvaluated && len(history) >= 3 {
		last := history[len(history)-1]
		prev := history[len(history)-2]
		dt := last.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt > 0 {
			perFrame := movement / dt / af.cfg.FrameRate
			if perFrame < af.cfg.MinSpeed {
				fail(RejectTooSlowSpeed)
				tags = append(tags, "CRAWL")
			} else {
				tags = append(tags, "TARGET_SPEED")
			}
		}
	}

	if len(tags) == 1 {
		// Only the area rule could run: not enough history yet.
		tags = append(tags, "FIRST")
	}
	return reason, tags
}
