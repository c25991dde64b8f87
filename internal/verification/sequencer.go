package verification

import (
	"fmt"
	"sort"

	"SanduqVerify/internal/core/domain"
)

// LevelThresholds maps a count of completed steps to a verification
// level: crossing thresholds[i] unlocks level i+1. The table is a
// configuration input because the deployed workflow variants disagree
// on it.
type LevelThresholds []int

// The two tables observed in production.
var (
	DefaultThresholds = LevelThresholds{2, 4, 5}
	CompactThresholds = LevelThresholds{3, 5}
)

// LevelFor returns the level unlocked by the given completed-step
// count: 0 below the first threshold, up to len(t) at the last. It is
// monotonic non-decreasing in completed.
func (t LevelThresholds) LevelFor(completed int) int {
	level := 0
	for _, threshold := range t {
		if completed < threshold {
			break
		}
		level++
	}
	return level
}

// StepSequencer owns step ordering, progression gating and the derived
// verification level. It carries no per-session state; sessions are
// passed in.
type StepSequencer struct {
	steps      []domain.StepDefinition
	thresholds LevelThresholds
}

// NewStepSequencer sorts the definitions by Order and validates them.
func NewStepSequencer(steps []domain.StepDefinition, thresholds LevelThresholds) (*StepSequencer, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("at least one step definition is required")
	}
	sorted := make([]domain.StepDefinition, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	seen := make(map[int]string, len(sorted))
	for _, step := range sorted {
		if other, dup := seen[step.Order]; dup {
			return nil, fmt.Errorf("steps %q and %q share order %d", other, step.ID, step.Order)
		}
		seen[step.Order] = step.ID
	}
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	return &StepSequencer{steps: sorted, thresholds: thresholds}, nil
}

// Steps returns the ordered definitions.
func (s *StepSequencer) Steps() []domain.StepDefinition { return s.steps }

// Step returns the definition at index.
func (s *StepSequencer) Step(index int) (domain.StepDefinition, error) {
	if index < 0 || index >= len(s.steps) {
		return domain.StepDefinition{}, domain.ErrStepOutOfRange
	}
	return s.steps[index], nil
}

// Terminal reports whether the session has verified its last step.
func (s *StepSequencer) Terminal(sess *domain.VerificationSession) bool {
	last := s.steps[len(s.steps)-1]
	return sess.StepStatuses[last.ID] == domain.StepVerified
}

// CanAdvance decides whether navigation from step index `from` to
// `to` is legal. Backward moves to any previously completed or
// verified step are always allowed. Forward moves must not skip an
// incomplete required step; optional steps may be jumped over.
func (s *StepSequencer) CanAdvance(sess *domain.VerificationSession, from, to int) bool {
	if to < 0 || to >= len(s.steps) || from < 0 || from >= len(s.steps) {
		return false
	}
	if s.Terminal(sess) {
		return false
	}
	if to == from {
		return true
	}
	if to < from {
		status := sess.StepStatuses[s.steps[to].ID]
		return status == domain.StepCompleted || status == domain.StepVerified
	}
	for j := from; j < to; j++ {
		if !s.steps[j].Required {
			continue
		}
		if s.stepDone(sess, j) {
			continue
		}
		return false
	}
	return true
}

// stepDone reports whether step j counts as completed, including the
// step currently being revisited (its map status is "current" but it
// completed earlier).
func (s *StepSequencer) stepDone(sess *domain.VerificationSession, j int) bool {
	status := sess.StepStatuses[s.steps[j].ID]
	if status == domain.StepCompleted || status == domain.StepVerified {
		return true
	}
	return j == sess.CurrentStep && sess.PriorStatus == domain.StepCompleted
}

// MarkCompleted records a passed validation for the step at index: the
// status becomes completed, or verified when it is the last step. The
// following step, if any, becomes current. Returns true when the
// session reached its terminal state.
func (s *StepSequencer) MarkCompleted(sess *domain.VerificationSession, index int) bool {
	step := s.steps[index]
	if index == len(s.steps)-1 {
		sess.StepStatuses[step.ID] = domain.StepVerified
		sess.PriorStatus = domain.StepVerified
		return true
	}

	sess.StepStatuses[step.ID] = domain.StepCompleted
	next := s.steps[index+1]
	sess.PriorStatus = sess.StepStatuses[next.ID]
	sess.StepStatuses[next.ID] = domain.StepCurrent
	sess.CurrentStep = index + 1
	return false
}

// Navigate moves the session's current step to `to` after CanAdvance
// approved it. The step being left gets back the status it held before
// it became current, so revisited completed steps stay completed.
func (s *StepSequencer) Navigate(sess *domain.VerificationSession, to int) {
	if to == sess.CurrentStep {
		return
	}
	leaving := s.steps[sess.CurrentStep]
	sess.StepStatuses[leaving.ID] = sess.PriorStatus

	target := s.steps[to]
	sess.PriorStatus = sess.StepStatuses[target.ID]
	sess.StepStatuses[target.ID] = domain.StepCurrent
	sess.CurrentStep = to
}

// CompletedCount counts completed and verified steps, including a
// completed step that is currently being revisited.
func (s *StepSequencer) CompletedCount(sess *domain.VerificationSession) int {
	count := 0
	for j := range s.steps {
		if s.stepDone(sess, j) {
			count++
		}
	}
	return count
}

// Level derives the session's verification level from the threshold
// table.
func (s *StepSequencer) Level(sess *domain.VerificationSession) int {
	return s.thresholds.LevelFor(s.CompletedCount(sess))
}
