package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/psps16/fitness-ai/internal/llm"
	"github.com/psps16/fitness-ai/internal/models"
	"github.com/psps16/fitness-ai/internal/storage"
)

// ErrSynthesisFailed is surfaced after the single retry of a failed model
// call; the prior plan is left untouched.
var ErrSynthesisFailed = errors.New("assistant: plan synthesis failed")

// Completer is the single-shot slice of the model collaborator used for plan
// synthesis.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Synthesizer produces and persists plans. Every successful call writes the
// plan through the store with the revision incremented; the write is a
// compare-and-set on the previous revision so a stale read aborts instead of
// clobbering a newer plan.
type Synthesizer struct {
	plans PlanStore
	model Completer
	log   *zap.Logger
}

func NewSynthesizer(plans PlanStore, model Completer, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{plans: plans, model: model, log: log}
}

// Generate creates a fresh plan of the given kind from the profile alone. It
// degrades gracefully on sparse profiles; only collaborator failure aborts it.
func (s *Synthesizer) Generate(ctx context.Context, userID string, profile models.UserProfile, kind models.PlanKind) (models.Plan, error) {
	prev, err := s.plans.GetPlan(userID, kind)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Plan{}, err
	}

	body, err := s.complete(ctx, generatePrompt(profile, kind))
	if err != nil {
		return models.Plan{}, err
	}

	plan := models.Plan{
		UserID:      userID,
		Kind:        kind,
		Revision:    prev.Revision + 1,
		Body:        body,
		LastUpdated: time.Now(),
	}
	if err := s.plans.SavePlan(plan); err != nil {
		return models.Plan{}, err
	}
	s.log.Info("plan generated",
		zap.String("user_id", userID),
		zap.String("kind", string(kind)),
		zap.Int64("revision", plan.Revision))
	return plan, nil
}

// Revise updates current from feedback text, carrying forward everything the
// feedback does not touch. On failure the stored plan keeps its pre-call
// revision.
func (s *Synthesizer) Revise(ctx context.Context, current models.Plan, feedback string) (models.Plan, error) {
	body, err := s.complete(ctx, revisePrompt(current, feedback))
	if err != nil {
		return models.Plan{}, err
	}

	plan := models.Plan{
		UserID:      current.UserID,
		Kind:        current.Kind,
		Revision:    current.Revision + 1,
		Body:        body,
		LastUpdated: time.Now(),
	}
	if err := s.plans.SavePlan(plan); err != nil {
		return models.Plan{}, err
	}
	s.log.Info("plan revised",
		zap.String("user_id", current.UserID),
		zap.String("kind", string(current.Kind)),
		zap.Int64("revision", plan.Revision))
	return plan, nil
}

// complete calls the model, retrying once with the same input. Timeouts keep
// their identity through the wrap so the controller can drop the turn.
func (s *Synthesizer) complete(ctx context.Context, prompt string) (string, error) {
	body, err := s.model.Complete(ctx, prompt)
	if err == nil {
		return body, nil
	}
	s.log.Warn("plan synthesis attempt failed, retrying", zap.Error(err))

	body, err = s.model.Complete(ctx, prompt)
	if err == nil {
		return body, nil
	}
	if errors.Is(err, llm.ErrTimeout) {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
}
