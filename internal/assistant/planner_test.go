package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psps16/fitness-ai/internal/llm"
	"github.com/psps16/fitness-ai/internal/models"
	"github.com/psps16/fitness-ai/internal/storage"
)

// fakeModel scripts the model collaborator. Complete pops results from the
// queue; Chat always returns the configured reply.
type fakeModel struct {
	queue         []completion
	completeCalls int
	chatReply     string
	chatErr       error
	chatCalls     int
	lastPrompt    string
}

type completion struct {
	body string
	err  error
}

func (f *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	f.completeCalls++
	f.lastPrompt = prompt
	if len(f.queue) == 0 {
		return "## Generated plan", nil
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next.body, next.err
}

func (f *fakeModel) Chat(_ context.Context, _ string, _ []llm.ChatTurn, _ string) (string, error) {
	f.chatCalls++
	return f.chatReply, f.chatErr
}

func (f *fakeModel) push(body string, err error) {
	f.queue = append(f.queue, completion{body: body, err: err})
}

func TestGenerateWritesRevisionOne(t *testing.T) {
	store := testStore(t)
	user := seedUser(t, store)
	model := &fakeModel{}
	synth := NewSynthesizer(store, model, nil)

	plan, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanWorkout)
	require.NoError(t, err)
	assert.Equal(t, int64(1), plan.Revision)
	assert.Equal(t, "## Generated plan", plan.Body)
	assert.Contains(t, model.lastPrompt, "22.86", "prompt carries the derived BMI")

	stored, err := store.GetPlan(user.ID, models.PlanWorkout)
	require.NoError(t, err)
	assert.Equal(t, plan.Body, stored.Body)
}

func TestGenerateIncrementsExistingRevision(t *testing.T) {
	store := testStore(t)
	user := seedUser(t, store)
	model := &fakeModel{}
	synth := NewSynthesizer(store, model, nil)

	_, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanDiet)
	require.NoError(t, err)
	plan, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanDiet)
	require.NoError(t, err)
	assert.Equal(t, int64(2), plan.Revision)
}

func TestGenerateRetriesOnce(t *testing.T) {
	store := testStore(t)
	user := seedUser(t, store)
	model := &fakeModel{}
	model.push("", errors.New("transient"))
	model.push("## Second try", nil)
	synth := NewSynthesizer(store, model, nil)

	plan, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanWorkout)
	require.NoError(t, err)
	assert.Equal(t, "## Second try", plan.Body)
	assert.Equal(t, 2, model.completeCalls)
}

func TestGenerateFailsAfterTwoAttempts(t *testing.T) {
	store := testStore(t)
	user := seedUser(t, store)
	model := &fakeModel{}
	model.push("", errors.New("boom"))
	model.push("", errors.New("boom"))
	synth := NewSynthesizer(store, model, nil)

	_, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanWorkout)
	assert.ErrorIs(t, err, ErrSynthesisFailed)

	_, err = store.GetPlan(user.ID, models.PlanWorkout)
	assert.ErrorIs(t, err, storage.ErrNotFound, "no plan may be written on failure")
}

func TestReviseCarriesPlanForwardAndIncrements(t *testing.T) {
	store := testStore(t)
	user := seedUser(t, store)
	model := &fakeModel{}
	synth := NewSynthesizer(store, model, nil)

	current, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanWorkout)
	require.NoError(t, err)

	model.push("## Easier plan", nil)
	revised, err := synth.Revise(context.Background(), current, "too intense, make it easier")
	require.NoError(t, err)
	assert.Equal(t, int64(2), revised.Revision)
	assert.Contains(t, model.lastPrompt, current.Body, "revision prompt includes the current plan")
	assert.Contains(t, model.lastPrompt, "too intense", "revision prompt includes the feedback")

	stored, err := store.GetPlan(user.ID, models.PlanWorkout)
	require.NoError(t, err)
	assert.Equal(t, "## Easier plan", stored.Body)
	assert.Equal(t, int64(2), stored.Revision)
}

func TestReviseDoubleTimeoutLeavesPlanUntouched(t *testing.T) {
	store := testStore(t)
	user := seedUser(t, store)
	model := &fakeModel{}
	synth := NewSynthesizer(store, model, nil)

	current, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanWorkout)
	require.NoError(t, err)

	timeout := fmt.Errorf("%w: deadline exceeded", llm.ErrTimeout)
	model.push("", timeout)
	model.push("", timeout)

	_, err = synth.Revise(context.Background(), current, "make it easier")
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.ErrorIs(t, err, llm.ErrTimeout, "timeout identity survives the wrap")

	stored, err := store.GetPlan(user.ID, models.PlanWorkout)
	require.NoError(t, err)
	assert.Equal(t, current.Revision, stored.Revision)
	assert.Equal(t, current.Body, stored.Body)
}

func TestReviseStaleRevisionAborts(t *testing.T) {
	store := testStore(t)
	user := seedUser(t, store)
	model := &fakeModel{}
	synth := NewSynthesizer(store, model, nil)

	current, err := synth.Generate(context.Background(), user.ID, user.Profile, models.PlanWorkout)
	require.NoError(t, err)

	// Someone else already moved the slot forward.
	model.push("## v2", nil)
	_, err = synth.Revise(context.Background(), current, "first change")
	require.NoError(t, err)

	model.push("## from stale read", nil)
	_, err = synth.Revise(context.Background(), current, "second change from stale plan")
	assert.ErrorIs(t, err, storage.ErrRevisionConflict)
}
