package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/nutrichef/backend/internal/audit"
	"github.com/pageza/nutrichef/backend/internal/mocks"
	"github.com/pageza/nutrichef/backend/internal/types"
)

func newTestService(gen Generator, sink audit.Sink) *RecipeService {
	return NewRecipeService(gen, sink, zap.NewNop(), time.Second)
}

func TestGenerateRecipe_FencedResponse(t *testing.T) {
	gen := &mocks.MockGenerator{}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return assert.ObjectsAreEqual(BuildPrompt("weight loss", "chicken, spinach, rice"), prompt)
	})).Return("```json\n"+bowlJSON+"\n```", nil).Once()

	sink := &mocks.MockAuditSink{}
	sink.On("Append", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Outcome == audit.OutcomeOK && e.RawResponse == "" && e.RequestID == "req-42" &&
			e.Provider == "mock" && e.Model == "mock-model"
	})).Return(nil).Once()

	svc := newTestService(gen, sink)
	recipe, err := svc.GenerateRecipe(context.Background(), &types.GenerateRequest{
		Goal:        "weight loss",
		Ingredients: "chicken, spinach, rice",
		RequestID:   "req-42",
	})

	require.NoError(t, err)
	assert.Equal(t, bowl, *recipe)
	gen.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestGenerateRecipe_MissingIngredientsNeverCallsGenerator(t *testing.T) {
	for _, ingredients := range []string{"", "   ", "\n\t"} {
		gen := &mocks.MockGenerator{}
		sink := &mocks.MockAuditSink{}
		sink.On("Append", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
			return e.Outcome == string(KindInvalidInput)
		})).Return(nil).Once()

		svc := newTestService(gen, sink)
		recipe, err := svc.GenerateRecipe(context.Background(), &types.GenerateRequest{
			Goal:        "muscle gain",
			Ingredients: ingredients,
		})

		assert.Nil(t, recipe)
		requireGenerationError(t, err, KindInvalidInput)
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		sink.AssertExpectations(t)
	}
}

func TestGenerateRecipe_UpstreamFailure(t *testing.T) {
	upstreamErr := errors.New("quota exceeded")
	gen := &mocks.MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("", upstreamErr).Once()

	sink := &mocks.MockAuditSink{}
	sink.On("Append", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Outcome == string(KindUpstreamFailure) && e.RawResponse == ""
	})).Return(nil).Once()

	svc := newTestService(gen, sink)
	_, err := svc.GenerateRecipe(context.Background(), &types.GenerateRequest{Ingredients: "oats"})

	requireGenerationError(t, err, KindUpstreamFailure)
	assert.ErrorIs(t, err, upstreamErr)
	gen.AssertNumberOfCalls(t, "Generate", 1)
	sink.AssertExpectations(t)
}

func TestGenerateRecipe_MissingFieldsAudited(t *testing.T) {
	raw := `Sure! Here's your recipe: {"title":"X"}`
	gen := &mocks.MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(raw, nil).Once()

	sink := &mocks.MockAuditSink{}
	sink.On("Append", mock.Anything, mock.MatchedBy(func(e *audit.Entry) bool {
		return e.Outcome == string(KindMissingFields) &&
			e.Fields == "description,calories,protein,carbs,fat,steps" &&
			e.RawResponse == raw
	})).Return(nil).Once()

	svc := newTestService(gen, sink)
	_, err := svc.GenerateRecipe(context.Background(), &types.GenerateRequest{Ingredients: "eggs"})

	genErr := requireGenerationError(t, err, KindMissingFields)
	assert.Equal(t, []string{"description", "calories", "protein", "carbs", "fat", "steps"}, genErr.Fields)
	sink.AssertExpectations(t)
}

func TestGenerateRecipe_AuditFailureDoesNotFailRequest(t *testing.T) {
	gen := &mocks.MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(bowlJSON, nil).Once()

	sink := &mocks.MockAuditSink{}
	sink.On("Append", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	svc := newTestService(gen, sink)
	recipe, err := svc.GenerateRecipe(context.Background(), &types.GenerateRequest{Ingredients: "rice"})

	require.NoError(t, err)
	assert.Equal(t, "Chicken Spinach Bowl", recipe.Title)
}

func TestGenerateRecipe_NilAuditor(t *testing.T) {
	gen := &mocks.MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(bowlJSON, nil).Once()

	svc := newTestService(gen, nil)
	_, err := svc.GenerateRecipe(context.Background(), &types.GenerateRequest{Ingredients: "rice"})
	require.NoError(t, err)
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingGenerator) Provider() string { return "blocking" }

func (blockingGenerator) Model() string { return "never" }

func TestGenerateRecipe_TimeoutBoundsUpstreamCall(t *testing.T) {
	svc := NewRecipeService(blockingGenerator{}, nil, zap.NewNop(), 20*time.Millisecond)

	start := time.Now()
	_, err := svc.GenerateRecipe(context.Background(), &types.GenerateRequest{Ingredients: "lentils"})

	requireGenerationError(t, err, KindUpstreamFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
