package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/nutrichef/backend/internal/audit"
	"github.com/pageza/nutrichef/backend/internal/types"
)

const auditTimeout = 5 * time.Second

// RecipeService turns a goal and ingredients into a validated recipe with one
// call to the text generator
type RecipeService struct {
	generator Generator
	extractor *JSONExtractor
	auditor   audit.Sink
	logger    *zap.Logger
	timeout   time.Duration
}

// NewRecipeService creates a new RecipeService. auditor may be nil.
func NewRecipeService(generator Generator, auditor audit.Sink, logger *zap.Logger, timeout time.Duration) *RecipeService {
	return &RecipeService{
		generator: generator,
		extractor: NewJSONExtractor(),
		auditor:   auditor,
		logger:    logger,
		timeout:   timeout,
	}
}

// GenerateRecipe validates req, calls the generator once and extracts the recipe
func (s *RecipeService) GenerateRecipe(ctx context.Context, req *types.GenerateRequest) (*types.RecipeResult, error) {
	started := time.Now()
	entry := &audit.Entry{
		ID:          uuid.New().String(),
		RequestID:   req.RequestID,
		Provider:    s.generator.Provider(),
		Model:       s.generator.Model(),
		Goal:        req.Goal,
		Ingredients: req.Ingredients,
	}

	recipe, raw, err := s.generate(ctx, req)

	entry.DurationMS = time.Since(started).Milliseconds()
	entry.CreatedAt = time.Now()
	entry.Outcome = audit.OutcomeOK
	if err != nil {
		entry.Outcome = string(KindOf(err))
		entry.Error = err.Error()
		entry.RawResponse = raw
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			entry.Fields = strings.Join(genErr.Fields, ",")
		}
	}
	s.record(ctx, entry)

	return recipe, err
}

func (s *RecipeService) generate(ctx context.Context, req *types.GenerateRequest) (*types.RecipeResult, string, error) {
	if strings.TrimSpace(req.Ingredients) == "" {
		return nil, "", newError(KindInvalidInput, "ingredients are required", nil)
	}

	prompt := BuildPrompt(req.Goal, req.Ingredients)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("calling text generator",
		zap.String("request_id", req.RequestID),
		zap.String("provider", s.generator.Provider()),
		zap.String("model", s.generator.Model()),
	)
	raw, err := s.generator.Generate(callCtx, prompt)
	if err != nil {
		return nil, "", newError(KindUpstreamFailure, "text generation failed", err)
	}
	s.logger.Info("text generator responded",
		zap.String("request_id", req.RequestID),
		zap.Int("response_bytes", len(raw)),
	)

	recipe, err := s.extractor.Extract(raw)
	if err != nil {
		return nil, raw, err
	}
	return recipe, raw, nil
}

// record hands entry to the auditor; audit failures never affect the response
func (s *RecipeService) record(ctx context.Context, entry *audit.Entry) {
	if s.auditor == nil {
		return
	}
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := s.auditor.Append(auditCtx, entry); err != nil {
		s.logger.Warn("failed to record generation audit entry",
			zap.String("audit_id", entry.ID),
			zap.Error(err),
		)
	}
}
