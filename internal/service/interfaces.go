package service

import (
	"context"

	"github.com/pageza/nutrichef/backend/internal/types"
)

// Generator is the capability to submit a prompt and receive free-form text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// IRecipeService defines the interface for recipe generation
type IRecipeService interface {
	GenerateRecipe(ctx context.Context, req *types.GenerateRequest) (*types.RecipeResult, error)
}
