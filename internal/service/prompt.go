package service

import (
	"fmt"
	"strings"
)

const defaultGoal = "general healthy eating"

// BuildPrompt renders the fixed recipe prompt for a goal and an ingredient list
func BuildPrompt(goal, ingredients string) string {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		goal = defaultGoal
	}

	return fmt.Sprintf(`ROLE: Expert Indian diet nutritionist.
TASK: Create a single, healthy recipe based on the user's goal and ingredients.
USER GOAL: %s
INGREDIENTS: %s
OUTPUT FORMAT: Respond with ONLY a valid JSON object. Do not include markdown, backticks, or any text before or after the JSON object.
JSON STRUCTURE: {"title": "String", "description": "String (one sentence)", "calories": Integer, "protein": Integer, "carbs": Integer, "fat": Integer, "steps": ["String", "String", ...]}
The calories, protein, carbs and fat fields must be whole numbers, not strings.`,
		goal, strings.TrimSpace(ingredients))
}
