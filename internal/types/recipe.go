package types

// RecipeResult is the validated recipe returned to API callers
type RecipeResult struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Calories    int      `json:"calories"`
	Protein     int      `json:"protein"`
	Carbs       int      `json:"carbs"`
	Fat         int      `json:"fat"`
	Steps       []string `json:"steps"`
}

// RequiredFields lists the keys a generated recipe must carry, in canonical order
var RequiredFields = []string{"title", "description", "calories", "protein", "carbs", "fat", "steps"}
