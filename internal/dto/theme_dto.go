package dto

import "github.com/noah-isme/redaia-api/internal/models"

// ThemeResponse is the public view of an essay theme.
type ThemeResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// NewThemeResponse converts a theme model into its API representation.
func NewThemeResponse(model models.Theme) ThemeResponse {
	return ThemeResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Category:    model.Category,
	}
}

// NewThemeResponses converts a slice of themes.
func NewThemeResponses(items []models.Theme) []ThemeResponse {
	responses := make([]ThemeResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewThemeResponse(item))
	}
	return responses
}
