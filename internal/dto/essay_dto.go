package dto

import (
	"time"

	"github.com/noah-isme/redaia-api/internal/models"
)

// EssayCreateRequest creates a draft. A missing theme_id picks a random
// active theme.
type EssayCreateRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Content string  `json:"content" validate:"required,max=10000"`
	ThemeID *uint   `json:"theme_id" validate:"omitempty,gt=0"`
}

// EssayUpdateRequest patches an essay. Changing content discards any
// previous evaluation.
type EssayUpdateRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Content *string `json:"content" validate:"omitempty,max=10000"`
	ThemeID *uint   `json:"theme_id" validate:"omitempty,gt=0"`
}

// EssayListQuery describes query string filters for listing essays.
type EssayListQuery struct {
	ThemeID        *uint  `query:"theme_id" validate:"omitempty,gt=0"`
	IsEvaluated    *bool  `query:"is_evaluated"`
	Limit          int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset         int    `query:"offset" validate:"omitempty,min=0"`
	OrderBy        string `query:"order_by" validate:"omitempty,oneof=created_at total_score"`
	OrderDirection string `query:"order_direction" validate:"omitempty,oneof=asc desc"`
}

// CompetencyScores holds one value per ENEM competency.
type CompetencyScores struct {
	C1 int `json:"c1"`
	C2 int `json:"c2"`
	C3 int `json:"c3"`
	C4 int `json:"c4"`
	C5 int `json:"c5"`
}

// CompetencyFeedbacks holds the written feedback per competency.
type CompetencyFeedbacks struct {
	C1 string `json:"c1"`
	C2 string `json:"c2"`
	C3 string `json:"c3"`
	C4 string `json:"c4"`
	C5 string `json:"c5"`
}

// EssayResponse is returned to API clients when viewing essays. Evaluation
// fields are null until the essay is scored.
type EssayResponse struct {
	ID                uint                 `json:"id"`
	UserID            uint                 `json:"user_id"`
	ThemeID           uint                 `json:"theme_id"`
	Theme             *ThemeResponse       `json:"theme"`
	Title             *string              `json:"title"`
	Content           string               `json:"content"`
	WordCount         int                  `json:"word_count"`
	CharCount         int                  `json:"char_count"`
	IsEvaluated       bool                 `json:"is_evaluated"`
	TotalScore        *int                 `json:"total_score"`
	Scores            *CompetencyScores    `json:"scores"`
	Feedbacks         *CompetencyFeedbacks `json:"feedbacks"`
	StrongPoints      []string             `json:"strong_points"`
	Improvements      []string             `json:"improvements"`
	RewriteSuggestion *string              `json:"rewrite_suggestion"`
	EvaluatedAt       *time.Time           `json:"evaluated_at"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// NewEssayResponse converts an essay model into its API representation.
func NewEssayResponse(model models.Essay) EssayResponse {
	response := EssayResponse{
		ID:                model.ID,
		UserID:            model.UserID,
		ThemeID:           model.ThemeID,
		Title:             model.Title,
		Content:           model.Content,
		WordCount:         model.WordCount,
		CharCount:         model.CharCount,
		IsEvaluated:       model.IsEvaluated,
		TotalScore:        model.TotalScore,
		StrongPoints:      model.StrongPoints,
		Improvements:      model.Improvements,
		RewriteSuggestion: model.RewriteSuggestion,
		EvaluatedAt:       model.EvaluatedAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}

	if model.Theme.ID != 0 {
		theme := NewThemeResponse(model.Theme)
		response.Theme = &theme
	}

	if model.IsEvaluated {
		response.Scores = &CompetencyScores{
			C1: intValue(model.ScoreC1),
			C2: intValue(model.ScoreC2),
			C3: intValue(model.ScoreC3),
			C4: intValue(model.ScoreC4),
			C5: intValue(model.ScoreC5),
		}
		response.Feedbacks = &CompetencyFeedbacks{
			C1: stringValue(model.FeedbackC1),
			C2: stringValue(model.FeedbackC2),
			C3: stringValue(model.FeedbackC3),
			C4: stringValue(model.FeedbackC4),
			C5: stringValue(model.FeedbackC5),
		}
		if response.StrongPoints == nil {
			response.StrongPoints = []string{}
		}
		if response.Improvements == nil {
			response.Improvements = []string{}
		}
	}

	return response
}

// NewEssayResponses converts a slice of essays.
func NewEssayResponses(items []models.Essay) []EssayResponse {
	responses := make([]EssayResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewEssayResponse(item))
	}
	return responses
}

// Pagination is attached as meta to list responses.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// EssayListResponse bundles a page of essays with its pagination.
type EssayListResponse struct {
	Items      []EssayResponse `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

// EssayStatisticsResponse summarizes a user's progress.
type EssayStatisticsResponse struct {
	TotalEssays         int64              `json:"total_essays"`
	EvaluatedEssays     int64              `json:"evaluated_essays"`
	AverageScore        int                `json:"average_score"`
	AverageByCompetency CompetencyScores   `json:"average_by_competency"`
	RecentScores        []ScoreHistoryItem `json:"recent_scores"`
}

// ScoreHistoryItem is one point of the recent score history.
type ScoreHistoryItem struct {
	EssayID     uint      `json:"essay_id"`
	TotalScore  int       `json:"total_score"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
