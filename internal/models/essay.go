package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Essay is a student's essay plus its latest evaluation. Score and feedback
// columns are either all set (IsEvaluated) or all NULL.
type Essay struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"index;not null" json:"user_id"`
	ThemeID           uint           `gorm:"index;not null" json:"theme_id"`
	Theme             Theme          `json:"theme"`
	Title             *string        `gorm:"size:200" json:"title"`
	Content           string         `gorm:"type:text;not null" json:"content"`
	WordCount         int            `gorm:"not null;default:0" json:"word_count"`
	CharCount         int            `gorm:"not null;default:0" json:"char_count"`
	IsEvaluated       bool           `gorm:"not null;default:false;index" json:"is_evaluated"`
	TotalScore        *int           `gorm:"index" json:"total_score"`
	ScoreC1           *int           `gorm:"column:score_c1" json:"score_c1"`
	ScoreC2           *int           `gorm:"column:score_c2" json:"score_c2"`
	ScoreC3           *int           `gorm:"column:score_c3" json:"score_c3"`
	ScoreC4           *int           `gorm:"column:score_c4" json:"score_c4"`
	ScoreC5           *int           `gorm:"column:score_c5" json:"score_c5"`
	FeedbackC1        *string        `gorm:"column:feedback_c1;type:text" json:"feedback_c1"`
	FeedbackC2        *string        `gorm:"column:feedback_c2;type:text" json:"feedback_c2"`
	FeedbackC3        *string        `gorm:"column:feedback_c3;type:text" json:"feedback_c3"`
	FeedbackC4        *string        `gorm:"column:feedback_c4;type:text" json:"feedback_c4"`
	FeedbackC5        *string        `gorm:"column:feedback_c5;type:text" json:"feedback_c5"`
	StrongPointsRaw   datatypes.JSON `gorm:"column:strong_points;type:json" json:"-"`
	ImprovementsRaw   datatypes.JSON `gorm:"column:improvements;type:json" json:"-"`
	RewriteSuggestion *string        `gorm:"type:text" json:"rewrite_suggestion"`
	EvaluatedAt       *time.Time     `json:"evaluated_at"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	StrongPoints      []string       `gorm:"-" json:"strong_points"`
	Improvements      []string       `gorm:"-" json:"improvements"`
}

// AfterFind hydrates the list columns.
func (e *Essay) AfterFind(tx *gorm.DB) error {
	e.StrongPoints = decodeStringList(e.StrongPointsRaw)
	e.Improvements = decodeStringList(e.ImprovementsRaw)
	return nil
}

// EncodeStringList renders a list column value. Nil stays NULL so an
// unevaluated essay carries no lists at all.
func EncodeStringList(items []string) (datatypes.JSON, error) {
	if items == nil {
		return nil, nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	if items == nil {
		items = []string{}
	}
	return items
}
