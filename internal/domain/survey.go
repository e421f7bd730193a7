package domain

import "time"

// Survey is a titled collection of questions created by a user.
type Survey struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Question belongs to exactly one survey.
type Question struct {
	ID           string `json:"id"`
	SurveyID     string `json:"survey_id"`
	QuestionText string `json:"question_text"`
	QuestionType string `json:"question_type"`
}

// Option is a selectable answer of a question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	OptionText string `json:"option_text"`
}

// Response is one respondent's submission to one survey.
type Response struct {
	ID        string    `json:"id"`
	SurveyID  string    `json:"survey_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AnswerChoice is a single answer inside a Response.
// OptionID is nil for free-text questions.
type AnswerChoice struct {
	ID         string  `json:"id"`
	ResponseID string  `json:"response_id"`
	QuestionID string  `json:"question_id"`
	OptionID   *string `json:"option_id"`
}

// GeneratedQuestion is a question proposed by the language model, not yet persisted.
type GeneratedQuestion struct {
	QuestionText string `json:"question_text"`
	QuestionType string `json:"question_type"`
}

// SurveyFilter narrows survey listings. Zero values are ignored.
type SurveyFilter struct {
	CreatorID string
	StartDate *time.Time
	EndDate   *time.Time
}

type SurveyDetail struct {
	Survey    Survey     `json:"survey"`
	Questions []Question `json:"questions"`
	Options   []Option   `json:"options"`
}

type AISurvey struct {
	Survey    Survey     `json:"survey"`
	Questions []Question `json:"questions"`
}

type Submission struct {
	Response Response       `json:"response"`
	Answers  []AnswerChoice `json:"answerData"`
}

const QuestionTypeText = "text"
