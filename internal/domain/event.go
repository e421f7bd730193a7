package domain

import "time"

const (
	EventSurveyCreated     = "survey.created"
	EventSurveyUpdated     = "survey.updated"
	EventSurveyDeleted     = "survey.deleted"
	EventResponseSubmitted = "response.submitted"
)

// Event notifies listeners about a change to a survey.
type Event struct {
	Type       string    `json:"type"`
	SurveyID   string    `json:"survey_id"`
	ResponseID string    `json:"response_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// SurveyChannel is the pub/sub channel carrying events of one survey.
func SurveyChannel(surveyID string) string {
	return "survey:" + surveyID
}
