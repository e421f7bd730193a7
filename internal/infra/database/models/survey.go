package models

import "time"

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	Email     string    `json:"email" gorm:"type:text;uniqueIndex"`
	Username  string    `json:"username" gorm:"type:text"`
	Password  string    `json:"-" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Survey struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Title       string    `json:"title" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatorID   string    `json:"creator_id" gorm:"type:text;not null;index"`
	Creator     User      `json:"-" gorm:"foreignKey:CreatorID;references:ID;constraint:OnDelete:RESTRICT;"`
	CreatedAt   time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}

type Question struct {
	ID           string `json:"id" gorm:"primaryKey;type:text"`
	SurveyID     string `json:"survey_id" gorm:"type:text;not null;index"`
	Survey       Survey `json:"-" gorm:"foreignKey:SurveyID;references:ID;constraint:OnDelete:RESTRICT;"`
	QuestionText string `json:"question_text" gorm:"type:text;not null"`
	QuestionType string `json:"question_type" gorm:"type:text;not null"`
	Position     int64  `json:"-" gorm:"autoIncrement;not null"`
}

type Option struct {
	ID         string   `json:"id" gorm:"primaryKey;type:text"`
	QuestionID string   `json:"question_id" gorm:"type:text;not null;index"`
	Question   Question `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnDelete:RESTRICT;"`
	OptionText string   `json:"option_text" gorm:"type:text;not null"`
}

type Response struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	SurveyID  string    `json:"survey_id" gorm:"type:text;not null;index"`
	Survey    Survey    `json:"-" gorm:"foreignKey:SurveyID;references:ID;constraint:OnDelete:RESTRICT;"`
	UserID    string    `json:"user_id" gorm:"type:text;not null;index"`
	User      User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT;"`
	CreatedAt time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// AnswerChoice keeps the table name used by the hosted schema.
type AnswerChoice struct {
	ID         string   `json:"id" gorm:"primaryKey;type:text"`
	ResponseID string   `json:"response_id" gorm:"type:text;not null;index"`
	Response   Response `json:"-" gorm:"foreignKey:ResponseID;references:ID;constraint:OnDelete:RESTRICT;"`
	QuestionID string   `json:"question_id" gorm:"type:text;not null;index"`
	Question   Question `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnDelete:RESTRICT;"`
	OptionID   *string  `json:"option_id" gorm:"type:text;index"`
	Option     *Option  `json:"-" gorm:"foreignKey:OptionID;references:ID;constraint:OnDelete:RESTRICT;"`
}

func (AnswerChoice) TableName() string {
	return "answerchoices"
}
