package models

type QuestionOption struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	CardID uint   `json:"card_id" gorm:"not null;index"`
	Answer string `json:"answer" gorm:"not null"`
}
