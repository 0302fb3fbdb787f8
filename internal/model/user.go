package model

import (
	"regexp"
	"time"
)

// spiritIDPattern 宽松的学号/昵称格式
var spiritIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

// ValidSpiritID 校验用户标识格式
func ValidSpiritID(id string) bool {
	return spiritIDPattern.MatchString(id)
}

// User 积分系统用户，首次获得积分时惰性创建，永不删除
// 积分等字段是冗余缓存，权威数据始终是 point_transactions 流水
// swagger:model User
type User struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SpiritID          string    `gorm:"size:32;uniqueIndex;not null" json:"spiritId"`
	Points            int       `gorm:"default:0" json:"points"`
	QuestionsAsked    int       `gorm:"default:0" json:"questionsAsked"`
	EventsAttended    int       `gorm:"default:0" json:"eventsAttended"`
	FeedbackSubmitted int       `gorm:"default:0" json:"feedbackSubmitted"`
	CreatedAt         time.Time `json:"createdAt"`
	LastActiveAt      time.Time `json:"lastActiveAt"`
}

func (User) TableName() string {
	return "users"
}
