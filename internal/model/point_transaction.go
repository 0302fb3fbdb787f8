package model

// ActionKind 积分流水的行为类型，封闭枚举
type ActionKind string

const (
	ActionQuestionAsked     ActionKind = "question_asked"
	ActionEventAttended     ActionKind = "event_attended"
	ActionFeedbackSubmitted ActionKind = "feedback_submitted"
	ActionEventRSVP         ActionKind = "event_rsvp"
	ActionPhotoShared       ActionKind = "photo_shared"
	ActionStreakBonus       ActionKind = "streak_bonus"
	ActionMilestone         ActionKind = "milestone"
	ActionAchievement       ActionKind = "achievement"
	ActionRewardRedeemed    ActionKind = "reward_redeemed"
)

// ValidAction 校验行为类型是否在枚举内
func ValidAction(a ActionKind) bool {
	switch a {
	case ActionQuestionAsked, ActionEventAttended, ActionFeedbackSubmitted,
		ActionEventRSVP, ActionPhotoShared, ActionStreakBonus,
		ActionMilestone, ActionAchievement, ActionRewardRedeemed:
		return true
	}
	return false
}

// PointTransaction 积分流水，只追加不删除，修正通过新流水完成
// milestone / achievement 流水的 Description 编码唯一键，用于幂等判断
// swagger:model PointTransaction
type PointTransaction struct {
	UUIDBase
	UserID      uint       `gorm:"index;not null" json:"userId"`
	Delta       int        `gorm:"not null" json:"delta"`
	Action      ActionKind `gorm:"size:32;index;not null" json:"action"`
	Description string     `gorm:"size:255" json:"description"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}
