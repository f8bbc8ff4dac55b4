package model

import "time"

// Checkin 记录用户的学习签到信息，同一天至多一条
type Checkin struct {
	BaseModel
	UserID     uint      `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	CheckinAt  time.Time `gorm:"not null" json:"checkinAt"`
	StreakDays int       `gorm:"default:1" json:"streakDays"` // 连续学习天数
}

func (Checkin) TableName() string {
	return "checkins"
}
