package model

import "time"

// MetricKind 成就所监测的指标类别
type MetricKind string

const (
	MetricCumulativeXP     MetricKind = "cumulative_xp"
	MetricStreakDays       MetricKind = "streak_days"
	MetricLifetimeCoins    MetricKind = "lifetime_coins"
	MetricCoinsSpent       MetricKind = "coins_spent"
	MetricPurchaseCount    MetricKind = "purchase_count"
	MetricQualifyingQuiz   MetricKind = "qualifying_quiz_count"
	MetricCompletedModules MetricKind = "completed_modules"
	MetricUnlockedCount    MetricKind = "unlocked_achievements"
)

// AchievementDefinition 成就目录条目(静态数据)
type AchievementDefinition struct {
	BaseModel
	Code        string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Description string     `gorm:"size:255" json:"description"`
	Icon        string     `gorm:"size:255" json:"icon"`
	Metric      MetricKind `gorm:"size:32;not null" json:"metric"`
	Requirement int        `gorm:"not null" json:"requirement"`
	CoinReward  int        `gorm:"default:0" json:"coinReward"`
}

func (AchievementDefinition) TableName() string {
	return "achievement_definitions"
}

// AchievementUnlock 用户与成就的解锁关系，每对 (user, achievement) 至多一条
//
// Claimed 只能由 false 翻转为 true 一次，领取后不可撤销。
type AchievementUnlock struct {
	BaseModel
	UserID        uint      `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"userId"`
	AchievementID uint      `gorm:"uniqueIndex:idx_user_achievement;type:bigint unsigned;not null" json:"achievementId"`
	UnlockedAt    time.Time `gorm:"not null" json:"unlockedAt"`
	Claimed       bool      `gorm:"default:false" json:"claimed"`
}

func (AchievementUnlock) TableName() string {
	return "achievement_unlocks"
}

// MetricsSnapshot 评估成就时的指标快照
type MetricsSnapshot struct {
	CumulativeXP     int       `json:"cumulativeXp"`
	StreakDays       int       `json:"streakDays"`
	LifetimeCoins    int       `json:"lifetimeCoins"`
	CoinsSpent       int       `json:"coinsSpent"`
	PurchaseCount    int       `json:"purchaseCount"`
	QuizScores       []float64 `json:"quizScores"`
	CompletedModules int       `json:"completedModules"`
	UnlockedCount    int       `json:"unlockedCount"`
}
