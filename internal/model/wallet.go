package model

import "time"

// CoinBalance 用户金币余额，每个用户一行
//
// 任何时刻 TotalCoins == LifetimeEarned - TotalSpent，且不为负。
type CoinBalance struct {
	BaseModel
	UserID         uint      `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"userId"`
	TotalCoins     int       `gorm:"default:0" json:"totalCoins"`
	LifetimeEarned int       `gorm:"default:0" json:"lifetimeEarned"`
	TotalSpent     int       `gorm:"default:0" json:"totalSpent"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

func (CoinBalance) TableName() string {
	return "coin_balances"
}

// XpSource 交易来源类别
type XpSource string

const (
	SourceModuleProgress   XpSource = "module_progress"
	SourceAchievementClaim XpSource = "achievement_claim"
	SourceSpend            XpSource = "spend"
)

// XpTransaction 只追加的经验/金币流水，不更新不删除
//
// 所有交易的 CoinsAwarded 之和恒等于余额行的 LifetimeEarned。
type XpTransaction struct {
	UUIDBase
	UserID       uint     `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	XPAmount     int      `gorm:"default:0" json:"xpAmount"`
	CoinsAwarded int      `gorm:"default:0" json:"coinsAwarded"`
	CoinsSpent   int      `gorm:"default:0" json:"coinsSpent"`
	Source       XpSource `gorm:"size:32;not null" json:"source"`
	SourceDetail string   `gorm:"size:255" json:"sourceDetail,omitempty"`
}

func (XpTransaction) TableName() string {
	return "xp_transactions"
}
