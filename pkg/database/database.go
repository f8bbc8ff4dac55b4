package database

import (
	"edusync/internal/config"
	"edusync/internal/model"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 打开设备本地的 SQLite 库并完成迁移。本地存储是进度数据的
// 第一落点，必须在无网络时可用。
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.ModuleProgressRecord{},
		&model.AchievementDefinition{},
		&model.AchievementUnlock{},
		&model.CoinBalance{},
		&model.XpTransaction{},
		&model.Checkin{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedAchievementCatalog(db)

	return db, nil
}

// 默认成就目录：目录为空时插入一套基础成就
func seedAchievementCatalog(db *gorm.DB) {
	var count int64
	db.Model(&model.AchievementDefinition{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []model.AchievementDefinition{
		{Code: "first_steps", Name: "初来乍到", Description: "完成第一个学习模块", Metric: model.MetricCompletedModules, Requirement: 1, CoinReward: 10},
		{Code: "module_master", Name: "模块达人", Description: "完成 10 个学习模块", Metric: model.MetricCompletedModules, Requirement: 10, CoinReward: 50},
		{Code: "xp_500", Name: "经验新星", Description: "累计获得 500 经验值", Metric: model.MetricCumulativeXP, Requirement: 500, CoinReward: 25},
		{Code: "xp_5000", Name: "经验大师", Description: "累计获得 5000 经验值", Metric: model.MetricCumulativeXP, Requirement: 5000, CoinReward: 200},
		{Code: "week_streak", Name: "七日坚持", Description: "连续学习 7 天", Metric: model.MetricStreakDays, Requirement: 7, CoinReward: 70},
		{Code: "month_streak", Name: "月度恒心", Description: "连续学习 30 天", Metric: model.MetricStreakDays, Requirement: 30, CoinReward: 300},
		{Code: "quiz_ace", Name: "测验高手", Description: "5 次测验达到优秀线", Metric: model.MetricQualifyingQuiz, Requirement: 5, CoinReward: 40},
		{Code: "first_purchase", Name: "首次兑换", Description: "完成第一次金币消费", Metric: model.MetricPurchaseCount, Requirement: 1, CoinReward: 5},
		{Code: "coin_collector", Name: "金币收藏家", Description: "累计赚取 1000 金币", Metric: model.MetricLifetimeCoins, Requirement: 1000, CoinReward: 100},
		{Code: "big_spender", Name: "消费能手", Description: "累计消费 500 金币", Metric: model.MetricCoinsSpent, Requirement: 500, CoinReward: 50},
		{Code: "badge_hunter", Name: "徽章猎人", Description: "解锁 5 个成就", Metric: model.MetricUnlockedCount, Requirement: 5, CoinReward: 60},
	}
	for _, a := range defaults {
		db.Create(&a)
	}
}
