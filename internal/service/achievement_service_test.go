package service

import (
	"context"
	"testing"

	"edusync/internal/config"
	"edusync/internal/model"
	"edusync/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func catalogFixture() []model.AchievementDefinition {
	defs := []model.AchievementDefinition{
		{Code: "xp_500", Metric: model.MetricCumulativeXP, Requirement: 500, CoinReward: 25},
		{Code: "week_streak", Metric: model.MetricStreakDays, Requirement: 7, CoinReward: 70},
		{Code: "quiz_ace", Metric: model.MetricQualifyingQuiz, Requirement: 2, CoinReward: 40},
		{Code: "badge_hunter", Metric: model.MetricUnlockedCount, Requirement: 2, CoinReward: 60},
	}
	for i := range defs {
		defs[i].ID = uint(i + 1)
	}
	return defs
}

func TestEvaluateThresholdIsInclusive(t *testing.T) {
	catalog := catalogFixture()

	// 499 不解锁，500 解锁，再次 500 不重复解锁
	newly := Evaluate(catalog, model.MetricsSnapshot{CumulativeXP: 499}, map[uint]bool{}, 80)
	assert.Empty(t, newly)

	newly = Evaluate(catalog, model.MetricsSnapshot{CumulativeXP: 500}, map[uint]bool{}, 80)
	require.Len(t, newly, 1)
	assert.Equal(t, "xp_500", newly[0].Code)

	unlocked := map[uint]bool{newly[0].ID: true}
	newly = Evaluate(catalog, model.MetricsSnapshot{CumulativeXP: 500}, unlocked, 80)
	assert.Empty(t, newly)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	catalog := catalogFixture()
	snapshot := model.MetricsSnapshot{CumulativeXP: 600, StreakDays: 10}

	first := Evaluate(catalog, snapshot, map[uint]bool{}, 80)
	require.Len(t, first, 2)

	unlocked := map[uint]bool{}
	for _, def := range first {
		unlocked[def.ID] = true
	}

	second := Evaluate(catalog, snapshot, unlocked, 80)
	assert.Empty(t, second, "same snapshot and unlocked set must produce no further unlocks")
}

func TestEvaluateQuizScoreFloor(t *testing.T) {
	catalog := catalogFixture()

	snapshot := model.MetricsSnapshot{QuizScores: []float64{79.9, 80, 95}}
	newly := Evaluate(catalog, snapshot, map[uint]bool{}, 80)

	require.Len(t, newly, 1)
	assert.Equal(t, "quiz_ace", newly[0].Code)
}

func TestEvaluateUnlockedCountMetric(t *testing.T) {
	catalog := catalogFixture()

	snapshot := model.MetricsSnapshot{UnlockedCount: 2}
	newly := Evaluate(catalog, snapshot, map[uint]bool{1: true, 2: true}, 80)

	require.Len(t, newly, 1)
	assert.Equal(t, "badge_hunter", newly[0].Code)
}

func newAchievementService(t *testing.T, db *gorm.DB, notifier Notifier) *AchievementService {
	walletRepo, achievementRepo := newWalletRepos(db)
	return NewAchievementService(
		achievementRepo,
		walletRepo,
		repository.NewProgressRepository(db),
		repository.NewCheckinRepository(db),
		nil,
		notifier,
		config.RewardsConfig{XPPerCoin: 10, LevelXP: 200, ModuleMinutes: 30, QuizScoreThreshold: 80},
		newFakeClock(),
	)
}

func TestEvaluateAndUnlockCreatesRecordsOnce(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := newAchievementService(t, db, notifier)

	def := model.AchievementDefinition{Code: "xp_100", Metric: model.MetricCumulativeXP, Requirement: 100, CoinReward: 10}
	require.NoError(t, db.Create(&def).Error)

	// 经验流水使累计达标
	require.NoError(t, db.Create(&model.XpTransaction{UserID: 1, XPAmount: 150, CoinsAwarded: 15, Source: model.SourceModuleProgress}).Error)

	newly, err := svc.EvaluateAndUnlock(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, newly, 1)

	var unlocks []model.AchievementUnlock
	require.NoError(t, db.Where("user_id = ?", 1).Find(&unlocks).Error)
	require.Len(t, unlocks, 1)
	assert.False(t, unlocks[0].Claimed, "unlock is recorded unclaimed, reward waits for the claim")

	events := notifier.ByType(EventAchievementUnlocked)
	assert.Len(t, events, 1)

	// 同一指标状态重跑不产生新解锁
	again, err := svc.EvaluateAndUnlock(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, notifier.ByType(EventAchievementUnlocked), 1)
}
