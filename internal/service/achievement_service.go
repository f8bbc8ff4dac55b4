package service

import (
	"context"
	"time"

	"edusync/internal/config"
	"edusync/internal/model"
	"edusync/internal/remote"
	"edusync/internal/repository"
	"edusync/pkg/logger"

	"go.uber.org/zap"
)

// Evaluate 把指标快照映射到应当解锁的成就集合。确定且幂等：
// 同一快照加同一已解锁集合，第二次调用不会产生新解锁；已解锁的
// 成就不会被撤销(指标在实践中单调递增，解锁一经记录即永久)。
func Evaluate(
	catalog []model.AchievementDefinition,
	snapshot model.MetricsSnapshot,
	unlocked map[uint]bool,
	quizScoreFloor int,
) []model.AchievementDefinition {
	var newly []model.AchievementDefinition
	for _, def := range catalog {
		if unlocked[def.ID] {
			continue
		}
		if metricValue(def.Metric, snapshot, quizScoreFloor) >= def.Requirement {
			newly = append(newly, def)
		}
	}
	return newly
}

func metricValue(kind model.MetricKind, snapshot model.MetricsSnapshot, quizScoreFloor int) int {
	switch kind {
	case model.MetricCumulativeXP:
		return snapshot.CumulativeXP
	case model.MetricStreakDays:
		return snapshot.StreakDays
	case model.MetricLifetimeCoins:
		return snapshot.LifetimeCoins
	case model.MetricCoinsSpent:
		return snapshot.CoinsSpent
	case model.MetricPurchaseCount:
		return snapshot.PurchaseCount
	case model.MetricQualifyingQuiz:
		count := 0
		for _, score := range snapshot.QuizScores {
			if score >= float64(quizScoreFloor) {
				count++
			}
		}
		return count
	case model.MetricCompletedModules:
		return snapshot.CompletedModules
	case model.MetricUnlockedCount:
		return snapshot.UnlockedCount
	}
	return 0
}

type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	WalletRepo      *repository.WalletRepository
	ProgressRepo    *repository.ProgressRepository
	CheckinRepo     *repository.CheckinRepository
	Remote          remote.Store
	Notifier        Notifier
	Rewards         config.RewardsConfig
	clock           Clock
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	walletRepo *repository.WalletRepository,
	progressRepo *repository.ProgressRepository,
	checkinRepo *repository.CheckinRepository,
	remoteStore remote.Store,
	notifier Notifier,
	rewards config.RewardsConfig,
	clock Clock,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		WalletRepo:      walletRepo,
		ProgressRepo:    progressRepo,
		CheckinRepo:     checkinRepo,
		Remote:          remoteStore,
		Notifier:        notifier,
		Rewards:         rewards,
		clock:           clock,
	}
}

// BuildSnapshot 汇集当前全部指标
func (s *AchievementService) BuildSnapshot(userID uint) (model.MetricsSnapshot, error) {
	var snapshot model.MetricsSnapshot

	cumulativeXP, err := s.WalletRepo.CumulativeXP(userID)
	if err != nil {
		return snapshot, err
	}
	snapshot.CumulativeXP = cumulativeXP

	balance, err := s.WalletRepo.GetOrCreateBalance(s.WalletRepo.DB, userID)
	if err != nil {
		return snapshot, err
	}
	snapshot.LifetimeCoins = balance.LifetimeEarned
	snapshot.CoinsSpent = balance.TotalSpent

	purchases, err := s.WalletRepo.PurchaseCount(userID)
	if err != nil {
		return snapshot, err
	}
	snapshot.PurchaseCount = int(purchases)

	completed, err := s.ProgressRepo.CountCompleted(userID)
	if err != nil {
		return snapshot, err
	}
	snapshot.CompletedModules = int(completed)

	records, err := s.ProgressRepo.ListByUser(userID)
	if err != nil {
		return snapshot, err
	}
	for _, rec := range records {
		for _, score := range rec.QuizScores() {
			snapshot.QuizScores = append(snapshot.QuizScores, score)
		}
	}

	snapshot.StreakDays = s.currentStreak(userID)

	unlocks, err := s.AchievementRepo.UnlocksByUser(userID)
	if err != nil {
		return snapshot, err
	}
	snapshot.UnlockedCount = len(unlocks)

	return snapshot, nil
}

// currentStreak 最近一次签到在今天或昨天才算连续，否则归零
func (s *AchievementService) currentStreak(userID uint) int {
	latest, err := s.CheckinRepo.FindLatestByUser(userID)
	if err != nil || latest == nil {
		return 0
	}
	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	checkinDay := time.Date(latest.CheckinAt.Year(), latest.CheckinAt.Month(), latest.CheckinAt.Day(), 0, 0, 0, 0, latest.CheckinAt.Location())
	if checkinDay.Equal(today) || checkinDay.Equal(today.AddDate(0, 0, -1)) {
		return latest.StreakDays
	}
	return 0
}

// EvaluateAndUnlock 用最新快照重跑规则引擎，为新满足条件的成就落
// 解锁记录。奖励此时不发放，由用户领取时入账。
func (s *AchievementService) EvaluateAndUnlock(ctx context.Context, userID uint) ([]model.AchievementDefinition, error) {
	catalog, err := s.AchievementRepo.Catalog()
	if err != nil {
		return nil, err
	}

	unlocks, err := s.AchievementRepo.UnlocksByUser(userID)
	if err != nil {
		return nil, err
	}
	unlockedIDs := make(map[uint]bool, len(unlocks))
	for _, u := range unlocks {
		unlockedIDs[u.AchievementID] = true
	}

	snapshot, err := s.BuildSnapshot(userID)
	if err != nil {
		return nil, err
	}

	newly := Evaluate(catalog, snapshot, unlockedIDs, s.Rewards.QuizScoreThreshold)
	for _, def := range newly {
		unlock := &model.AchievementUnlock{
			UserID:        userID,
			AchievementID: def.ID,
			UnlockedAt:    s.clock.Now(),
			Claimed:       false,
		}
		if err := s.AchievementRepo.CreateUnlock(unlock); err != nil {
			return nil, err
		}

		if s.Remote != nil {
			if err := s.Remote.AppendUnlock(ctx, unlock); err != nil {
				logger.Log.Warn("failed to mirror achievement unlock",
					zap.Uint("userId", userID),
					zap.Uint("achievementId", def.ID),
					zap.Error(err),
				)
			}
		}

		s.Notifier.Notify(Event{
			Type:   EventAchievementUnlocked,
			UserID: userID,
			Payload: map[string]interface{}{
				"achievementId": def.ID,
				"code":          def.Code,
				"name":          def.Name,
				"coinReward":    def.CoinReward,
			},
			OccurredAt: s.clock.Now(),
		})
	}

	return newly, nil
}

// UserAchievement 目录条目叠加当前用户的解锁状态
type UserAchievement struct {
	model.AchievementDefinition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
	Claimed    bool       `json:"claimed"`
}

func (s *AchievementService) GetUserAchievements(userID uint) ([]UserAchievement, error) {
	catalog, err := s.AchievementRepo.Catalog()
	if err != nil {
		return nil, err
	}

	unlocks, err := s.AchievementRepo.UnlocksByUser(userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.AchievementUnlock, len(unlocks))
	for _, u := range unlocks {
		byID[u.AchievementID] = u
	}

	result := make([]UserAchievement, len(catalog))
	for i, def := range catalog {
		entry := UserAchievement{AchievementDefinition: def}
		if unlock, ok := byID[def.ID]; ok {
			entry.Unlocked = true
			unlockedAt := unlock.UnlockedAt
			entry.UnlockedAt = &unlockedAt
			entry.Claimed = unlock.Claimed
		}
		result[i] = entry
	}
	return result, nil
}
