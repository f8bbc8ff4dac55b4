package service

import (
	"context"
	"fmt"

	"edusync/internal/config"
	"edusync/internal/model"
	"edusync/internal/remote"
	"edusync/internal/repository"
	"edusync/internal/util"
	"edusync/pkg/logger"
	"edusync/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 累计经验跨过里程碑时的一次性加成
var xpMilestones = []struct {
	Threshold int
	Bonus     int
}{
	{100, 25},
	{500, 100},
	{1000, 250},
	{5000, 1000},
	{10000, 2500},
}

// WalletService 虚拟货币账本：只追加的交易流水加一行实时余额。
// 三个操作在任何路径下都维持 total_coins == lifetime_earned - total_spent。
type WalletService struct {
	DB              *gorm.DB
	WalletRepo      *repository.WalletRepository
	AchievementRepo *repository.AchievementRepository
	Remote          remote.Store
	Notifier        Notifier
	Rewards         config.RewardsConfig
	clock           Clock
}

func NewWalletService(
	db *gorm.DB,
	walletRepo *repository.WalletRepository,
	achievementRepo *repository.AchievementRepository,
	remoteStore remote.Store,
	notifier Notifier,
	rewards config.RewardsConfig,
	clock Clock,
) *WalletService {
	return &WalletService{
		DB:              db,
		WalletRepo:      walletRepo,
		AchievementRepo: achievementRepo,
		Remote:          remoteStore,
		Notifier:        notifier,
		Rewards:         rewards,
		clock:           clock,
	}
}

// coinsForXPRange 单调不减的换算曲线：基础部分是累计经验整除兑换率
// 的增量，里程碑部分在累计值首次越过阈值时一次性发放。
func coinsForXPRange(prevXP, nextXP, xpPerCoin int) int {
	coins := nextXP/xpPerCoin - prevXP/xpPerCoin
	for _, m := range xpMilestones {
		if prevXP < m.Threshold && nextXP >= m.Threshold {
			coins += m.Bonus
		}
	}
	return coins
}

// CreditForExperience 把新获得的经验换算成金币并入账。
// xpEarned <= 0 时返回 0 且无任何副作用。
func (s *WalletService) CreditForExperience(ctx context.Context, userID uint, xpEarned int, source model.XpSource, detail string) (int, error) {
	if xpEarned <= 0 {
		return 0, nil
	}

	prevXP, err := s.WalletRepo.CumulativeXP(userID)
	if err != nil {
		return 0, err
	}
	coins := coinsForXPRange(prevXP, prevXP+xpEarned, s.Rewards.XPPerCoin)

	txn := &model.XpTransaction{
		UserID:       userID,
		XPAmount:     xpEarned,
		CoinsAwarded: coins,
		Source:       source,
		SourceDetail: detail,
	}

	var balance *model.CoinBalance
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		balance, err = s.WalletRepo.GetOrCreateBalance(tx, userID)
		if err != nil {
			return err
		}
		balance.TotalCoins += coins
		balance.LifetimeEarned += coins
		if err := s.WalletRepo.SaveBalance(tx, balance); err != nil {
			return err
		}
		return s.WalletRepo.AppendTransaction(tx, txn)
	})
	if err != nil {
		return 0, err
	}

	monitoring.CoinCreditCounter.WithLabelValues(string(source)).Add(float64(coins))
	s.Notifier.Notify(Event{
		Type:   EventPointsAwarded,
		UserID: userID,
		Payload: map[string]interface{}{
			"xp":     xpEarned,
			"coins":  coins,
			"source": string(source),
		},
		OccurredAt: s.clock.Now(),
	})
	s.mirror(ctx, balance, txn)

	return coins, nil
}

// Claim 领取已解锁的成就奖励。翻转 claimed 与入账在同一事务内完成，
// 要么都成功要么都不发生；重复领取返回错误且不产生第二笔流水。
func (s *WalletService) Claim(ctx context.Context, userID, achievementID uint) (int, error) {
	var (
		coins   int
		balance *model.CoinBalance
		txn     *model.XpTransaction
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		unlock, err := s.AchievementRepo.FindUnlock(tx, userID, achievementID)
		if err != nil {
			return err
		}
		if unlock == nil {
			return util.ErrAchievementLocked
		}
		if unlock.Claimed {
			return util.ErrAlreadyClaimed
		}

		var def model.AchievementDefinition
		if err := tx.First(&def, achievementID).Error; err != nil {
			return util.ErrAchievementNotFound
		}

		unlock.Claimed = true
		if err := s.AchievementRepo.SaveUnlock(tx, unlock); err != nil {
			return err
		}

		coins = def.CoinReward
		balance, err = s.WalletRepo.GetOrCreateBalance(tx, userID)
		if err != nil {
			return err
		}
		balance.TotalCoins += coins
		balance.LifetimeEarned += coins
		if err := s.WalletRepo.SaveBalance(tx, balance); err != nil {
			return err
		}

		txn = &model.XpTransaction{
			UserID:       userID,
			CoinsAwarded: coins,
			Source:       model.SourceAchievementClaim,
			SourceDetail: def.Code,
		}
		return s.WalletRepo.AppendTransaction(tx, txn)
	})
	if err != nil {
		return 0, err
	}

	monitoring.CoinCreditCounter.WithLabelValues(string(model.SourceAchievementClaim)).Add(float64(coins))
	s.Notifier.Notify(Event{
		Type:   EventPointsAwarded,
		UserID: userID,
		Payload: map[string]interface{}{
			"coins":         coins,
			"achievementId": achievementID,
		},
		OccurredAt: s.clock.Now(),
	})
	s.mirror(ctx, balance, txn)

	return coins, nil
}

// Spend 扣减金币。金额非正或超出余额时不做任何变更。
func (s *WalletService) Spend(ctx context.Context, userID uint, amount int, reason string) error {
	if amount <= 0 {
		return util.ErrInvalidAmount
	}

	var (
		balance *model.CoinBalance
		txn     *model.XpTransaction
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.WalletRepo.GetOrCreateBalance(tx, userID)
		if err != nil {
			return err
		}
		if amount > balance.TotalCoins {
			return util.ErrInsufficientCoins
		}

		balance.TotalCoins -= amount
		balance.TotalSpent += amount
		if err := s.WalletRepo.SaveBalance(tx, balance); err != nil {
			return err
		}

		txn = &model.XpTransaction{
			UserID:       userID,
			CoinsSpent:   amount,
			Source:       model.SourceSpend,
			SourceDetail: reason,
		}
		return s.WalletRepo.AppendTransaction(tx, txn)
	})
	if err != nil {
		return err
	}

	monitoring.CoinSpendCounter.Add(float64(amount))
	s.mirror(ctx, balance, txn)
	return nil
}

// WalletSummary 余额与等级概览
type WalletSummary struct {
	Balance      model.CoinBalance `json:"balance"`
	CumulativeXP int               `json:"cumulativeXp"`
	Level        int               `json:"level"`
	NextLevelXP  int               `json:"nextLevelXp"`
}

func (s *WalletService) Summary(userID uint) (*WalletSummary, error) {
	balance, err := s.WalletRepo.GetOrCreateBalance(s.DB, userID)
	if err != nil {
		return nil, err
	}

	cumulativeXP, err := s.WalletRepo.CumulativeXP(userID)
	if err != nil {
		return nil, err
	}

	level := cumulativeXP / s.Rewards.LevelXP
	return &WalletSummary{
		Balance:      *balance,
		CumulativeXP: cumulativeXP,
		Level:        level,
		NextLevelXP:  (level + 1) * s.Rewards.LevelXP,
	}, nil
}

func (s *WalletService) RecentTransactions(userID uint, limit int) ([]model.XpTransaction, error) {
	return s.WalletRepo.RecentTransactions(userID, limit)
}

// mirror 把余额与流水同步到远端，尽力而为：失败只记日志，本地账本不回滚
func (s *WalletService) mirror(ctx context.Context, balance *model.CoinBalance, txn *model.XpTransaction) {
	if s.Remote == nil {
		return
	}
	if err := s.Remote.UpsertBalance(ctx, balance); err != nil {
		logger.Log.Warn("failed to mirror coin balance", zap.Uint("userId", balance.UserID), zap.Error(err))
	}
	if err := s.Remote.AppendTransaction(ctx, txn); err != nil {
		logger.Log.Warn("failed to mirror transaction", zap.String("txnId", txn.ID), zap.Error(err))
	}
}

// 交易明细里统一的来源描述
func ModuleSourceDetail(key model.ProgressKey) string {
	return fmt.Sprintf("course:%d module:%d", key.CourseID, key.ModuleID)
}
