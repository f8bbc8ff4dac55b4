package repository

import (
	"errors"
	"time"

	"edusync/internal/model"

	"gorm.io/gorm"
)

type WalletRepository struct {
	DB *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{DB: db}
}

// GetOrCreateBalance 取余额行，不存在时初始化为全零
func (r *WalletRepository) GetOrCreateBalance(tx *gorm.DB, userID uint) (*model.CoinBalance, error) {
	var balance model.CoinBalance
	err := tx.Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = model.CoinBalance{UserID: userID, LastUpdated: time.Now()}
		if err := tx.Create(&balance).Error; err != nil {
			return nil, err
		}
		return &balance, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *WalletRepository) SaveBalance(tx *gorm.DB, balance *model.CoinBalance) error {
	balance.LastUpdated = time.Now()
	return tx.Save(balance).Error
}

// AppendTransaction 流水只追加，不更新不删除
func (r *WalletRepository) AppendTransaction(tx *gorm.DB, txn *model.XpTransaction) error {
	return tx.Create(txn).Error
}

func (r *WalletRepository) RecentTransactions(userID uint, limit int) ([]model.XpTransaction, error) {
	var txns []model.XpTransaction
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// CumulativeXP 用户历史经验总量，换算曲线以它为自变量
func (r *WalletRepository) CumulativeXP(userID uint) (int, error) {
	var total int64
	err := r.DB.Model(&model.XpTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(xp_amount), 0)").
		Scan(&total).Error
	return int(total), err
}

// PurchaseCount 消费类交易笔数
func (r *WalletRepository) PurchaseCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.XpTransaction{}).
		Where("user_id = ? AND source = ?", userID, model.SourceSpend).
		Count(&count).Error
	return count, err
}
