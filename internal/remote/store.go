package remote

import (
	"context"

	"edusync/internal/model"
)

// Store 远端记录源的抽象。所有写入都要求幂等：按复合键 upsert，
// 超时重发不会产生重复状态。
type Store interface {
	// UpsertProgress 以 (userId, moduleId, moduleType, courseId) 为键整体覆盖
	UpsertProgress(ctx context.Context, rec *model.ModuleProgressRecord) error
	// ListProgress courseID 为 0 时返回用户全部进度
	ListProgress(ctx context.Context, userID uint, courseID uint) ([]model.ModuleProgressRecord, error)
	UpsertBalance(ctx context.Context, balance *model.CoinBalance) error
	FetchBalance(ctx context.Context, userID uint) (*model.CoinBalance, error)
	AppendTransaction(ctx context.Context, txn *model.XpTransaction) error
	AppendUnlock(ctx context.Context, unlock *model.AchievementUnlock) error
}
