package service

import (
	"context"
	"time"

	"edusync/internal/config"
	"edusync/internal/model"
	"edusync/internal/repository"
	"edusync/internal/util"
	"edusync/pkg/logger"

	"go.uber.org/zap"
)

// ProgressUpdate 一次 UI 交互产生的进度变更(课时完成、测验作答、
// 模块收尾等)。字段都是增量语义，未填的字段不动对应状态。
type ProgressUpdate struct {
	ProgressPercentage *int                   `json:"progressPercentage"`
	TimeSpentDelta     int                    `json:"timeSpentDeltaMinutes"`
	CompletedLessons   []string               `json:"completedLessons"`
	QuizScores         map[string]float64     `json:"quizScores"`
	XPEarned           int                    `json:"xpEarned"`
	AssignmentData     map[string]interface{} `json:"assignmentData"`
}

// ProgressService 进度核心的对外门面。本地写入同步完成，网络同步
// 相对本地变更异步进行，本地读写从不等待网络。
type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	CheckinRepo  *repository.CheckinRepository
	Queue        *PendingQueue
	Sync         *SyncEngine
	Wallet       *WalletService
	Achievements *AchievementService
	Rewards      config.RewardsConfig
	clock        Clock
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	checkinRepo *repository.CheckinRepository,
	queue *PendingQueue,
	syncEngine *SyncEngine,
	wallet *WalletService,
	achievements *AchievementService,
	rewards config.RewardsConfig,
	clock Clock,
) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		CheckinRepo:  checkinRepo,
		Queue:        queue,
		Sync:         syncEngine,
		Wallet:       wallet,
		Achievements: achievements,
		Rewards:      rewards,
		clock:        clock,
	}
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ApplyUpdate 把一次交互落到本地记录并排入同步队列。
// 本地写入失败对本次调用是致命的，进度绝不因吞掉存储错误而丢失。
func (s *ProgressService) ApplyUpdate(ctx context.Context, key model.ProgressKey, upd ProgressUpdate) (*model.ModuleProgressRecord, error) {
	if upd.TimeSpentDelta < 0 {
		return nil, util.ErrInvalidProgress
	}
	if upd.XPEarned < 0 {
		return nil, util.ErrInvalidAmount
	}

	rec, err := s.ProgressRepo.Get(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &model.ModuleProgressRecord{
			UserID:     key.UserID,
			ModuleID:   key.ModuleID,
			ModuleType: key.ModuleType,
			CourseID:   key.CourseID,
		}
	}

	now := s.clock.Now()
	rec.LastAccessed = now
	rec.TimeSpentMinutes += upd.TimeSpentDelta
	if upd.ProgressPercentage != nil {
		rec.ProgressPercentage = clampPercentage(*upd.ProgressPercentage)
	}
	rec.AddCompletedLessons(upd.CompletedLessons)
	rec.RecordQuizScores(upd.QuizScores)
	rec.AddXP(upd.XPEarned)
	rec.MergeAssignmentData(upd.AssignmentData)

	// 完成是单向的：completedAt 一旦写入，百分比固定在 100，回退的输入不生效
	if rec.CompletedAt != nil {
		rec.ProgressPercentage = 100
	}

	// completedAt 只写一次：后续对同一记录的更新不再改它
	firstCompletion := false
	if rec.ProgressPercentage == 100 && rec.CompletedAt == nil {
		completedAt := now
		rec.CompletedAt = &completedAt
		firstCompletion = true
	}

	if err := s.ProgressRepo.Upsert(rec); err != nil {
		return nil, err
	}

	s.touchStreak(key.UserID, now)

	if upd.XPEarned > 0 {
		if _, err := s.Wallet.CreditForExperience(ctx, key.UserID, upd.XPEarned, model.SourceModuleProgress, ModuleSourceDetail(key)); err != nil {
			logger.Log.Error("failed to credit experience", zap.Uint("userId", key.UserID), zap.Error(err))
		}
	}

	// 无身份时进入纯本地模式，跳过远端同步
	if key.UserID != 0 {
		s.Queue.Enqueue(model.PendingMutation{
			Key:             key,
			Record:          *rec,
			FirstCompletion: firstCompletion,
			EnqueuedAt:      now,
		})
		s.Sync.Schedule()
	}

	if _, err := s.Achievements.EvaluateAndUnlock(ctx, key.UserID); err != nil {
		logger.Log.Error("achievement evaluation failed", zap.Uint("userId", key.UserID), zap.Error(err))
	}

	return rec, nil
}

// GetModule 读取某模块当前记录
func (s *ProgressService) GetModule(key model.ProgressKey) (*model.ModuleProgressRecord, error) {
	rec, err := s.ProgressRepo.Get(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, util.ErrRecordNotFound
	}
	return rec, nil
}

// GetCourseSummary 课程汇总随读随算
func (s *ProgressService) GetCourseSummary(userID, courseID uint) (model.CourseProgressSummary, error) {
	records, err := s.ProgressRepo.ListByCourse(userID, courseID)
	if err != nil {
		return model.CourseProgressSummary{}, err
	}
	return AggregateCourse(courseID, records, s.Rewards.ModuleMinutes), nil
}

// touchStreak 当天首次学习活动延续或重置连续天数
func (s *ProgressService) touchStreak(userID uint, now time.Time) {
	if userID == 0 {
		return
	}

	today, err := s.CheckinRepo.FindByUserAndDate(userID, now)
	if err != nil {
		logger.Log.Warn("streak lookup failed", zap.Uint("userId", userID), zap.Error(err))
		return
	}
	if today != nil {
		return
	}

	streak := 1
	latest, err := s.CheckinRepo.FindLatestByUser(userID)
	if err == nil && latest != nil {
		yesterday := now.AddDate(0, 0, -1)
		if sameDay(latest.CheckinAt, yesterday) {
			streak = latest.StreakDays + 1
		}
	}

	if err := s.CheckinRepo.Create(&model.Checkin{
		UserID:     userID,
		CheckinAt:  now,
		StreakDays: streak,
	}); err != nil {
		logger.Log.Warn("failed to record checkin", zap.Uint("userId", userID), zap.Error(err))
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
