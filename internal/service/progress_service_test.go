package service

import (
	"context"
	"testing"
	"time"

	"edusync/internal/config"
	"edusync/internal/repository"
	"edusync/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressFixture struct {
	svc      *ProgressService
	engine   *SyncEngine
	queue    *PendingQueue
	remote   *fakeRemote
	notifier *recordingNotifier
	clock    *fakeClock
	checkins *repository.CheckinRepository
	wallet   *WalletService
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock()
	notifier := &recordingNotifier{}
	remote := newFakeRemote()

	rewards := config.RewardsConfig{XPPerCoin: 10, LevelXP: 200, ModuleMinutes: 30, QuizScoreThreshold: 80}
	progressRepo := repository.NewProgressRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	walletRepo, achievementRepo := newWalletRepos(db)

	queue := NewPendingQueue()
	engine := NewSyncEngine(queue, progressRepo, remote, notifier, testSyncConfig(), clock)
	wallet := NewWalletService(db, walletRepo, achievementRepo, nil, notifier, rewards, clock)
	achievements := NewAchievementService(achievementRepo, walletRepo, progressRepo, checkinRepo, nil, notifier, rewards, clock)

	return &progressFixture{
		svc:      NewProgressService(progressRepo, checkinRepo, queue, engine, wallet, achievements, rewards, clock),
		engine:   engine,
		queue:    queue,
		remote:   remote,
		notifier: notifier,
		clock:    clock,
		checkins: checkinRepo,
		wallet:   wallet,
	}
}

func intPtr(v int) *int { return &v }

func TestApplyUpdateClampsPercentage(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)

	rec, err := f.svc.ApplyUpdate(context.Background(), key, ProgressUpdate{ProgressPercentage: intPtr(-5)})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ProgressPercentage)
	assert.Nil(t, rec.CompletedAt)

	rec, err = f.svc.ApplyUpdate(context.Background(), key, ProgressUpdate{ProgressPercentage: intPtr(150)})
	require.NoError(t, err)
	assert.Equal(t, 100, rec.ProgressPercentage)
	require.NotNil(t, rec.CompletedAt, "reaching 100% marks completion")
}

func TestApplyUpdateRejectsNegativeInput(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)

	_, err := f.svc.ApplyUpdate(context.Background(), key, ProgressUpdate{TimeSpentDelta: -10})
	assert.ErrorIs(t, err, util.ErrInvalidProgress)

	_, err = f.svc.ApplyUpdate(context.Background(), key, ProgressUpdate{XPEarned: -1})
	assert.ErrorIs(t, err, util.ErrInvalidAmount)

	_, err = f.svc.GetModule(key)
	assert.ErrorIs(t, err, util.ErrRecordNotFound, "rejected updates leave no record behind")
}

func TestCompletedAtWrittenOnce(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)
	ctx := context.Background()

	rec, err := f.svc.ApplyUpdate(ctx, key, ProgressUpdate{ProgressPercentage: intPtr(100)})
	require.NoError(t, err)
	require.NotNil(t, rec.CompletedAt)
	firstCompletedAt := *rec.CompletedAt

	// 之后的复习、重做都不再改完成时间
	f.clock.Advance(48 * time.Hour)
	rec, err = f.svc.ApplyUpdate(ctx, key, ProgressUpdate{ProgressPercentage: intPtr(100), TimeSpentDelta: 15})
	require.NoError(t, err)
	require.NotNil(t, rec.CompletedAt)
	assert.True(t, rec.CompletedAt.Equal(firstCompletedAt))

	f.engine.drainOnce()
	assert.Len(t, f.notifier.ByType(EventModuleCompleted), 1, "completion notifies once per module")
}

func TestCompletedPercentageCannotRegress(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)
	ctx := context.Background()

	rec, err := f.svc.ApplyUpdate(ctx, key, ProgressUpdate{ProgressPercentage: intPtr(100)})
	require.NoError(t, err)
	require.NotNil(t, rec.CompletedAt)
	completedAt := *rec.CompletedAt

	// 已完成记录收到更低的百分比：completedAt 存在就意味着 100%
	rec, err = f.svc.ApplyUpdate(ctx, key, ProgressUpdate{ProgressPercentage: intPtr(40)})
	require.NoError(t, err)
	assert.Equal(t, 100, rec.ProgressPercentage)
	require.NotNil(t, rec.CompletedAt)
	assert.True(t, rec.CompletedAt.Equal(completedAt))

	stored, err := f.svc.GetModule(key)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.ProgressPercentage)
}

func TestBurstEditsCoalesceIntoOnePush(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := f.svc.ApplyUpdate(ctx, key, ProgressUpdate{ProgressPercentage: intPtr(i * 10), TimeSpentDelta: 2})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.queue.Size(), "edits on one module share a queue slot")

	f.engine.drainOnce()

	assert.Equal(t, 1, f.remote.PushCount())
	pushed := f.remote.LastPush()
	assert.Equal(t, 50, pushed.ProgressPercentage)
	assert.Equal(t, 10, pushed.TimeSpentMinutes)
}

func TestOfflineCompletionSyncsOnReconnect(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)
	ctx := context.Background()

	f.engine.SetOnline(false)
	rec, err := f.svc.ApplyUpdate(ctx, key, ProgressUpdate{ProgressPercentage: intPtr(100), XPEarned: 20})
	require.NoError(t, err)
	require.NotNil(t, rec.CompletedAt)

	f.engine.drainOnce()
	assert.Equal(t, 0, f.remote.PushCount())
	assert.Empty(t, f.notifier.ByType(EventModuleCompleted))

	f.engine.SetOnline(true)
	f.engine.drainOnce()

	assert.Equal(t, 1, f.remote.PushCount())
	pushed := f.remote.LastPush()
	assert.Equal(t, 100, pushed.ProgressPercentage)
	require.NotNil(t, pushed.CompletedAt)
	assert.True(t, pushed.CompletedAt.Equal(*rec.CompletedAt))
	assert.Len(t, f.notifier.ByType(EventModuleCompleted), 1)
}

func TestLocalOnlyModeSkipsSync(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(0, 2, 3) // 未登录

	rec, err := f.svc.ApplyUpdate(context.Background(), key, ProgressUpdate{ProgressPercentage: intPtr(60)})
	require.NoError(t, err)
	assert.Equal(t, 60, rec.ProgressPercentage)
	assert.Equal(t, 0, f.queue.Size(), "anonymous progress stays local")
}

func TestApplyUpdateMergesDetails(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)
	ctx := context.Background()

	_, err := f.svc.ApplyUpdate(ctx, key, ProgressUpdate{
		CompletedLessons: []string{"l1", "l2"},
		QuizScores:       map[string]float64{"q1": 70},
	})
	require.NoError(t, err)

	rec, err := f.svc.ApplyUpdate(ctx, key, ProgressUpdate{
		CompletedLessons: []string{"l2", "l3"},
		QuizScores:       map[string]float64{"q1": 60, "q2": 85},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"l1", "l2", "l3"}, rec.CompletedLessons())
	scores := rec.QuizScores()
	assert.Equal(t, 70.0, scores["q1"], "a quiz score never regresses")
	assert.Equal(t, 85.0, scores["q2"])
}

func TestApplyUpdateCreditsXP(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)

	rec, err := f.svc.ApplyUpdate(context.Background(), key, ProgressUpdate{XPEarned: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, rec.XPEarned())

	summary, err := f.wallet.Summary(1)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Balance.TotalCoins)
	assert.Equal(t, 50, summary.CumulativeXP)

	// 第二次更新会先从本地库重载记录，模块内经验要累加而不是归零
	rec, err = f.svc.ApplyUpdate(context.Background(), key, ProgressUpdate{XPEarned: 30})
	require.NoError(t, err)
	assert.Equal(t, 80, rec.XPEarned())
}

func TestQuizMetricCountsPersistedScores(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	// 两个模块各有一次达标测验，记录已落库再重载进快照
	_, err := f.svc.ApplyUpdate(ctx, testKey(1, 2, 3), ProgressUpdate{QuizScores: map[string]float64{"q1": 90}})
	require.NoError(t, err)
	_, err = f.svc.ApplyUpdate(ctx, testKey(1, 4, 3), ProgressUpdate{QuizScores: map[string]float64{"q2": 85, "q3": 40}})
	require.NoError(t, err)

	snapshot, err := f.svc.Achievements.BuildSnapshot(1)
	require.NoError(t, err)

	qualifying := 0
	for _, score := range snapshot.QuizScores {
		if score >= 80 {
			qualifying++
		}
	}
	assert.Equal(t, 2, qualifying)
}

func TestStreakAcrossDays(t *testing.T) {
	f := newProgressFixture(t)
	key := testKey(1, 2, 3)
	ctx := context.Background()

	_, err := f.svc.ApplyUpdate(ctx, key, ProgressUpdate{TimeSpentDelta: 5})
	require.NoError(t, err)
	_, err = f.svc.ApplyUpdate(ctx, key, ProgressUpdate{TimeSpentDelta: 5})
	require.NoError(t, err)

	latest, err := f.checkins.FindLatestByUser(1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1, latest.StreakDays, "same-day activity counts once")

	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.ApplyUpdate(ctx, key, ProgressUpdate{TimeSpentDelta: 5})
	require.NoError(t, err)

	latest, err = f.checkins.FindLatestByUser(1)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.StreakDays, "consecutive days extend the streak")

	// 中断两天后重置
	f.clock.Advance(72 * time.Hour)
	_, err = f.svc.ApplyUpdate(ctx, key, ProgressUpdate{TimeSpentDelta: 5})
	require.NoError(t, err)

	latest, err = f.checkins.FindLatestByUser(1)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.StreakDays)
}

func TestGetCourseSummary(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyUpdate(ctx, testKey(1, 10, 3), ProgressUpdate{ProgressPercentage: intPtr(100)})
	require.NoError(t, err)
	_, err = f.svc.ApplyUpdate(ctx, testKey(1, 11, 3), ProgressUpdate{ProgressPercentage: intPtr(50)})
	require.NoError(t, err)

	summary, err := f.svc.GetCourseSummary(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalModules)
	assert.Equal(t, 1, summary.CompletedModules)
	assert.Equal(t, 75, summary.OverallProgress)
}
