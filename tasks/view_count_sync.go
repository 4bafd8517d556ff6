package tasks

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	"github.com/Xushengqwer/discussion_service/repo/redis"
)

const viewSyncTimeout = 3 * time.Minute

// ViewCountSyncTask 定时把 Redis 中累加的帖子浏览量回写 MySQL。
// Redis 计数以 MySQL 值为种子，回写是覆盖而非增量，重复执行不会重复计数。
type ViewCountSyncTask struct {
	postViewRepo  redis.PostViewRepository
	postBatchRepo mysql.PostBatchOperationsRepository
	cron          *cron.Cron
	logger        *core.ZapLogger
}

func NewViewCountSyncTask(
	postViewRepo redis.PostViewRepository,
	postBatchRepo mysql.PostBatchOperationsRepository,
	logger *core.ZapLogger,
) *ViewCountSyncTask {
	return &ViewCountSyncTask{
		postViewRepo:  postViewRepo,
		postBatchRepo: postBatchRepo,
		cron:          cron.New(),
		logger:        logger,
	}
}

// Start 注册 cron 作业并在后台开始调度。
func (t *ViewCountSyncTask) Start() error {
	schedule := constant.SyncViewCountInterval
	entryID, err := t.cron.AddFunc(schedule, func() {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), viewSyncTimeout)
		defer cancel()

		synced := t.RunOnce(ctx)
		t.logger.Info("浏览量同步任务执行完毕", zap.Int("synced", synced), zap.Duration("duration", time.Since(startTime)))
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("浏览量同步定时任务已启动", zap.String("schedule", schedule), zap.Uint("cronEntryID", uint(entryID)))
	return nil
}

// RunOnce 执行一次同步，返回提交给 MySQL 的帖子数量。
func (t *ViewCountSyncTask) RunOnce(ctx context.Context) int {
	viewCounts, err := t.postViewRepo.GetAllViewCounts(ctx)
	if err != nil {
		t.logger.Error("从 Redis 获取全量浏览量失败，本次同步中止", zap.Error(err))
		return 0
	}
	if len(viewCounts) == 0 {
		return 0
	}

	if err := t.postBatchRepo.BatchUpdatePostViewCounts(ctx, viewCounts); err != nil {
		t.logger.Error("批量回写浏览量失败", zap.Error(err), zap.Int("count", len(viewCounts)))
		return 0
	}
	return len(viewCounts)
}

// Stop 停止调度，返回的 context 在正在执行的作业结束后关闭。
func (t *ViewCountSyncTask) Stop() context.Context {
	t.logger.Info("正在停止浏览量同步定时任务...")
	return t.cron.Stop()
}
