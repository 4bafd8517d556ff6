package tasks

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/repo/redis"
)

const hotPostsRefreshTimeout = 10 * time.Minute

// HotPostsCacheTask 定时按浏览量生成热榜快照，并把榜单帖子的摘要写入 Redis Hash。
type HotPostsCacheTask struct {
	taskCache redis.PostTaskCache
	cron      *cron.Cron
	logger    *core.ZapLogger
}

func NewHotPostsCacheTask(taskCache redis.PostTaskCache, logger *core.ZapLogger) *HotPostsCacheTask {
	return &HotPostsCacheTask{
		taskCache: taskCache,
		cron:      cron.New(),
		logger:    logger,
	}
}

func (t *HotPostsCacheTask) Start() error {
	schedule := constant.HotPostsCacheCronSpec
	entryID, err := t.cron.AddFunc(schedule, func() {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), hotPostsRefreshTimeout)
		defer cancel()

		if err := t.RunOnce(ctx); err != nil {
			t.logger.Error("热榜刷新失败", zap.Error(err))
			return
		}
		t.logger.Info("热榜刷新完毕", zap.Duration("duration", time.Since(startTime)))
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("热榜刷新定时任务已启动", zap.String("schedule", schedule), zap.Uint("cronEntryID", uint(entryID)))
	return nil
}

// RunOnce 先生成快照再同步摘要；快照失败时不写 Hash，避免摘要与排名来自不同批次。
func (t *HotPostsCacheTask) RunOnce(ctx context.Context) error {
	size, err := t.taskCache.CreateHotList(ctx, constant.HotPostsCacheSize)
	if err != nil {
		return err
	}
	if size == 0 {
		t.logger.Debug("热榜为空，跳过摘要同步")
	}
	return t.taskCache.CacheHotPostsToRedis(ctx)
}

func (t *HotPostsCacheTask) Stop() context.Context {
	t.logger.Info("正在停止热榜刷新定时任务...")
	return t.cron.Stop()
}
