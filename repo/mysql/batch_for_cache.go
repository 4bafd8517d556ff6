package mysql

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/models/entities"
)

// PostBatchOperationsRepository 面向后台任务的批量操作：浏览量回写与热门列表填充。
type PostBatchOperationsRepository interface {
	// BatchUpdatePostViewCounts 分批并发地把 Redis 中的浏览量写回 MySQL。
	// 单个批次失败不会中断其他批次，所有失败在最后聚合返回。
	BatchUpdatePostViewCounts(ctx context.Context, viewCounts map[uint64]int64) error

	// GetPostsByIDs 按 ID 批量读取帖子，不存在的 ID 直接忽略，返回顺序不保证。
	GetPostsByIDs(ctx context.Context, ids []uint64) ([]*entities.Post, error)
}

type postBatchOperationsRepository struct {
	db          *gorm.DB
	logger      *core.ZapLogger
	viewSyncCfg config.ViewSyncConfig
}

func NewPostBatchOperationsRepository(db *gorm.DB, logger *core.ZapLogger, viewSyncCfg config.ViewSyncConfig) PostBatchOperationsRepository {
	return &postBatchOperationsRepository{db: db, logger: logger, viewSyncCfg: viewSyncCfg}
}

type updateItem struct {
	ID        uint64
	ViewCount int64
}

// BatchUpdatePostViewCounts 按 viewSyncCfg.BatchSize 分批，
// 由 viewSyncCfg.ConcurrencyLevel 个 worker 并发执行 CASE WHEN 更新。
func (r *postBatchOperationsRepository) BatchUpdatePostViewCounts(ctx context.Context, viewCounts map[uint64]int64) error {
	if len(viewCounts) == 0 {
		r.logger.Debug("没有需要回写的浏览量")
		return nil
	}

	batchSize := r.viewSyncCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	workers := r.viewSyncCfg.ConcurrencyLevel
	if workers <= 0 {
		workers = 1
	}

	items := make([]updateItem, 0, len(viewCounts))
	for id, count := range viewCounts {
		items = append(items, updateItem{ID: id, ViewCount: count})
	}
	batches := chunkUpdateItems(items, batchSize)

	started := time.Now()
	jobs := make(chan []updateItem)
	results := make(chan error, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for batch := range jobs {
				if err := ctx.Err(); err != nil {
					results <- fmt.Errorf("worker %d: 上下文已取消: %w", workerID, err)
					continue
				}
				results <- r.processBatch(ctx, batch, workerID)
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				r.logger.Warn("上下文取消，停止分发浏览量批次", zap.Error(ctx.Err()))
				return
			case jobs <- batch:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var failures []string
	for err := range results {
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	r.logger.Info("浏览量回写完成",
		zap.Int("帖子数", len(items)),
		zap.Int("批次数", len(batches)),
		zap.Int("失败批次数", len(failures)),
		zap.Duration("耗时", time.Since(started)),
	)
	if len(failures) > 0 {
		return fmt.Errorf("浏览量回写部分失败 (%d / %d 个批次): %s", len(failures), len(batches), strings.Join(failures, "; "))
	}
	return nil
}

func chunkUpdateItems(items []updateItem, size int) [][]updateItem {
	chunks := make([][]updateItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// processBatch 负责处理单个批次的数据库更新。
func (r *postBatchOperationsRepository) processBatch(ctx context.Context, batch []updateItem, workerID int) error {
	currentBatchSize := len(batch)

	var (
		ids          []uint64
		sqlCase      strings.Builder
		updateParams []interface{}
	)
	sqlCase.WriteString("CASE id ")
	for _, item := range batch {
		ids = append(ids, item.ID)
		sqlCase.WriteString("WHEN ? THEN ? ")
		updateParams = append(updateParams, item.ID, item.ViewCount)
	}
	sqlCase.WriteString("END")

	dbOperationStart := time.Now()
	err := r.db.WithContext(ctx).Model(&entities.Post{}).
		Where("id IN ?", ids).
		Update("view_count", gorm.Expr(sqlCase.String(), updateParams...)).Error
	dbDuration := time.Since(dbOperationStart)

	if err != nil {
		r.logger.Error("processBatch: 数据库更新批次失败",
			zap.Int("workerID", workerID),
			zap.Int("batchSize", currentBatchSize),
			zap.Duration("db耗时", dbDuration),
			zap.Error(err),
		)
		return fmt.Errorf("worker %d 处理批次 (大小 %d) 失败: %w", workerID, currentBatchSize, err)
	}

	r.logger.Debug("processBatch: 数据库更新批次成功",
		zap.Int("workerID", workerID),
		zap.Int("batchSize", currentBatchSize),
		zap.Duration("db耗时", dbDuration),
	)
	return nil
}

// GetPostsByIDs 实现根据 ID 列表批量获取帖子 (entities.Post)。
func (r *postBatchOperationsRepository) GetPostsByIDs(ctx context.Context, ids []uint64) ([]*entities.Post, error) {
	var posts []*entities.Post

	if len(ids) == 0 {
		r.logger.Debug("GetPostsByIDs: ids 为空，返回空列表。")
		return posts, nil
	}
	r.logger.Debug("GetPostsByIDs: 开始查询帖子。", zap.Int("id数量", len(ids)))

	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		r.logger.Error("GetPostsByIDs: 查询帖子失败。", zap.Error(err))
		return nil, err
	}

	r.logger.Debug("GetPostsByIDs: 查询帖子成功。", zap.Int("找到数量", len(posts)))
	return posts, nil
}

