package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
)

// incrementViewScript 计数器不存在时先用 MySQL 中的值初始化，再自增并同步排行榜分数。
// KEYS[1] 计数器 KEYS[2] 排行榜 ZSet；ARGV[1] 帖子 ID ARGV[2] 初始值。
var incrementViewScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
    redis.call("SET", KEYS[1], ARGV[2])
end
local viewCount = redis.call("INCR", KEYS[1])
redis.call("ZADD", KEYS[2], viewCount, ARGV[1])
return viewCount
`)

// PostViewRepository 帖子浏览量在 Redis 中的计数与排名。
type PostViewRepository interface {
	// IncrementViewCount 原子地把帖子浏览量加一并返回新值。
	// seed 是 MySQL 中已持久化的浏览量，仅在 Redis 计数器尚不存在时使用。
	IncrementViewCount(ctx context.Context, postID uint64, seed int64) (int64, error)

	// GetAllViewCounts 用 SCAN + MGET 分批读取全部帖子的浏览量，供回写任务使用。
	GetAllViewCounts(ctx context.Context) (map[uint64]int64, error)

	// RemovePost 删除帖子的计数器与排名，帖子删除后调用。
	RemovePost(ctx context.Context, postID uint64) error
}

type postViewRepository struct {
	redisClient *redis.Client
	logger      *core.ZapLogger
	viewSyncCfg config.ViewSyncConfig
}

func NewPostViewRepository(redisClient *redis.Client, logger *core.ZapLogger, viewSyncCfg config.ViewSyncConfig) PostViewRepository {
	return &postViewRepository{
		redisClient: redisClient,
		logger:      logger,
		viewSyncCfg: viewSyncCfg,
	}
}

func viewCountKey(postID uint64) string {
	return fmt.Sprintf("%s%d", constant.PostViewCountPrefix, postID)
}

func (r *postViewRepository) IncrementViewCount(ctx context.Context, postID uint64, seed int64) (int64, error) {
	keys := []string{viewCountKey(postID), constant.PostsRankKey}
	member := strconv.FormatUint(postID, 10)

	viewCount, err := incrementViewScript.Run(ctx, r.redisClient, keys, member, seed).Int64()
	if err != nil {
		r.logger.Error("Lua 脚本执行失败：增加浏览量和更新排名", zap.Error(err), zap.Uint64("postID", postID))
		return 0, fmt.Errorf("原子性增加浏览量失败 (PostID: %d): %w", postID, err)
	}
	return viewCount, nil
}

func (r *postViewRepository) GetAllViewCounts(ctx context.Context) (map[uint64]int64, error) {
	viewCounts := make(map[uint64]int64)
	matchPattern := constant.PostViewCountPrefix + "*"
	scanCount := r.viewSyncCfg.ScanBatchSize
	if scanCount <= 0 {
		scanCount = 1000
	}

	startTime := time.Now()
	var cursor uint64
	for {
		keys, nextCursor, err := r.redisClient.Scan(ctx, cursor, matchPattern, scanCount).Result()
		if err != nil {
			r.logger.Error("执行 Redis SCAN 命令失败", zap.Error(err), zap.Uint64("cursor", cursor))
			return nil, fmt.Errorf("扫描 Redis Keys 失败 (模式: %s): %w", matchPattern, err)
		}

		if len(keys) > 0 {
			values, err := r.redisClient.MGet(ctx, keys...).Result()
			if err != nil {
				r.logger.Error("MGET 批量获取浏览量失败", zap.Error(err), zap.Int("keys", len(keys)))
				return nil, fmt.Errorf("批量获取浏览量值失败 (%d keys): %w", len(keys), err)
			}
			for i, key := range keys {
				postID, err := strconv.ParseUint(strings.TrimPrefix(key, constant.PostViewCountPrefix), 10, 64)
				if err != nil {
					r.logger.Warn("无法从 Key 解析帖子 ID，已跳过", zap.String("key", key))
					continue
				}
				raw, ok := values[i].(string)
				if !ok {
					// 两次调用之间 Key 被删除，留给下一轮同步
					continue
				}
				count, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					r.logger.Warn("浏览量值不是整数，已跳过", zap.String("key", key), zap.String("value", raw))
					continue
				}
				viewCounts[postID] = count
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	r.logger.Debug("完成扫描 Redis 帖子浏览量",
		zap.Int("posts", len(viewCounts)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return viewCounts, nil
}

func (r *postViewRepository) RemovePost(ctx context.Context, postID uint64) error {
	member := strconv.FormatUint(postID, 10)
	_, err := r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, viewCountKey(postID))
		pipe.ZRem(ctx, constant.PostsRankKey, member)
		pipe.ZRem(ctx, constant.HotPostsRankKey, member)
		pipe.HDel(ctx, constant.PostsHashKey, member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("清理帖子 %d 的 Redis 数据失败: %w", postID, err)
	}
	return nil
}
