package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
)

// snapshotTopNScript 把总排行榜的前 N 名整体复制到热榜快照。
// ZREVRANGE WITHSCORES 返回 member, score 交替的数组，ZADD 需要 score, member。
var snapshotTopNScript = redis.NewScript(`
local items = redis.call("ZREVRANGE", KEYS[1], 0, tonumber(ARGV[1]) - 1, "WITHSCORES")
redis.call("DEL", KEYS[2])
if #items > 0 then
    local args = {}
    for i = 1, #items, 2 do
        table.insert(args, items[i + 1])
        table.insert(args, items[i])
    end
    redis.call("ZADD", KEYS[2], unpack(args))
end
return #items / 2
`)

// PostTaskCache 后台任务维护热榜的写操作。
type PostTaskCache interface {
	// CreateHotList 从总排行榜截取前 n 名生成热榜快照，返回快照中的帖子数。
	CreateHotList(ctx context.Context, n int) (int64, error)

	// CacheHotPostsToRedis 按热榜快照从 MySQL 读取帖子摘要，写入临时 Hash 后 RENAME 覆盖正式 Hash。
	CacheHotPostsToRedis(ctx context.Context) error
}

type postTaskCacheImpl struct {
	redisClient *redis.Client
	logger      *core.ZapLogger
	postBatch   mysql.PostBatchOperationsRepository
}

func NewPostTaskCacheImpl(
	redisClient *redis.Client,
	logger *core.ZapLogger,
	postBatch mysql.PostBatchOperationsRepository,
) PostTaskCache {
	return &postTaskCacheImpl{
		redisClient: redisClient,
		logger:      logger,
		postBatch:   postBatch,
	}
}

func (c *postTaskCacheImpl) CreateHotList(ctx context.Context, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	count, err := snapshotTopNScript.Run(ctx, c.redisClient,
		[]string{constant.PostsRankKey, constant.HotPostsRankKey}, n).Int64()
	if err != nil {
		c.logger.Error("执行 Lua 脚本创建热榜快照失败", zap.Error(err), zap.Int("n", n))
		return 0, fmt.Errorf("创建热榜快照 (Top %d) 失败: %w", n, err)
	}
	return count, nil
}

func (c *postTaskCacheImpl) CacheHotPostsToRedis(ctx context.Context) error {
	startTime := time.Now()
	finalHashKey := constant.PostsHashKey
	tempHashKey := finalHashKey + "_temp_" + strconv.FormatInt(startTime.UnixNano(), 10)

	postScores, err := c.redisClient.ZRevRangeWithScores(ctx, constant.HotPostsRankKey, 0, int64(constant.HotPostsCacheSize-1)).Result()
	if err != nil {
		return fmt.Errorf("获取热榜快照失败: %w", err)
	}

	ids := make([]uint64, 0, len(postScores))
	scores := make(map[uint64]float64, len(postScores))
	for _, z := range postScores {
		idStr, _ := z.Member.(string)
		id, parseErr := strconv.ParseUint(idStr, 10, 64)
		if parseErr != nil {
			c.logger.Warn("热榜快照成员不是合法的帖子 ID，已跳过", zap.Any("member", z.Member))
			continue
		}
		ids = append(ids, id)
		scores[id] = z.Score
	}

	if len(ids) == 0 {
		c.logger.Info("热榜快照为空，清空帖子 Hash")
		return c.redisClient.Del(ctx, finalHashKey).Err()
	}

	posts, err := c.postBatch.GetPostsByIDs(ctx, ids)
	if err != nil {
		c.logger.Error("从 MySQL 批量获取热门帖子失败，保留现有缓存", zap.Error(err), zap.Int("idCount", len(ids)))
		return fmt.Errorf("从数据库获取帖子数据失败: %w", err)
	}

	dataToCache := make(map[string]interface{}, len(posts))
	for _, post := range posts {
		snapshot := *post
		// 快照分数比 MySQL 中的浏览量更新
		snapshot.ViewCount = int64(scores[post.ID])
		snapshot.Content = ""
		jsonData, jsonErr := json.Marshal(snapshot)
		if jsonErr != nil {
			c.logger.Error("序列化帖子失败，跳过该帖子", zap.Error(jsonErr), zap.Uint64("postID", post.ID))
			continue
		}
		dataToCache[strconv.FormatUint(post.ID, 10)] = jsonData
	}

	if len(dataToCache) == 0 {
		// 热榜中的帖子已全部被删除
		return c.redisClient.Del(ctx, finalHashKey).Err()
	}

	pipe := c.redisClient.TxPipeline()
	pipe.Del(ctx, tempHashKey)
	pipe.HSet(ctx, tempHashKey, dataToCache)
	pipe.Rename(ctx, tempHashKey, finalHashKey)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("写入并替换热榜 Hash 失败，保留现有缓存", zap.Error(err), zap.String("tempHashKey", tempHashKey))
		c.redisClient.Del(ctx, tempHashKey)
		return fmt.Errorf("替换帖子 Hash 缓存失败: %w", err)
	}

	c.logger.Info("热榜帖子已同步到 Redis Hash",
		zap.Int("cachedCount", len(dataToCache)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}
