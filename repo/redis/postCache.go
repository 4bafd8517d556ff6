package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Xushengqwer/go-common/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/models/entities"
)

// Cache 热榜的只读访问：排名查询、按排名区间取 ID、从 Hash 批量取帖子摘要。
type Cache interface {
	// GetPostRank 帖子在热榜快照中的排名 (0-based，降序)，不在榜单中返回 -1。
	GetPostRank(ctx context.Context, postID uint64) (int64, error)

	// GetPostsByRange 按排名区间 [start, stop] 读取帖子 ID。
	GetPostsByRange(ctx context.Context, start, stop int64) ([]uint64, error)

	// GetPosts 从 Hash 批量读取帖子，未命中的 ID 被跳过，返回顺序与 postIDs 一致。
	GetPosts(ctx context.Context, postIDs []uint64) ([]*entities.Post, error)
}

type cacheImpl struct {
	redisClient *redis.Client
	logger      *core.ZapLogger
}

func NewCache(redisClient *redis.Client, logger *core.ZapLogger) Cache {
	return &cacheImpl{redisClient: redisClient, logger: logger}
}

func (c *cacheImpl) GetPostRank(ctx context.Context, postID uint64) (int64, error) {
	member := strconv.FormatUint(postID, 10)
	rank, err := c.redisClient.ZRevRank(ctx, constant.HotPostsRankKey, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		c.logger.Error("从 Redis 获取帖子排名失败", zap.Error(err), zap.Uint64("postID", postID))
		return -1, fmt.Errorf("获取帖子(ID: %d)在热榜中的排名失败: %w", postID, err)
	}
	return rank, nil
}

func (c *cacheImpl) GetPostsByRange(ctx context.Context, start, stop int64) ([]uint64, error) {
	if start < 0 || (stop >= 0 && start > stop) {
		return []uint64{}, nil
	}

	idStrs, err := c.redisClient.ZRevRange(ctx, constant.HotPostsRankKey, start, stop).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Error("按排名区间读取热榜失败", zap.Error(err), zap.Int64("start", start), zap.Int64("stop", stop))
		return nil, fmt.Errorf("获取排名 %d-%d 的帖子 ID 失败: %w", start, stop, err)
	}

	ids := make([]uint64, 0, len(idStrs))
	for _, idStr := range idStrs {
		id, parseErr := strconv.ParseUint(idStr, 10, 64)
		if parseErr != nil {
			c.logger.Warn("热榜成员不是合法的帖子 ID，已跳过", zap.String("member", idStr))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *cacheImpl) GetPosts(ctx context.Context, postIDs []uint64) ([]*entities.Post, error) {
	if len(postIDs) == 0 {
		return []*entities.Post{}, nil
	}

	fields := make([]string, len(postIDs))
	for i, id := range postIDs {
		fields[i] = strconv.FormatUint(id, 10)
	}

	values, err := c.redisClient.HMGet(ctx, constant.PostsHashKey, fields...).Result()
	if err != nil {
		c.logger.Error("HMGET 批量读取热榜帖子失败", zap.Error(err), zap.Int("idCount", len(postIDs)))
		return nil, fmt.Errorf("批量获取帖子缓存失败: %w", err)
	}

	posts := make([]*entities.Post, 0, len(postIDs))
	misses := 0
	for i, val := range values {
		raw, ok := val.(string)
		if !ok {
			misses++
			continue
		}
		var post entities.Post
		if err := json.Unmarshal([]byte(raw), &post); err != nil {
			c.logger.Error("反序列化热榜帖子失败，跳过该帖子", zap.Error(err), zap.String("postID", fields[i]))
			continue
		}
		posts = append(posts, &post)
	}
	if misses > 0 {
		c.logger.Debug("热榜 Hash 部分未命中", zap.Int("requested", len(postIDs)), zap.Int("misses", misses))
	}
	return posts, nil
}
