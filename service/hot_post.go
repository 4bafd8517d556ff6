package service

import (
	"context"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/repo/redis"
)

// HotPostService 热门帖子榜单（由定时任务写入 Redis 的快照）的游标分页读取。
type HotPostService interface {
	// GetHotPostsByCursor lastPostID 为 nil 表示从榜首开始；返回的 NextCursor 为 nil 表示没有更多数据。
	GetHotPostsByCursor(ctx context.Context, lastPostID *uint64, limit int) (*vo.ListHotPostsByCursorResponse, error)
}

type hotPostService struct {
	postCache redis.Cache
	logger    *core.ZapLogger
}

// NewHotPostService postCache 为 nil（未配置 Redis）时榜单始终为空。
func NewHotPostService(postCache redis.Cache, logger *core.ZapLogger) HotPostService {
	return &hotPostService{postCache: postCache, logger: logger}
}

func (s *hotPostService) GetHotPostsByCursor(ctx context.Context, lastPostID *uint64, limit int) (*vo.ListHotPostsByCursorResponse, error) {
	if limit <= 0 {
		return nil, myErrors.Validation("limit", "必须大于 0")
	}
	empty := &vo.ListHotPostsByCursorResponse{Posts: []*vo.PostResponse{}}
	if s.postCache == nil {
		return empty, nil
	}

	var start int64
	if lastPostID != nil {
		rank, err := s.postCache.GetPostRank(ctx, *lastPostID)
		if err != nil {
			return nil, fmt.Errorf("获取帖子排名失败: %w", err)
		}
		if rank == -1 {
			s.logger.Warn("游标帖子已不在热榜中", zap.Uint64p("lastPostID", lastPostID))
			return nil, myErrors.Validation("lastPostId", "游标帖子已不在热门榜单中，请刷新")
		}
		start = rank + 1
	}
	stop := start + int64(limit) - 1

	postIDs, err := s.postCache.GetPostsByRange(ctx, start, stop)
	if err != nil {
		return nil, fmt.Errorf("获取帖子 ID 列表失败: %w", err)
	}
	if len(postIDs) == 0 {
		return empty, nil
	}

	posts, err := s.postCache.GetPosts(ctx, postIDs)
	if err != nil {
		s.logger.Error("从缓存批量获取帖子失败", zap.Error(err), zap.Any("postIDs", postIDs))
		return nil, fmt.Errorf("获取帖子摘要失败: %w", err)
	}

	resp := &vo.ListHotPostsByCursorResponse{Posts: vo.MapPostsToPostResponsesVO(posts)}
	// 游标取自 ZSet 的 ID，Hash 部分未命中不影响翻页
	if len(postIDs) == limit {
		next := postIDs[len(postIDs)-1]
		resp.NextCursor = &next
	}
	return resp, nil
}
