package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
)

// PostListService 帖子列表查询。
type PostListService interface {
	// ListPosts 支持 latest / votes / activity / unanswered 四种排序，按分类与关键字过滤。
	ListPosts(ctx context.Context, query *dto.ListPostsQuery) (*vo.PostListPageVO, error)
}

type postListService struct {
	logger   *core.ZapLogger
	postRepo mysql.PostRepository
}

func NewPostListService(logger *core.ZapLogger, postRepo mysql.PostRepository) PostListService {
	return &postListService{logger: logger, postRepo: postRepo}
}

func (s *postListService) ListPosts(ctx context.Context, query *dto.ListPostsQuery) (*vo.PostListPageVO, error) {
	if query == nil {
		query = &dto.ListPostsQuery{}
	}
	query.Normalize()
	query.Search = strings.TrimSpace(query.Search)
	query.Category = strings.TrimSpace(query.Category)

	posts, total, err := s.postRepo.ListPosts(ctx, query)
	if err != nil {
		s.logger.Error("查询帖子列表失败", zap.Error(err), zap.Any("query", query))
		return nil, fmt.Errorf("获取帖子列表失败: %w", err)
	}

	s.logger.Debug("查询帖子列表成功",
		zap.String("sortBy", string(query.SortBy)),
		zap.Int("retrievedCount", len(posts)),
		zap.Int64("total", total))

	return &vo.PostListPageVO{
		Posts:      vo.MapPostsToPostResponsesVO(posts),
		Pagination: vo.NewPaginationVO(query.Page, query.PageSize, total),
	}, nil
}
