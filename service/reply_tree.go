package service

import (
	"context"
	"sort"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
)

// ReplyTreeService 把帖子下平铺的回复组装成有序的嵌套树。
type ReplyTreeService interface {
	// BuildTree 每次调用都从存储重新计算，不缓存任何中间结构。
	// 帖子不存在返回 NotFound，没有回复返回空切片。
	BuildTree(ctx context.Context, postID uint64) ([]*vo.ReplyNodeVO, error)
}

type replyTreeService struct {
	postRepo  mysql.PostRepository
	replyRepo mysql.ReplyRepository
	maxLevels int
	logger    *core.ZapLogger
}

func NewReplyTreeService(postRepo mysql.PostRepository, replyRepo mysql.ReplyRepository, policy config.DiscussionPolicy, logger *core.ZapLogger) ReplyTreeService {
	return &replyTreeService{
		postRepo:  postRepo,
		replyRepo: replyRepo,
		maxLevels: policy.Normalize().MaxReplyDepth,
		logger:    logger,
	}
}

func (s *replyTreeService) BuildTree(ctx context.Context, postID uint64) ([]*vo.ReplyNodeVO, error) {
	if _, err := s.postRepo.GetPostByID(ctx, postID); err != nil {
		return nil, notFoundOr(err, "post", postID)
	}
	replies, err := s.replyRepo.ListAllByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return materializeTree(replies, s.maxLevels), nil
}

// replyArena 一次查询得到的全部回复，按父节点建立子节点索引。
type replyArena struct {
	roots    []*entities.Reply
	children map[uint64][]*entities.Reply
}

func newReplyArena(replies []*entities.Reply) *replyArena {
	arena := &replyArena{children: make(map[uint64][]*entities.Reply, len(replies))}
	for _, r := range replies {
		if r.ParentReplyID == nil {
			arena.roots = append(arena.roots, r)
			continue
		}
		arena.children[*r.ParentReplyID] = append(arena.children[*r.ParentReplyID], r)
	}

	// 顶层按得分降序，同分先发者在前；子回复按时间顺序
	sort.SliceStable(arena.roots, func(i, j int) bool {
		a, b := arena.roots[i], arena.roots[j]
		if a.VoteScore != b.VoteScore {
			return a.VoteScore > b.VoteScore
		}
		return chronological(a, b)
	})
	for _, siblings := range arena.children {
		sort.SliceStable(siblings, func(i, j int) bool { return chronological(siblings[i], siblings[j]) })
	}
	return arena
}

func chronological(a, b *entities.Reply) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// materializeTree 从顶层节点向下最多展开 maxLevels 层，更深的节点返回空子列表。
// 层数按遍历计数而不是记录上的 depth，数据异常时也能保证终止。
func materializeTree(replies []*entities.Reply, maxLevels int) []*vo.ReplyNodeVO {
	arena := newReplyArena(replies)
	nodes := make([]*vo.ReplyNodeVO, 0, len(arena.roots))
	for _, root := range arena.roots {
		if node := arena.render(root, 0, maxLevels); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// render 已删除且没有可见后代的回复返回 nil；已删除但有可见后代的回复渲染为占位节点。
func (a *replyArena) render(reply *entities.Reply, level, maxLevels int) *vo.ReplyNodeVO {
	children := make([]*vo.ReplyNodeVO, 0)
	if level < maxLevels {
		for _, child := range a.children[reply.ID] {
			if node := a.render(child, level+1, maxLevels); node != nil {
				children = append(children, node)
			}
		}
	}

	if reply.IsDeleted {
		if len(children) == 0 {
			return nil
		}
		return &vo.ReplyNodeVO{ReplyVO: *vo.NewTombstoneReplyVO(reply), Children: children}
	}
	return &vo.ReplyNodeVO{ReplyVO: *vo.NewReplyVO(reply), Children: children}
}
