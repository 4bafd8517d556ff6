package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/metrics"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/models/events"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/mq/producer"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
)

// ReplyService 回复的创建、编辑、软删除与列表。
// 它是 depth、parent_reply_id、is_deleted 三个字段唯一的写入方。
type ReplyService interface {
	CreateReply(ctx context.Context, actor dto.Actor, postID uint64, req *dto.CreateReplyRequest) (*vo.ReplyVO, error)

	// EditReply 只有作者可以编辑，已删除的回复视为不存在。
	EditReply(ctx context.Context, actor dto.Actor, replyID uint64, req *dto.EditReplyRequest) (*vo.ReplyVO, error)

	// SoftDeleteReply 作者或讲师/版主可以删除。子回复保持不变，采纳标记也不受影响。
	SoftDeleteReply(ctx context.Context, actor dto.Actor, replyID uint64) error

	ListTopLevel(ctx context.Context, postID uint64) ([]*vo.ReplyVO, error)
	ListChildren(ctx context.Context, parentReplyID uint64) ([]*vo.ReplyVO, error)
	ListUserReplies(ctx context.Context, userID string, query *dto.ListUserRepliesQuery) (*vo.UserRepliesPageVO, error)

	VoteReply(ctx context.Context, actor dto.Actor, replyID uint64, direction entities.VoteDirection) (*vo.VoteResultVO, error)
}

type replyService struct {
	db        *gorm.DB
	postRepo  mysql.PostRepository
	replyRepo mysql.ReplyRepository
	votes     VoteService
	publisher producer.EventPublisher
	policy    config.DiscussionPolicy
	logger    *core.ZapLogger
}

// NewReplyService publisher 为 nil 时不发送事件。
func NewReplyService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	replyRepo mysql.ReplyRepository,
	votes VoteService,
	publisher producer.EventPublisher,
	policy config.DiscussionPolicy,
	logger *core.ZapLogger,
) ReplyService {
	return &replyService{
		db:        db,
		postRepo:  postRepo,
		replyRepo: replyRepo,
		votes:     votes,
		publisher: publisher,
		policy:    policy.Normalize(),
		logger:    logger,
	}
}

func (s *replyService) CreateReply(ctx context.Context, actor dto.Actor, postID uint64, req *dto.CreateReplyRequest) (*vo.ReplyVO, error) {
	if err := requireActor(actor.UserID); err != nil {
		return nil, err
	}
	content, err := normalizeContent("content", req.Content, constant.MaxContentLength)
	if err != nil {
		return nil, err
	}

	var (
		post  *entities.Post
		reply *entities.Reply
	)
	err = withConflictRetry(ctx, s.logger, "create_reply", s.policy.ConflictRetries, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 锁住帖子，串行化同一帖子上的回复计数变更
			post, err = s.postRepo.LockPostByID(ctx, tx, postID)
			if err != nil {
				return notFoundOr(err, "post", postID)
			}

			depth := 0
			if req.ParentReplyID != nil {
				parentID := *req.ParentReplyID
				parent, err := s.replyRepo.LockReplyByID(ctx, tx, parentID)
				if err != nil {
					return notFoundOr(err, "reply", parentID)
				}
				if parent.IsDeleted || parent.PostID != postID {
					return myErrors.NotFound("reply", parentID)
				}
				depth = parent.Depth + 1
			}
			if depth > s.policy.MaxReplyDepth {
				return myErrors.DepthExceeded(depth, s.policy.MaxReplyDepth)
			}

			now := time.Now()
			reply = &entities.Reply{
				PostID:            postID,
				ParentReplyID:     req.ParentReplyID,
				Content:           content,
				AuthorID:          actor.UserID,
				Depth:             depth,
				IsInstructorReply: actor.Role.IsInstructor(),
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := s.replyRepo.CreateReply(ctx, tx, reply); err != nil {
				return fmt.Errorf("保存回复失败: %w", err)
			}
			if err := s.postRepo.IncrementReplyCount(ctx, tx, postID); err != nil {
				return err
			}
			return s.postRepo.TouchLastActivity(ctx, tx, postID, now)
		})
	})
	if err != nil {
		return nil, err
	}

	level := "nested"
	if reply.IsTopLevel() {
		level = "top"
	}
	metrics.RepliesCreated.WithLabelValues(level).Inc()
	s.logger.Info("回复创建成功",
		zap.Uint64("postID", postID),
		zap.Uint64("replyID", reply.ID),
		zap.Int("depth", reply.Depth),
		zap.String("authorID", reply.AuthorID),
	)

	if s.publisher != nil {
		event := events.ReplyCreatedEvent{
			PostID:            postID,
			PostAuthorID:      post.AuthorID,
			ReplyID:           reply.ID,
			ParentReplyID:     reply.ParentReplyID,
			AuthorID:          reply.AuthorID,
			Depth:             reply.Depth,
			IsInstructorReply: reply.IsInstructorReply,
		}
		publishAsync(s.logger, "reply_created", func(ctx context.Context) error {
			return s.publisher.PublishReplyCreated(ctx, event)
		})
	}
	return vo.NewReplyVO(reply), nil
}

func (s *replyService) EditReply(ctx context.Context, actor dto.Actor, replyID uint64, req *dto.EditReplyRequest) (*vo.ReplyVO, error) {
	if err := requireActor(actor.UserID); err != nil {
		return nil, err
	}
	content, err := normalizeContent("content", req.Content, constant.MaxContentLength)
	if err != nil {
		return nil, err
	}

	var reply *entities.Reply
	err = withConflictRetry(ctx, s.logger, "edit_reply", s.policy.ConflictRetries, func() error {
		postID, err := s.owningPostID(ctx, replyID)
		if err != nil {
			return err
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			reply, err = s.lockActiveReply(ctx, tx, replyID, postID)
			if err != nil {
				return err
			}
			if reply.AuthorID != actor.UserID {
				return myErrors.Permission("reply", "只有作者可以编辑回复")
			}

			now := time.Now()
			if err := s.replyRepo.UpdateReplyFields(ctx, tx, reply, map[string]interface{}{
				"content":    content,
				"updated_at": now,
			}); err != nil {
				return err
			}
			reply.Content = content
			reply.UpdatedAt = now
			return s.postRepo.TouchLastActivity(ctx, tx, reply.PostID, now)
		})
	})
	if err != nil {
		return nil, err
	}
	return vo.NewReplyVO(reply), nil
}

func (s *replyService) SoftDeleteReply(ctx context.Context, actor dto.Actor, replyID uint64) error {
	if err := requireActor(actor.UserID); err != nil {
		return err
	}

	return withConflictRetry(ctx, s.logger, "delete_reply", s.policy.ConflictRetries, func() error {
		postID, err := s.owningPostID(ctx, replyID)
		if err != nil {
			return err
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			reply, err := s.lockActiveReply(ctx, tx, replyID, postID)
			if err != nil {
				return err
			}
			if reply.AuthorID != actor.UserID && !actor.Role.IsElevated() {
				return myErrors.Permission("reply", "只有作者、讲师或版主可以删除回复")
			}

			now := time.Now()
			deletedBy := actor.UserID
			if err := s.replyRepo.UpdateReplyFields(ctx, tx, reply, map[string]interface{}{
				"is_deleted": true,
				"deleted_at": now,
				"deleted_by": deletedBy,
			}); err != nil {
				return err
			}
			if err := s.postRepo.DecrementReplyCount(ctx, tx, reply.PostID); err != nil {
				return err
			}
			if err := s.postRepo.TouchLastActivity(ctx, tx, reply.PostID, now); err != nil {
				return err
			}
			s.logger.Info("回复已软删除",
				zap.Uint64("replyID", replyID),
				zap.Uint64("postID", reply.PostID),
				zap.String("deletedBy", deletedBy),
				zap.String("role", string(actor.Role)),
			)
			return nil
		})
	})
}

// owningPostID 事务开始前不加锁读取回复所属帖子。
func (s *replyService) owningPostID(ctx context.Context, replyID uint64) (uint64, error) {
	reply, err := s.replyRepo.GetReplyByID(ctx, replyID)
	if err != nil {
		return 0, notFoundOr(err, "reply", replyID)
	}
	return reply.PostID, nil
}

// lockActiveReply 先锁帖子再锁回复。已软删除的回复对编辑与删除都视为不存在。
func (s *replyService) lockActiveReply(ctx context.Context, tx *gorm.DB, replyID, postID uint64) (*entities.Reply, error) {
	if _, err := s.postRepo.LockPostByID(ctx, tx, postID); err != nil {
		return nil, notFoundOr(err, "reply", replyID)
	}
	reply, err := s.replyRepo.LockReplyByID(ctx, tx, replyID)
	if err != nil {
		return nil, notFoundOr(err, "reply", replyID)
	}
	if reply.IsDeleted {
		return nil, myErrors.NotFound("reply", replyID)
	}
	if reply.PostID != postID {
		return nil, myErrors.Conflict("reply", replyID)
	}
	return reply, nil
}

func (s *replyService) ListTopLevel(ctx context.Context, postID uint64) ([]*vo.ReplyVO, error) {
	if _, err := s.postRepo.GetPostByID(ctx, postID); err != nil {
		return nil, notFoundOr(err, "post", postID)
	}
	replies, err := s.replyRepo.ListTopLevel(ctx, postID)
	if err != nil {
		return nil, err
	}
	return vo.MapRepliesToVO(replies), nil
}

// ListChildren 父回复即使已删除，其未删除的子回复仍然可以列出。
func (s *replyService) ListChildren(ctx context.Context, parentReplyID uint64) ([]*vo.ReplyVO, error) {
	if _, err := s.replyRepo.GetReplyByID(ctx, parentReplyID); err != nil {
		return nil, notFoundOr(err, "reply", parentReplyID)
	}
	replies, err := s.replyRepo.ListChildren(ctx, parentReplyID)
	if err != nil {
		return nil, err
	}
	return vo.MapRepliesToVO(replies), nil
}

func (s *replyService) ListUserReplies(ctx context.Context, userID string, query *dto.ListUserRepliesQuery) (*vo.UserRepliesPageVO, error) {
	if err := requireActor(userID); err != nil {
		return nil, err
	}
	if query == nil {
		query = &dto.ListUserRepliesQuery{}
	}
	query.Normalize()

	replies, total, err := s.replyRepo.ListByAuthor(ctx, userID, (query.Page-1)*query.PageSize, query.PageSize)
	if err != nil {
		s.logger.Error("查询用户回复失败", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	return &vo.UserRepliesPageVO{
		Replies:    vo.MapRepliesToVO(replies),
		Pagination: vo.NewPaginationVO(query.Page, query.PageSize, total),
	}, nil
}

func (s *replyService) VoteReply(ctx context.Context, actor dto.Actor, replyID uint64, direction entities.VoteDirection) (*vo.VoteResultVO, error) {
	return s.votes.ApplyVote(ctx, entities.VoteTarget{Type: entities.VoteTargetReply, ID: replyID}, actor.UserID, direction)
}
