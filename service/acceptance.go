package service

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/metrics"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/models/events"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/mq/producer"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
)

// AcceptanceService 帖子答案状态的唯一写入方。
// 同一帖子下最多一条回复处于已采纳状态，清除旧采纳、设置新采纳与更新帖子在同一事务中完成。
type AcceptanceService interface {
	AcceptReply(ctx context.Context, actor dto.Actor, postID, replyID uint64) (*vo.AnswerStateVO, error)

	// AcceptReplyByID 只知道回复 ID 时使用，帖子 ID 从回复上读取。
	AcceptReplyByID(ctx context.Context, actor dto.Actor, replyID uint64) (*vo.AnswerStateVO, error)

	// MarkPostAnswered 指定 replyID 时等同于 AcceptReply；
	// 未指定时只设置帖子的已解决状态，不改动任何回复的采纳标记。
	MarkPostAnswered(ctx context.Context, actor dto.Actor, postID uint64, replyID *uint64) (*vo.AnswerStateVO, error)
}

type acceptanceService struct {
	db        *gorm.DB
	postRepo  mysql.PostRepository
	replyRepo mysql.ReplyRepository
	publisher producer.EventPublisher
	policy    config.DiscussionPolicy
	logger    *core.ZapLogger
}

func NewAcceptanceService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	replyRepo mysql.ReplyRepository,
	publisher producer.EventPublisher,
	policy config.DiscussionPolicy,
	logger *core.ZapLogger,
) AcceptanceService {
	return &acceptanceService{
		db:        db,
		postRepo:  postRepo,
		replyRepo: replyRepo,
		publisher: publisher,
		policy:    policy.Normalize(),
		logger:    logger,
	}
}

func requireInstructor(actor dto.Actor) error {
	if err := requireActor(actor.UserID); err != nil {
		return err
	}
	if !actor.Role.IsInstructor() {
		return myErrors.Permission("post", "只有讲师可以采纳答案或标记已解决")
	}
	return nil
}

func (s *acceptanceService) AcceptReply(ctx context.Context, actor dto.Actor, postID, replyID uint64) (*vo.AnswerStateVO, error) {
	if err := requireInstructor(actor); err != nil {
		return nil, err
	}

	var (
		post     *entities.Post
		reply    *entities.Reply
		previous *uint64
		cleared  []uint64
	)
	err := withConflictRetry(ctx, s.logger, "accept_reply", s.policy.ConflictRetries, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			post, err = s.postRepo.LockPostByID(ctx, tx, postID)
			if err != nil {
				return notFoundOr(err, "post", postID)
			}
			reply, err = s.replyRepo.LockReplyByID(ctx, tx, replyID)
			if err != nil {
				return notFoundOr(err, "reply", replyID)
			}
			if reply.IsDeleted || reply.PostID != postID {
				return myErrors.NotFound("reply", replyID)
			}
			previous = post.AnsweredReplyID

			cleared, err = s.replyRepo.ClearAcceptedExcept(ctx, tx, postID, replyID)
			if err != nil {
				return err
			}

			now := time.Now()
			if err := s.replyRepo.UpdateReplyFields(ctx, tx, reply, map[string]interface{}{
				"is_accepted_answer": true,
				"accepted_at":        now,
			}); err != nil {
				return err
			}
			reply.IsAcceptedAnswer = true
			reply.AcceptedAt = &now

			return s.setAnswered(ctx, tx, post, actor.UserID, now, &replyID)
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.AnswersAccepted.Inc()
	s.logger.Info("答案已采纳",
		zap.Uint64("postID", postID),
		zap.Uint64("replyID", replyID),
		zap.String("acceptedBy", actor.UserID),
		zap.Uint64s("cleared", cleared),
	)

	if previous != nil && *previous == replyID {
		previous = nil
	}
	s.publish(events.AnswerAcceptedEvent{
		PostID:          postID,
		ReplyID:         &replyID,
		ReplyAuthorID:   reply.AuthorID,
		AcceptedBy:      actor.UserID,
		PreviousReplyID: previous,
	})
	return vo.NewAnswerStateVO(post), nil
}

func (s *acceptanceService) AcceptReplyByID(ctx context.Context, actor dto.Actor, replyID uint64) (*vo.AnswerStateVO, error) {
	if err := requireInstructor(actor); err != nil {
		return nil, err
	}
	reply, err := s.replyRepo.GetReplyByID(ctx, replyID)
	if err != nil {
		return nil, notFoundOr(err, "reply", replyID)
	}
	if reply.IsDeleted {
		return nil, myErrors.NotFound("reply", replyID)
	}
	return s.AcceptReply(ctx, actor, reply.PostID, replyID)
}

func (s *acceptanceService) MarkPostAnswered(ctx context.Context, actor dto.Actor, postID uint64, replyID *uint64) (*vo.AnswerStateVO, error) {
	if err := requireInstructor(actor); err != nil {
		return nil, err
	}
	if replyID != nil {
		return s.AcceptReply(ctx, actor, postID, *replyID)
	}

	var post *entities.Post
	err := withConflictRetry(ctx, s.logger, "mark_answered", s.policy.ConflictRetries, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			post, err = s.postRepo.LockPostByID(ctx, tx, postID)
			if err != nil {
				return notFoundOr(err, "post", postID)
			}
			// answered_reply_id 保持原值，已采纳的回复仍然有效
			return s.setAnswered(ctx, tx, post, actor.UserID, time.Now(), nil)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("帖子已标记为已解决", zap.Uint64("postID", postID), zap.String("answeredBy", actor.UserID))
	s.publish(events.AnswerAcceptedEvent{PostID: postID, AcceptedBy: actor.UserID})
	return vo.NewAnswerStateVO(post), nil
}

// setAnswered 以 CAS 写入帖子的答案状态并同步内存中的实体。replyID 为 nil 时不改动 answered_reply_id。
func (s *acceptanceService) setAnswered(ctx context.Context, tx *gorm.DB, post *entities.Post, userID string, at time.Time, replyID *uint64) error {
	fields := map[string]interface{}{
		"is_answered": true,
		"answered_by": userID,
		"answered_at": at,
	}
	if replyID != nil {
		fields["answered_reply_id"] = *replyID
	}
	if err := s.postRepo.UpdatePostFields(ctx, tx, post, fields); err != nil {
		return err
	}

	post.IsAnswered = true
	post.AnsweredBy = &userID
	post.AnsweredAt = &at
	if replyID != nil {
		id := *replyID
		post.AnsweredReplyID = &id
	}
	return nil
}

func (s *acceptanceService) publish(event events.AnswerAcceptedEvent) {
	if s.publisher == nil {
		return
	}
	publishAsync(s.logger, "answer_accepted", func(ctx context.Context) error {
		return s.publisher.PublishAnswerAccepted(ctx, event)
	})
}
