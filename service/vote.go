package service

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/metrics"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
)

// VoteService 帖子与回复共用的投票账本。
type VoteService interface {
	// ApplyVote 切换投票者在目标上的态度：同向再投为撤销，反向为改投，否则新增。
	// 计数在同一事务内从投票记录重算，得分始终等于赞同数减反对数。
	ApplyVote(ctx context.Context, target entities.VoteTarget, voterID string, direction entities.VoteDirection) (*vo.VoteResultVO, error)

	// GetVoteState 返回目标当前的计票与投票者自己的态度，不做修改。
	GetVoteState(ctx context.Context, target entities.VoteTarget, voterID string) (*vo.VoteResultVO, error)
}

type voteService struct {
	db       *gorm.DB
	voteRepo mysql.VoteRepository
	postRepo mysql.PostRepository
	policy   config.DiscussionPolicy
	logger   *core.ZapLogger
}

func NewVoteService(db *gorm.DB, voteRepo mysql.VoteRepository, postRepo mysql.PostRepository, policy config.DiscussionPolicy, logger *core.ZapLogger) VoteService {
	return &voteService{
		db:       db,
		voteRepo: voteRepo,
		postRepo: postRepo,
		policy:   policy.Normalize(),
		logger:   logger,
	}
}

// owningPostID 不加锁读取目标所属的帖子，供事务内先锁帖子再锁回复。
func (s *voteService) owningPostID(ctx context.Context, target entities.VoteTarget) (uint64, error) {
	if target.Type != entities.VoteTargetReply {
		return target.ID, nil
	}
	votable, err := s.voteRepo.GetTarget(ctx, target)
	if err != nil {
		return 0, notFoundOr(err, string(target.Type), target.ID)
	}
	return votable.(*entities.Reply).PostID, nil
}

// lockTarget 加锁顺序固定为帖子在前、回复在后，与回复的创建、编辑、删除及采纳一致。
func (s *voteService) lockTarget(ctx context.Context, tx *gorm.DB, target entities.VoteTarget, postID uint64) (entities.Votable, error) {
	if target.Type == entities.VoteTargetReply {
		if _, err := s.postRepo.LockPostByID(ctx, tx, postID); err != nil {
			// 帖子删除时回复一并删除
			return nil, notFoundOr(err, string(target.Type), target.ID)
		}
	}
	votable, err := s.voteRepo.LockTarget(ctx, tx, target)
	if err != nil {
		return nil, notFoundOr(err, string(target.Type), target.ID)
	}
	if err := checkTarget(target, votable); err != nil {
		return nil, err
	}
	if reply, ok := votable.(*entities.Reply); ok && reply.PostID != postID {
		return nil, myErrors.Conflict(string(target.Type), target.ID)
	}
	return votable, nil
}

// checkTarget 已软删除的回复不接受投票，也不对外暴露计票。
func checkTarget(target entities.VoteTarget, votable entities.Votable) error {
	if reply, ok := votable.(*entities.Reply); ok && reply.IsDeleted {
		return myErrors.NotFound(string(target.Type), target.ID)
	}
	return nil
}

func (s *voteService) ApplyVote(ctx context.Context, target entities.VoteTarget, voterID string, direction entities.VoteDirection) (*vo.VoteResultVO, error) {
	if err := requireActor(voterID); err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, myErrors.Validation("direction", "只能是 up 或 down")
	}

	var (
		result  *vo.VoteResultVO
		outcome string
	)
	err := withConflictRetry(ctx, s.logger, "vote", s.policy.ConflictRetries, func() error {
		postID, err := s.owningPostID(ctx, target)
		if err != nil {
			return err
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			votable, err := s.lockTarget(ctx, tx, target, postID)
			if err != nil {
				return err
			}

			existing, err := s.voteRepo.FindVote(ctx, tx, target, voterID)
			if err != nil {
				return err
			}

			var mine entities.VoteDirection
			switch {
			case existing == nil:
				err = s.voteRepo.CreateVote(ctx, tx, &entities.Vote{
					TargetType: target.Type,
					TargetID:   target.ID,
					VoterID:    voterID,
					Direction:  direction,
				})
				mine, outcome = direction, "added"
			case existing.Direction == direction:
				err = s.voteRepo.DeleteVote(ctx, tx, existing.ID)
				mine, outcome = 0, "retracted"
			default:
				err = s.voteRepo.UpdateVoteDirection(ctx, tx, existing.ID, direction)
				mine, outcome = direction, "flipped"
			}
			if err != nil {
				return err
			}

			up, down, err := s.voteRepo.CountVotes(ctx, tx, target)
			if err != nil {
				return err
			}
			if err := s.voteRepo.SaveTally(ctx, tx, votable, up, down); err != nil {
				return err
			}

			if err := s.postRepo.TouchLastActivity(ctx, tx, postID, time.Now()); err != nil {
				return err
			}

			result = vo.NewVoteResultVO(target, votable.Tally(), mine)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.VotesApplied.WithLabelValues(string(target.Type), outcome).Inc()
	s.logger.Debug("投票已生效",
		zap.String("targetType", string(target.Type)),
		zap.Uint64("targetID", target.ID),
		zap.String("voterID", voterID),
		zap.String("outcome", outcome),
		zap.Int64("voteScore", result.VoteScore),
	)
	return result, nil
}

func (s *voteService) GetVoteState(ctx context.Context, target entities.VoteTarget, voterID string) (*vo.VoteResultVO, error) {
	votable, err := s.voteRepo.GetTarget(ctx, target)
	if err != nil {
		return nil, notFoundOr(err, string(target.Type), target.ID)
	}
	if err := checkTarget(target, votable); err != nil {
		return nil, err
	}

	var mine entities.VoteDirection
	if voterID != "" {
		existing, err := s.voteRepo.FindVote(ctx, s.db, target, voterID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			mine = existing.Direction
		}
	}
	return vo.NewVoteResultVO(target, votable.Tally(), mine), nil
}
