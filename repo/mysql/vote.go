package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/models/entities"
)

// VoteRepository 投票记录与目标计票字段的读写。
// 帖子与回复共用同一套实现，通过 VoteTarget.Type 选择目标表。
type VoteRepository interface {
	// LockTarget 在事务内加锁读取投票目标。
	LockTarget(ctx context.Context, db *gorm.DB, target entities.VoteTarget) (entities.Votable, error)
	GetTarget(ctx context.Context, target entities.VoteTarget) (entities.Votable, error)

	// FindVote 返回投票者在目标上的现有投票，没有时返回 (nil, nil)。
	FindVote(ctx context.Context, db *gorm.DB, target entities.VoteTarget, voterID string) (*entities.Vote, error)
	CreateVote(ctx context.Context, db *gorm.DB, vote *entities.Vote) error
	UpdateVoteDirection(ctx context.Context, db *gorm.DB, voteID uint64, direction entities.VoteDirection) error
	DeleteVote(ctx context.Context, db *gorm.DB, voteID uint64) error

	// CountVotes 从投票记录重新统计赞同与反对数量。
	CountVotes(ctx context.Context, db *gorm.DB, target entities.VoteTarget) (up, down int64, err error)

	// SaveTally 以目标的 version 做 CAS 写回计票字段，成功后同步内存中的实体。
	SaveTally(ctx context.Context, db *gorm.DB, target entities.Votable, up, down int64) error

	// DeleteVotesByPost 删除帖子本身及其回复上的全部投票，用于级联删除。
	DeleteVotesByPost(ctx context.Context, db *gorm.DB, postID uint64, replyIDs []uint64) error
}

type voteRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewVoteRepository(db *gorm.DB, logger *core.ZapLogger) VoteRepository {
	return &voteRepository{db: db, logger: logger}
}

func newVotable(targetType entities.VoteTargetType) (entities.Votable, error) {
	switch targetType {
	case entities.VoteTargetPost:
		return &entities.Post{}, nil
	case entities.VoteTargetReply:
		return &entities.Reply{}, nil
	default:
		return nil, fmt.Errorf("未知的投票目标类型: %q", targetType)
	}
}

func (r *voteRepository) loadTarget(ctx context.Context, db *gorm.DB, target entities.VoteTarget) (entities.Votable, error) {
	model, err := newVotable(target.Type)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).First(model, target.ID).Error; err != nil {
		return nil, normalizeLockedRead(err, string(target.Type), target.ID)
	}
	return model, nil
}

func (r *voteRepository) LockTarget(ctx context.Context, db *gorm.DB, target entities.VoteTarget) (entities.Votable, error) {
	return r.loadTarget(ctx, db.Clauses(forUpdate), target)
}

func (r *voteRepository) GetTarget(ctx context.Context, target entities.VoteTarget) (entities.Votable, error) {
	return r.loadTarget(ctx, r.db, target)
}

func (r *voteRepository) FindVote(ctx context.Context, db *gorm.DB, target entities.VoteTarget, voterID string) (*entities.Vote, error) {
	var vote entities.Vote
	err := db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND voter_id = ?", target.Type, target.ID, voterID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) CreateVote(ctx context.Context, db *gorm.DB, vote *entities.Vote) error {
	return normalizeLockError(db.WithContext(ctx).Create(vote).Error, string(vote.TargetType), vote.TargetID)
}

func (r *voteRepository) UpdateVoteDirection(ctx context.Context, db *gorm.DB, voteID uint64, direction entities.VoteDirection) error {
	err := db.WithContext(ctx).Model(&entities.Vote{}).Where("id = ?", voteID).Update("direction", direction).Error
	return normalizeLockError(err, "vote", voteID)
}

func (r *voteRepository) DeleteVote(ctx context.Context, db *gorm.DB, voteID uint64) error {
	return normalizeLockError(db.WithContext(ctx).Delete(&entities.Vote{}, voteID).Error, "vote", voteID)
}

func (r *voteRepository) CountVotes(ctx context.Context, db *gorm.DB, target entities.VoteTarget) (int64, int64, error) {
	var rows []struct {
		Direction entities.VoteDirection
		Total     int64
	}
	err := db.WithContext(ctx).Model(&entities.Vote{}).
		Select("direction, COUNT(*) AS total").
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Group("direction").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	var up, down int64
	for _, row := range rows {
		switch row.Direction {
		case entities.VoteUp:
			up = row.Total
		case entities.VoteDown:
			down = row.Total
		}
	}
	return up, down, nil
}

func (r *voteRepository) SaveTally(ctx context.Context, db *gorm.DB, target entities.Votable, up, down int64) error {
	t := target.VoteTarget()
	model, err := newVotable(t.Type)
	if err != nil {
		return err
	}
	fields := map[string]interface{}{
		"upvote_count":   up,
		"downvote_count": down,
		"vote_score":     up - down,
	}
	if err := updateWithVersion(ctx, db, model, string(t.Type), t.ID, target.CurrentVersion(), fields); err != nil {
		r.logger.Warn("计票 CAS 写回失败", zap.String("targetType", string(t.Type)), zap.Uint64("targetID", t.ID), zap.Error(err))
		return err
	}
	target.SetTally(up, down)
	return nil
}

func (r *voteRepository) DeleteVotesByPost(ctx context.Context, db *gorm.DB, postID uint64, replyIDs []uint64) error {
	if err := db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", entities.VoteTargetPost, postID).
		Delete(&entities.Vote{}).Error; err != nil {
		return normalizeLockError(err, "post", postID)
	}
	if len(replyIDs) == 0 {
		return nil
	}
	err := db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", entities.VoteTargetReply, replyIDs).
		Delete(&entities.Vote{}).Error
	return normalizeLockError(err, "post", postID)
}
