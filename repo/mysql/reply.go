package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/models/entities"
)

// ReplyRepository 回复的持久化操作。列表类查询只返回未删除的回复，
// ListAllByPostID 例外，它给回复树构建提供包含已删除节点的全量数据。
type ReplyRepository interface {
	CreateReply(ctx context.Context, db *gorm.DB, reply *entities.Reply) error

	// GetReplyByID 包含已软删除的回复，未找到返回 commonerrors.ErrRepoNotFound。
	GetReplyByID(ctx context.Context, id uint64) (*entities.Reply, error)

	LockReplyByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Reply, error)

	// UpdateReplyFields 基于 reply.Version 的 CAS 更新，成功后 reply.Version 同步自增。
	UpdateReplyFields(ctx context.Context, db *gorm.DB, reply *entities.Reply, fields map[string]interface{}) error

	// ListTopLevel 顶层回复：vote_score 倒序，created_at 正序，id 正序。
	ListTopLevel(ctx context.Context, postID uint64) ([]*entities.Reply, error)

	// ListChildren 直接子回复：created_at 正序，id 正序。
	ListChildren(ctx context.Context, parentReplyID uint64) ([]*entities.Reply, error)

	ListAllByPostID(ctx context.Context, postID uint64) ([]*entities.Reply, error)

	// ListByAuthor 作者的未删除回复，created_at 倒序分页。
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*entities.Reply, int64, error)

	// ClearAcceptedExcept 取消帖子下除 keepReplyID 以外所有回复的采纳标记，返回被取消的回复 ID。
	ClearAcceptedExcept(ctx context.Context, db *gorm.DB, postID, keepReplyID uint64) ([]uint64, error)

	CountAccepted(ctx context.Context, postID uint64) (int64, error)

	ListIDsByPostID(ctx context.Context, db *gorm.DB, postID uint64) ([]uint64, error)

	// DeleteRepliesByPostID 物理删除帖子下的全部回复，仅用于帖子级联删除。
	DeleteRepliesByPostID(ctx context.Context, db *gorm.DB, postID uint64) (int64, error)
}

type replyRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewReplyRepository(db *gorm.DB, logger *core.ZapLogger) ReplyRepository {
	return &replyRepository{db: db, logger: logger}
}

func (r *replyRepository) CreateReply(ctx context.Context, db *gorm.DB, reply *entities.Reply) error {
	return normalizeLockError(db.WithContext(ctx).Create(reply).Error, "reply", reply.ID)
}

func (r *replyRepository) GetReplyByID(ctx context.Context, id uint64) (*entities.Reply, error) {
	var reply entities.Reply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		return nil, normalizeNotFound(err)
	}
	return &reply, nil
}

func (r *replyRepository) LockReplyByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Reply, error) {
	var reply entities.Reply
	if err := db.WithContext(ctx).Clauses(forUpdate).First(&reply, id).Error; err != nil {
		return nil, normalizeLockedRead(err, "reply", id)
	}
	return &reply, nil
}

func (r *replyRepository) UpdateReplyFields(ctx context.Context, db *gorm.DB, reply *entities.Reply, fields map[string]interface{}) error {
	if err := updateWithVersion(ctx, db, &entities.Reply{}, "reply", reply.ID, reply.Version, fields); err != nil {
		r.logger.Warn("回复 CAS 更新失败", zap.Uint64("replyID", reply.ID), zap.Uint64("version", reply.Version), zap.Error(err))
		return err
	}
	reply.Version++
	return nil
}

func (r *replyRepository) ListTopLevel(ctx context.Context, postID uint64) ([]*entities.Reply, error) {
	var replies []*entities.Reply
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND parent_reply_id IS NULL AND is_deleted = ?", postID, false).
		Order("vote_score DESC, created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("查询顶层回复失败 (postID: %d): %w", postID, err)
	}
	return replies, nil
}

func (r *replyRepository) ListChildren(ctx context.Context, parentReplyID uint64) ([]*entities.Reply, error) {
	var replies []*entities.Reply
	err := r.db.WithContext(ctx).
		Where("parent_reply_id = ? AND is_deleted = ?", parentReplyID, false).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("查询子回复失败 (parentReplyID: %d): %w", parentReplyID, err)
	}
	return replies, nil
}

func (r *replyRepository) ListAllByPostID(ctx context.Context, postID uint64) ([]*entities.Reply, error) {
	var replies []*entities.Reply
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Find(&replies).Error; err != nil {
		return nil, fmt.Errorf("查询帖子全部回复失败 (postID: %d): %w", postID, err)
	}
	return replies, nil
}

func (r *replyRepository) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*entities.Reply, int64, error) {
	base := r.db.WithContext(ctx).Model(&entities.Reply{}).
		Where("author_id = ? AND is_deleted = ?", authorID, false)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计用户回复失败: %w", err)
	}
	replies := make([]*entities.Reply, 0)
	if total == 0 {
		return replies, 0, nil
	}
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&replies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("分页查询用户回复失败: %w", err)
	}
	return replies, total, nil
}

func (r *replyRepository) ClearAcceptedExcept(ctx context.Context, db *gorm.DB, postID, keepReplyID uint64) ([]uint64, error) {
	var ids []uint64
	err := db.WithContext(ctx).Model(&entities.Reply{}).
		Where("post_id = ? AND is_accepted_answer = ? AND id <> ?", postID, true, keepReplyID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	err = db.WithContext(ctx).Model(&entities.Reply{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_accepted_answer": false,
			"accepted_at":        nil,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         time.Now(),
		}).Error
	if err != nil {
		return nil, normalizeLockError(err, "post", postID)
	}
	return ids, nil
}

func (r *replyRepository) CountAccepted(ctx context.Context, postID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Reply{}).
		Where("post_id = ? AND is_accepted_answer = ?", postID, true).
		Count(&count).Error
	return count, err
}

func (r *replyRepository) ListIDsByPostID(ctx context.Context, db *gorm.DB, postID uint64) ([]uint64, error) {
	var ids []uint64
	err := db.WithContext(ctx).Model(&entities.Reply{}).Where("post_id = ?", postID).Pluck("id", &ids).Error
	return ids, err
}

func (r *replyRepository) DeleteRepliesByPostID(ctx context.Context, db *gorm.DB, postID uint64) (int64, error) {
	result := db.WithContext(ctx).Where("post_id = ?", postID).Delete(&entities.Reply{})
	return result.RowsAffected, normalizeLockError(result.Error, "post", postID)
}
