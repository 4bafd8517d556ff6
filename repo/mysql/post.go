package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
)

// PostRepository 帖子在 MySQL 中的持久化操作。
// 需要参与事务的方法显式接收 db（通常是 tx）。
type PostRepository interface {
	CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error

	// GetPostByID 未找到时返回 commonerrors.ErrRepoNotFound。
	GetPostByID(ctx context.Context, id uint64) (*entities.Post, error)

	// LockPostByID 在事务内加行锁读取帖子，串行化同一帖子上的答案状态与回复计数变更。
	LockPostByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Post, error)

	// UpdatePostFields 基于 post.Version 的 CAS 更新，成功后 post.Version 同步自增。
	UpdatePostFields(ctx context.Context, db *gorm.DB, post *entities.Post, fields map[string]interface{}) error

	// TouchLastActivity 只会把 last_activity 往后推，不会回退。
	TouchLastActivity(ctx context.Context, db *gorm.DB, postID uint64, at time.Time) error

	IncrementReplyCount(ctx context.Context, db *gorm.DB, postID uint64) error

	// DecrementReplyCount 计数不会减到负数。
	DecrementReplyCount(ctx context.Context, db *gorm.DB, postID uint64) error

	// IncrementViewCount 直接在数据库上自增浏览量并返回新值，Redis 不可用时使用。
	IncrementViewCount(ctx context.Context, postID uint64) (int64, error)

	// ListPosts 按排序方式、分类与关键字分页查询，返回当前页与总数。
	ListPosts(ctx context.Context, query *dto.ListPostsQuery) ([]*entities.Post, int64, error)

	// DeletePost 物理删除帖子本身，回复与投票由调用方在同一事务内先行删除。
	DeletePost(ctx context.Context, db *gorm.DB, id uint64) error
}

type postRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

func NewPostRepository(db *gorm.DB, logger *core.ZapLogger) PostRepository {
	return &postRepository{db: db, logger: logger}
}

func (r *postRepository) CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error {
	return normalizeLockError(db.WithContext(ctx).Create(post).Error, "post", post.ID)
}

func (r *postRepository) GetPostByID(ctx context.Context, id uint64) (*entities.Post, error) {
	var post entities.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, normalizeNotFound(err)
	}
	return &post, nil
}

func (r *postRepository) LockPostByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Post, error) {
	var post entities.Post
	if err := db.WithContext(ctx).Clauses(forUpdate).First(&post, id).Error; err != nil {
		return nil, normalizeLockedRead(err, "post", id)
	}
	return &post, nil
}

func (r *postRepository) UpdatePostFields(ctx context.Context, db *gorm.DB, post *entities.Post, fields map[string]interface{}) error {
	if err := updateWithVersion(ctx, db, &entities.Post{}, "post", post.ID, post.Version, fields); err != nil {
		r.logger.Warn("帖子 CAS 更新失败", zap.Uint64("postID", post.ID), zap.Uint64("version", post.Version), zap.Error(err))
		return err
	}
	post.Version++
	return nil
}

func (r *postRepository) TouchLastActivity(ctx context.Context, db *gorm.DB, postID uint64, at time.Time) error {
	err := db.WithContext(ctx).Model(&entities.Post{}).
		Where("id = ? AND last_activity < ?", postID, at).
		UpdateColumn("last_activity", at).Error
	return normalizeLockError(err, "post", postID)
}

func (r *postRepository) IncrementReplyCount(ctx context.Context, db *gorm.DB, postID uint64) error {
	err := db.WithContext(ctx).Model(&entities.Post{}).
		Where("id = ?", postID).
		UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1)).Error
	return normalizeLockError(err, "post", postID)
}

func (r *postRepository) DecrementReplyCount(ctx context.Context, db *gorm.DB, postID uint64) error {
	err := db.WithContext(ctx).Model(&entities.Post{}).
		Where("id = ? AND reply_count > 0", postID).
		UpdateColumn("reply_count", gorm.Expr("reply_count - ?", 1)).Error
	return normalizeLockError(err, "post", postID)
}

func (r *postRepository) IncrementViewCount(ctx context.Context, postID uint64) (int64, error) {
	var viewCount int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Post{}).
			Where("id = ?", postID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&entities.Post{}).Where("id = ?", postID).Pluck("view_count", &viewCount).Error
	})
	if err != nil {
		return 0, normalizeNotFound(err)
	}
	return viewCount, nil
}

func (r *postRepository) ListPosts(ctx context.Context, query *dto.ListPostsQuery) ([]*entities.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&entities.Post{})

	if query.Category != "" {
		base = base.Where("category = ?", query.Category)
	}
	if query.Search != "" {
		like := "%" + query.Search + "%"
		base = base.Where("(title LIKE ? OR content LIKE ? OR tags LIKE ?)", like, like, like)
	}
	if query.SortBy == constant.SortUnanswered {
		base = base.Where("is_answered = ?", false)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		r.logger.Error("统计帖子总数失败", zap.Error(err), zap.Any("query", query))
		return nil, 0, fmt.Errorf("统计帖子总数失败: %w", err)
	}
	if total == 0 {
		return []*entities.Post{}, 0, nil
	}

	var posts []*entities.Post
	err := base.Session(&gorm.Session{}).
		Order(orderClauseFor(query.SortBy)).
		Offset(query.GetOffset()).
		Limit(query.PageSize).
		Find(&posts).Error
	if err != nil {
		r.logger.Error("分页查询帖子失败", zap.Error(err), zap.Any("query", query))
		return nil, 0, fmt.Errorf("分页查询帖子失败: %w", err)
	}
	return posts, total, nil
}

// orderClauseFor 每种排序最后都以 id 收尾，保证同值时结果稳定。
func orderClauseFor(sortBy constant.PostSort) string {
	switch sortBy {
	case constant.SortVotes:
		return "vote_score DESC, created_at DESC, id DESC"
	case constant.SortActivity:
		return "last_activity DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func (r *postRepository) DeletePost(ctx context.Context, db *gorm.DB, id uint64) error {
	result := db.WithContext(ctx).Delete(&entities.Post{}, id)
	if result.Error != nil {
		return normalizeLockError(result.Error, "post", id)
	}
	if result.RowsAffected == 0 {
		return normalizeNotFound(gorm.ErrRecordNotFound)
	}
	return nil
}
