package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/dependencies"
	"github.com/Xushengqwer/discussion_service/metrics"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/models/events"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/mq/producer"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	"github.com/Xushengqwer/discussion_service/repo/redis"
)

// PostService 帖子聚合：创建、编辑、读取详情（含回复树）、级联删除与投票。
type PostService interface {
	// CreatePost media 可以为 nil；附件上传失败只记录日志，帖子照常创建。
	CreatePost(ctx context.Context, actor dto.Actor, req *dto.CreatePostRequest, media *multipart.FileHeader) (*vo.PostDetailVO, error)

	UpdatePost(ctx context.Context, actor dto.Actor, postID uint64, req *dto.UpdatePostRequest) (*vo.PostDetailVO, error)

	// GetPost 每次读取都会累加浏览量。
	GetPost(ctx context.Context, postID uint64) (*vo.PostDetailVO, error)

	// DeletePost 物理删除帖子、全部回复及其上的投票，提交后清理附件与 Redis 数据。
	DeletePost(ctx context.Context, actor dto.Actor, postID uint64) error

	VotePost(ctx context.Context, actor dto.Actor, postID uint64, direction entities.VoteDirection) (*vo.VoteResultVO, error)
}

type postService struct {
	db           *gorm.DB
	postRepo     mysql.PostRepository
	replyRepo    mysql.ReplyRepository
	voteRepo     mysql.VoteRepository
	tree         ReplyTreeService
	votes        VoteService
	mediaStore   dependencies.MediaStore
	postViewRepo redis.PostViewRepository
	publisher    producer.EventPublisher
	policy       config.DiscussionPolicy
	logger       *core.ZapLogger
}

// PostServiceDeps 构造 PostService 所需的依赖。MediaStore、PostViewRepo 与 Publisher 可以为 nil。
type PostServiceDeps struct {
	DB           *gorm.DB
	PostRepo     mysql.PostRepository
	ReplyRepo    mysql.ReplyRepository
	VoteRepo     mysql.VoteRepository
	Tree         ReplyTreeService
	Votes        VoteService
	MediaStore   dependencies.MediaStore
	PostViewRepo redis.PostViewRepository
	Publisher    producer.EventPublisher
	Policy       config.DiscussionPolicy
	Logger       *core.ZapLogger
}

func NewPostService(deps PostServiceDeps) PostService {
	return &postService{
		db:           deps.DB,
		postRepo:     deps.PostRepo,
		replyRepo:    deps.ReplyRepo,
		voteRepo:     deps.VoteRepo,
		tree:         deps.Tree,
		votes:        deps.Votes,
		mediaStore:   deps.MediaStore,
		postViewRepo: deps.PostViewRepo,
		publisher:    deps.Publisher,
		policy:       deps.Policy.Normalize(),
		logger:       deps.Logger,
	}
}

// generateMediaObjectKey 形如 discussion/media/20250101/{userID}_{uuid}.png
func generateMediaObjectKey(originalFilename, userID string) string {
	datePrefix := time.Now().Format("20060102")
	extension := strings.ToLower(filepath.Ext(originalFilename))
	return fmt.Sprintf("%s%s/%s_%s%s", constant.MediaObjectKeyPrefix, datePrefix, userID, uuid.NewString(), extension)
}

// storeMedia 任何失败都返回 nil，调用方据此跳过附件。
func (s *postService) storeMedia(ctx context.Context, authorID string, fileHeader *multipart.FileHeader) *dependencies.StoredMedia {
	if fileHeader == nil {
		return nil
	}
	if s.mediaStore == nil {
		s.logger.Warn("未配置附件存储，忽略上传的附件", zap.String("filename", fileHeader.Filename))
		return nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("打开附件失败，跳过附件", zap.String("filename", fileHeader.Filename), zap.Error(err))
		return nil
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectKey := generateMediaObjectKey(fileHeader.Filename, authorID)
	stored, err := s.mediaStore.Store(ctx, objectKey, file, fileHeader.Size, contentType)
	if err != nil {
		s.logger.Error("附件上传失败，帖子将不带附件创建", zap.String("objectKey", objectKey), zap.Error(err))
		return nil
	}
	return stored
}

func (s *postService) CreatePost(ctx context.Context, actor dto.Actor, req *dto.CreatePostRequest, media *multipart.FileHeader) (*vo.PostDetailVO, error) {
	if err := requireActor(actor.UserID); err != nil {
		return nil, err
	}
	title, err := normalizeContent("title", req.Title, constant.MaxTitleLength)
	if err != nil {
		return nil, err
	}
	content, err := normalizeContent("content", req.Content, constant.MaxContentLength)
	if err != nil {
		return nil, err
	}

	tags, err := normalizeTags(req.Tags, s.policy.MaxTags)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	post := &entities.Post{
		Title:        title,
		Content:      content,
		Category:     normalizeCategory(req.Category),
		Tags:         tags,
		AuthorID:     actor.UserID,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if stored := s.storeMedia(ctx, actor.UserID, media); stored != nil {
		post.MediaObjectKey = stored.ObjectKey
		post.MediaURL = stored.URL
	}

	if err := s.postRepo.CreatePost(ctx, s.db, post); err != nil {
		s.logger.Error("保存帖子失败", zap.String("authorID", actor.UserID), zap.Error(err))
		if post.MediaObjectKey != "" {
			s.deleteMedia(ctx, post.MediaObjectKey)
		}
		return nil, fmt.Errorf("保存帖子失败: %w", err)
	}

	s.logger.Info("帖子创建成功", zap.Uint64("postID", post.ID), zap.String("authorID", post.AuthorID))
	return newPostDetailVO(post, []*vo.ReplyNodeVO{}), nil
}

func (s *postService) UpdatePost(ctx context.Context, actor dto.Actor, postID uint64, req *dto.UpdatePostRequest) (*vo.PostDetailVO, error) {
	if err := requireActor(actor.UserID); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Title != nil {
		title, err := normalizeContent("title", *req.Title, constant.MaxTitleLength)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if req.Content != nil {
		content, err := normalizeContent("content", *req.Content, constant.MaxContentLength)
		if err != nil {
			return nil, err
		}
		fields["content"] = content
	}
	if req.Category != nil {
		fields["category"] = normalizeCategory(*req.Category)
	}
	if req.Tags != nil {
		tags, err := normalizeTags(*req.Tags, s.policy.MaxTags)
		if err != nil {
			return nil, err
		}
		fields["tags"] = entities.Tags(tags)
	}

	err := withConflictRetry(ctx, s.logger, "update_post", s.policy.ConflictRetries, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			post, err := s.postRepo.LockPostByID(ctx, tx, postID)
			if err != nil {
				return notFoundOr(err, "post", postID)
			}
			if post.AuthorID != actor.UserID {
				return myErrors.Permission("post", "只有作者可以编辑帖子")
			}
			if len(fields) == 0 {
				return nil
			}
			// updateWithVersion 会往 map 里追加 version，重试时使用副本
			attempt := make(map[string]interface{}, len(fields)+1)
			for k, v := range fields {
				attempt[k] = v
			}
			now := time.Now()
			attempt["updated_at"] = now
			if err := s.postRepo.UpdatePostFields(ctx, tx, post, attempt); err != nil {
				return err
			}
			return s.postRepo.TouchLastActivity(ctx, tx, postID, now)
		})
	})
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "post", postID)
	}
	replies, err := s.tree.BuildTree(ctx, postID)
	if err != nil {
		return nil, err
	}
	return newPostDetailVO(post, replies), nil
}

func (s *postService) GetPost(ctx context.Context, postID uint64) (*vo.PostDetailVO, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr(err, "post", postID)
	}

	post.ViewCount = s.bumpViewCount(ctx, post)

	replies, err := s.tree.BuildTree(ctx, postID)
	if err != nil {
		return nil, err
	}
	return newPostDetailVO(post, replies), nil
}

// bumpViewCount 优先走 Redis；Redis 未配置或出错时直接更新 MySQL。两者都失败时返回原值，不影响读取。
func (s *postService) bumpViewCount(ctx context.Context, post *entities.Post) int64 {
	if s.postViewRepo != nil {
		count, err := s.postViewRepo.IncrementViewCount(ctx, post.ID, post.ViewCount)
		if err == nil {
			metrics.ViewBumps.WithLabelValues("redis").Inc()
			return count
		}
		s.logger.Warn("Redis 浏览量累加失败，退回 MySQL", zap.Uint64("postID", post.ID), zap.Error(err))
	}

	count, err := s.postRepo.IncrementViewCount(ctx, post.ID)
	if err != nil {
		s.logger.Error("累加浏览量失败", zap.Uint64("postID", post.ID), zap.Error(err))
		return post.ViewCount
	}
	metrics.ViewBumps.WithLabelValues("mysql").Inc()
	return count
}

func (s *postService) DeletePost(ctx context.Context, actor dto.Actor, postID uint64) error {
	if err := requireActor(actor.UserID); err != nil {
		return err
	}

	var mediaKey string
	var removedReplies int64
	err := withConflictRetry(ctx, s.logger, "delete_post", s.policy.ConflictRetries, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			post, err := s.postRepo.LockPostByID(ctx, tx, postID)
			if err != nil {
				return notFoundOr(err, "post", postID)
			}
			if post.AuthorID != actor.UserID && !actor.Role.IsElevated() {
				return myErrors.Permission("post", "只有作者、讲师或版主可以删除帖子")
			}
			mediaKey = post.MediaObjectKey

			replyIDs, err := s.replyRepo.ListIDsByPostID(ctx, tx, postID)
			if err != nil {
				return err
			}
			if err := s.voteRepo.DeleteVotesByPost(ctx, tx, postID, replyIDs); err != nil {
				return fmt.Errorf("删除帖子投票失败: %w", err)
			}
			if removedReplies, err = s.replyRepo.DeleteRepliesByPostID(ctx, tx, postID); err != nil {
				return fmt.Errorf("删除帖子回复失败: %w", err)
			}
			return s.postRepo.DeletePost(ctx, tx, postID)
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("帖子已删除",
		zap.Uint64("postID", postID),
		zap.String("deletedBy", actor.UserID),
		zap.Int64("replies", removedReplies),
	)

	if mediaKey != "" {
		s.deleteMedia(ctx, mediaKey)
	}
	if s.postViewRepo != nil {
		if err := s.postViewRepo.RemovePost(ctx, postID); err != nil {
			s.logger.Warn("清理帖子 Redis 数据失败", zap.Uint64("postID", postID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		event := events.PostDeletedEvent{PostID: postID, DeletedBy: actor.UserID}
		publishAsync(s.logger, "post_deleted", func(ctx context.Context) error {
			return s.publisher.PublishPostDeleted(ctx, event)
		})
	}
	return nil
}

func (s *postService) deleteMedia(ctx context.Context, objectKey string) {
	if s.mediaStore == nil {
		return
	}
	if err := s.mediaStore.Delete(ctx, objectKey); err != nil {
		s.logger.Error("删除帖子附件失败", zap.String("objectKey", objectKey), zap.Error(err))
	}
}

func (s *postService) VotePost(ctx context.Context, actor dto.Actor, postID uint64, direction entities.VoteDirection) (*vo.VoteResultVO, error) {
	return s.votes.ApplyVote(ctx, entities.VoteTarget{Type: entities.VoteTargetPost, ID: postID}, actor.UserID, direction)
}

func newPostDetailVO(post *entities.Post, replies []*vo.ReplyNodeVO) *vo.PostDetailVO {
	return &vo.PostDetailVO{
		PostResponse: *vo.NewPostResponse(post),
		Content:      post.Content,
		AnswerState:  *vo.NewAnswerStateVO(post),
		Replies:      replies,
	}
}
