package vo

import (
	"time"

	"github.com/Xushengqwer/discussion_service/models/entities"
)

// PostResponse 帖子列表项
type PostResponse struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	MediaURL      string    `json:"media_url,omitempty"`
	AuthorID      string    `json:"author_id"`
	UpvoteCount   int64     `json:"upvote_count"`
	DownvoteCount int64     `json:"downvote_count"`
	VoteScore     int64     `json:"vote_score"`
	ViewCount     int64     `json:"view_count"`
	ReplyCount    int64     `json:"reply_count"`
	IsAnswered    bool      `json:"is_answered"`
	LastActivity  time.Time `json:"last_activity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AnswerStateVO 帖子的答案状态，采纳/标记已解决接口返回。
type AnswerStateVO struct {
	PostID          uint64     `json:"post_id"`
	IsAnswered      bool       `json:"is_answered"`
	AnsweredBy      *string    `json:"answered_by,omitempty"`
	AnsweredAt      *time.Time `json:"answered_at,omitempty"`
	AcceptedReplyID *uint64    `json:"accepted_reply_id,omitempty"`
}

// PostDetailVO 帖子详情，附带完整回复树。
type PostDetailVO struct {
	PostResponse
	Content     string         `json:"content"`
	AnswerState AnswerStateVO  `json:"answer_state"`
	Replies     []*ReplyNodeVO `json:"replies"`
}

// PaginationVO 页码分页信息
type PaginationVO struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPaginationVO 根据总数计算页码信息。
func NewPaginationVO(page, pageSize int, total int64) PaginationVO {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationVO{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// PostListPageVO 帖子列表分页结果
type PostListPageVO struct {
	Posts      []*PostResponse `json:"posts"`
	Pagination PaginationVO    `json:"pagination"`
}

// ListHotPostsByCursorResponse 热榜游标分页结果
type ListHotPostsByCursorResponse struct {
	Posts      []*PostResponse `json:"posts"`
	NextCursor *uint64         `json:"next_cursor"` // nil 表示没有更多数据
}

func NewPostResponse(post *entities.Post) *PostResponse {
	tags := []string(post.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &PostResponse{
		ID:            post.ID,
		Title:         post.Title,
		Category:      post.Category,
		Tags:          tags,
		MediaURL:      post.MediaURL,
		AuthorID:      post.AuthorID,
		UpvoteCount:   post.UpvoteCount,
		DownvoteCount: post.DownvoteCount,
		VoteScore:     post.VoteScore,
		ViewCount:     post.ViewCount,
		ReplyCount:    post.ReplyCount,
		IsAnswered:    post.IsAnswered,
		LastActivity:  post.LastActivity,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
}

func NewAnswerStateVO(post *entities.Post) *AnswerStateVO {
	return &AnswerStateVO{
		PostID:          post.ID,
		IsAnswered:      post.IsAnswered,
		AnsweredBy:      post.AnsweredBy,
		AnsweredAt:      post.AnsweredAt,
		AcceptedReplyID: post.AnsweredReplyID,
	}
}

// MapPostsToPostResponsesVO 实体列表转列表项，空输入返回空切片便于前端处理。
func MapPostsToPostResponsesVO(posts []*entities.Post) []*PostResponse {
	responses := make([]*PostResponse, 0, len(posts))
	for _, post := range posts {
		if post == nil {
			continue
		}
		responses = append(responses, NewPostResponse(post))
	}
	return responses
}
