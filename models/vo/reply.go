package vo

import (
	"time"

	"github.com/Xushengqwer/discussion_service/models/entities"
)

// ReplyVO 单条回复
type ReplyVO struct {
	ID                uint64     `json:"id"`
	PostID            uint64     `json:"post_id"`
	ParentReplyID     *uint64    `json:"parent_reply_id,omitempty"`
	Content           string     `json:"content"`
	AuthorID          string     `json:"author_id"`
	Depth             int        `json:"depth"`
	UpvoteCount       int64      `json:"upvote_count"`
	DownvoteCount     int64      `json:"downvote_count"`
	VoteScore         int64      `json:"vote_score"`
	IsAcceptedAnswer  bool       `json:"is_accepted_answer"`
	IsInstructorReply bool       `json:"is_instructor_reply"`
	IsDeleted         bool       `json:"is_deleted"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

// ReplyNodeVO 回复树节点，Children 永远不为 nil。
type ReplyNodeVO struct {
	ReplyVO
	Children []*ReplyNodeVO `json:"children"`
}

// UserRepliesPageVO 我的回复分页结果
type UserRepliesPageVO struct {
	Replies    []*ReplyVO   `json:"replies"`
	Pagination PaginationVO `json:"pagination"`
}

func NewReplyVO(reply *entities.Reply) *ReplyVO {
	return &ReplyVO{
		ID:                reply.ID,
		PostID:            reply.PostID,
		ParentReplyID:     reply.ParentReplyID,
		Content:           reply.Content,
		AuthorID:          reply.AuthorID,
		Depth:             reply.Depth,
		UpvoteCount:       reply.UpvoteCount,
		DownvoteCount:     reply.DownvoteCount,
		VoteScore:         reply.VoteScore,
		IsAcceptedAnswer:  reply.IsAcceptedAnswer,
		IsInstructorReply: reply.IsInstructorReply,
		IsDeleted:         reply.IsDeleted,
		CreatedAt:         reply.CreatedAt,
		UpdatedAt:         reply.UpdatedAt,
		DeletedAt:         reply.DeletedAt,
	}
}

// NewTombstoneReplyVO 已删除但仍有可见子回复的占位节点，隐藏内容与作者。
func NewTombstoneReplyVO(reply *entities.Reply) *ReplyVO {
	return &ReplyVO{
		ID:            reply.ID,
		PostID:        reply.PostID,
		ParentReplyID: reply.ParentReplyID,
		Depth:         reply.Depth,
		IsDeleted:     true,
		CreatedAt:     reply.CreatedAt,
		UpdatedAt:     reply.UpdatedAt,
		DeletedAt:     reply.DeletedAt,
	}
}

func MapRepliesToVO(replies []*entities.Reply) []*ReplyVO {
	result := make([]*ReplyVO, 0, len(replies))
	for _, r := range replies {
		result = append(result, NewReplyVO(r))
	}
	return result
}
