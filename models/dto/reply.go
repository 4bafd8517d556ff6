package dto

import "github.com/Xushengqwer/discussion_service/constant"

// CreateReplyRequest 发表回复。ParentReplyID 为空表示顶层回复。
type CreateReplyRequest struct {
	Content       string  `json:"content" binding:"max=5000"`
	ParentReplyID *uint64 `json:"parentReplyId" binding:"omitempty,gte=1"`
}

// EditReplyRequest 作者编辑回复内容。
type EditReplyRequest struct {
	Content string `json:"content" binding:"max=5000"`
}

// ListUserRepliesQuery 查询自己发表过的回复。
type ListUserRepliesQuery struct {
	Page     int `form:"page" binding:"omitempty,gte=1"`
	PageSize int `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

func (q *ListUserRepliesQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = constant.DefaultPageSize
	}
	if q.PageSize > constant.MaxPageSize {
		q.PageSize = constant.MaxPageSize
	}
}
