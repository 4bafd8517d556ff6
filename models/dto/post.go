package dto

import "github.com/Xushengqwer/discussion_service/constant"

// CreatePostRequest 创建帖子的表单字段（multipart/form-data，附件字段名为 media）。
// 标题与正文的非空校验放在服务层，以便返回带字段名的校验错误。
type CreatePostRequest struct {
	Title    string `json:"title" form:"title" binding:"max=300"`
	Content  string `json:"content" form:"content" binding:"max=5000"`
	Category string `json:"category" form:"category" binding:"omitempty,max=50"`
	// Tags 可以重复提交多个 tags 字段，也可以提交一个逗号分隔的字符串
	Tags []string `json:"tags" form:"tags"`
}

// UpdatePostRequest 作者编辑帖子，nil 字段保持不变。
type UpdatePostRequest struct {
	Title    *string   `json:"title" binding:"omitempty,max=300"`
	Content  *string   `json:"content" binding:"omitempty,max=5000"`
	Category *string   `json:"category" binding:"omitempty,max=50"`
	Tags     *[]string `json:"tags"`
}

// ListPostsQuery 帖子列表查询参数。
type ListPostsQuery struct {
	Page     int               `form:"page" binding:"omitempty,gte=1"`
	PageSize int               `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
	SortBy   constant.PostSort `form:"sortBy" binding:"omitempty,oneof=latest votes activity unanswered"`
	Category string            `form:"category" binding:"omitempty,max=50"`
	Search   string            `form:"search" binding:"omitempty,max=100"`
}

// Normalize 补齐分页与排序默认值。
func (q *ListPostsQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = constant.DefaultPageSize
	}
	if q.PageSize > constant.MaxPageSize {
		q.PageSize = constant.MaxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = constant.SortLatest
	}
}

// GetOffset (page - 1) * pageSize
func (q *ListPostsQuery) GetOffset() int {
	return (q.Page - 1) * q.PageSize
}

// MarkAnsweredRequest 讲师标记帖子已解决，ReplyID 为空时只设置帖子状态。
type MarkAnsweredRequest struct {
	ReplyID *uint64 `json:"replyId" binding:"omitempty,gte=1"`
}

// HotPostsQuery 热榜游标查询参数。
type HotPostsQuery struct {
	LastPostID *uint64 `form:"lastPostId" binding:"omitempty,gte=1"`
	Limit      int     `form:"limit" binding:"required,gte=1,lte=100"`
}
