package vo

// 以下包装器仅用于 swag 生成文档，对应 response.APIResponse[T] 的具体形态。

type PostDetailResponseWrapper struct {
	Code    int          `json:"code" example:"0"`
	Message string       `json:"message,omitempty" example:"success"`
	Data    PostDetailVO `json:"data"`
}

type PostListPageResponseWrapper struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message,omitempty" example:"success"`
	Data    PostListPageVO `json:"data"`
}

type ListPostsByCursorResponseWrapper struct {
	Code    int                          `json:"code" example:"0"`
	Message string                       `json:"message,omitempty" example:"success"`
	Data    ListHotPostsByCursorResponse `json:"data"`
}

type ReplyResponseWrapper struct {
	Code    int     `json:"code" example:"0"`
	Message string  `json:"message,omitempty" example:"success"`
	Data    ReplyVO `json:"data"`
}

type ReplyListResponseWrapper struct {
	Code    int        `json:"code" example:"0"`
	Message string     `json:"message,omitempty" example:"success"`
	Data    []*ReplyVO `json:"data"`
}

type UserRepliesPageResponseWrapper struct {
	Code    int               `json:"code" example:"0"`
	Message string            `json:"message,omitempty" example:"success"`
	Data    UserRepliesPageVO `json:"data"`
}

type VoteResultResponseWrapper struct {
	Code    int          `json:"code" example:"0"`
	Message string       `json:"message,omitempty" example:"success"`
	Data    VoteResultVO `json:"data"`
}

type AnswerStateResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message,omitempty" example:"success"`
	Data    AnswerStateVO `json:"data"`
}

// BaseResponseWrapper 错误响应或无数据的成功响应（如删除）。
type BaseResponseWrapper struct {
	Code    int    `json:"code" example:"0"`
	Message string `json:"message" example:"success"`
}
