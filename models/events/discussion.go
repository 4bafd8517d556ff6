package events

import "time"

// EventMeta 所有事件共有的元数据，由生产者在发送前填充。
type EventMeta struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

// ReplyCreatedEvent 新回复事件，通知服务据此提醒帖子作者与父回复作者。
type ReplyCreatedEvent struct {
	EventMeta
	PostID            uint64  `json:"postId"`
	PostAuthorID      string  `json:"postAuthorId"`
	ReplyID           uint64  `json:"replyId"`
	ParentReplyID     *uint64 `json:"parentReplyId,omitempty"`
	AuthorID          string  `json:"authorId"`
	Depth             int     `json:"depth"`
	IsInstructorReply bool    `json:"isInstructorReply"`
}

// AnswerAcceptedEvent 帖子被标记为已解决。ReplyID 为空表示未指定回复。
type AnswerAcceptedEvent struct {
	EventMeta
	PostID          uint64  `json:"postId"`
	ReplyID         *uint64 `json:"replyId,omitempty"`
	ReplyAuthorID   string  `json:"replyAuthorId,omitempty"`
	AcceptedBy      string  `json:"acceptedBy"`
	PreviousReplyID *uint64 `json:"previousReplyId,omitempty"`
}

// PostDeletedEvent 帖子及其回复已被物理删除。
type PostDeletedEvent struct {
	EventMeta
	PostID    uint64 `json:"postId"`
	DeletedBy string `json:"deletedBy"`
}

// ReplyModerationEvent 审核服务下发的回复下架指令（本服务消费）。
type ReplyModerationEvent struct {
	EventMeta
	ReplyID     uint64 `json:"replyId"`
	ModeratorID string `json:"moderatorId"`
	Reason      string `json:"reason"`
}
