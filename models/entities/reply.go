package entities

import "time"

// Reply 帖子下的回复，可以嵌套在其他回复之下。
// - 表名: replies
// - 删除为软删除（is_deleted），保留记录以便子回复仍能引用父节点。
type Reply struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	PostID        uint64  `gorm:"not null;index:idx_replies_post_parent,priority:1" json:"postId"`
	ParentReplyID *uint64 `gorm:"index:idx_replies_post_parent,priority:2;index" json:"parentReplyId,omitempty"`

	Content  string `gorm:"type:text;not null" json:"content"`
	AuthorID string `gorm:"type:varchar(64);not null;index" json:"authorId"`

	// 0 为顶层回复，子回复为父回复 depth + 1
	Depth int `gorm:"not null;default:0" json:"depth"`

	VoteTally

	IsAcceptedAnswer bool       `gorm:"not null;default:false" json:"isAcceptedAnswer"`
	AcceptedAt       *time.Time `json:"acceptedAt,omitempty"`

	// 创建时作者是否为讲师的快照，之后不再变化
	IsInstructorReply bool `gorm:"not null;default:false" json:"isInstructorReply"`

	IsDeleted bool       `gorm:"not null;default:false;index" json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy *string    `gorm:"type:varchar(64)" json:"deletedBy,omitempty"`

	Version uint64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reply) VoteTarget() VoteTarget {
	return VoteTarget{Type: VoteTargetReply, ID: r.ID}
}

func (r *Reply) CurrentVersion() uint64 { return r.Version }

// IsTopLevel 没有父回复即为顶层回复。
func (r *Reply) IsTopLevel() bool { return r.ParentReplyID == nil }
