package entities

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Post 讨论区帖子（提问）
// - 表名: posts
// - 作者、投票、浏览、回复数与答案状态都在同一行，删除为物理删除（连带回复与投票）。
type Post struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// 标题，去除首尾空白后不能为空，最长 300 字符
	Title string `gorm:"type:varchar(300);not null" json:"title"`

	// 正文，最长 5000 字符
	Content string `gorm:"type:text;not null" json:"content"`

	// 分类，未填写时为 general
	Category string `gorm:"type:varchar(50);not null;default:general;index" json:"category"`

	// 标签，最多 10 个，入库时以逗号拼接
	Tags Tags `gorm:"type:varchar(1024)" json:"tags"`

	// 附件：对象存储中的 key 与可访问地址，上传失败时为空
	MediaObjectKey string `gorm:"type:varchar(512)" json:"-"`
	MediaURL       string `gorm:"type:varchar(1024)" json:"mediaUrl,omitempty"`

	// 作者ID，创建后不可修改
	AuthorID string `gorm:"type:varchar(64);not null;index" json:"authorId"`

	VoteTally

	// 浏览量，只增不减
	ViewCount int64 `gorm:"not null;default:0" json:"viewCount"`

	// 未删除的回复数量
	ReplyCount int64 `gorm:"not null;default:0" json:"replyCount"`

	// 最近一次回复创建/编辑/投票/删除的时间，单调不减
	LastActivity time.Time `gorm:"not null;index" json:"lastActivity"`

	// 答案状态，只由采纳流程写入
	IsAnswered      bool       `gorm:"not null;default:false;index" json:"isAnswered"`
	AnsweredBy      *string    `gorm:"type:varchar(64)" json:"answeredBy,omitempty"`
	AnsweredAt      *time.Time `json:"answeredAt,omitempty"`
	AnsweredReplyID *uint64    `json:"answeredReplyId,omitempty"`

	// 乐观锁版本号，计票与答案状态写入时做 CAS
	Version uint64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Post) VoteTarget() VoteTarget {
	return VoteTarget{Type: VoteTargetPost, ID: p.ID}
}

func (p *Post) CurrentVersion() uint64 { return p.Version }

// Tags 以逗号分隔的形式存储在单列中，标签本身不含逗号（输入时已按逗号拆分）。
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	return strings.Join(t, ","), nil
}

func (t *Tags) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("无法将 %T 解析为 Tags", value)
	}
	if raw == "" {
		*t = Tags{}
		return nil
	}
	*t = strings.Split(raw, ",")
	return nil
}
