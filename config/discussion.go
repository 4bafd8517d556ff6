package config

import "github.com/Xushengqwer/discussion_service/constant"

// DiscussionPolicy 汇总讨论区的业务阈值。零值字段在 Normalize 时回落到 constant 包中的默认值。
type DiscussionPolicy struct {
	// MaxReplyDepth 回复允许的最大嵌套层级，顶层回复的 depth 为 0。
	MaxReplyDepth int `mapstructure:"maxReplyDepth" json:"maxReplyDepth" yaml:"maxReplyDepth"`
	// MaxTags 帖子标签数量上限，超出部分直接截断。
	MaxTags int `mapstructure:"maxTags" json:"maxTags" yaml:"maxTags"`
	// ConflictRetries 乐观锁冲突后重新读取并重放的次数。
	ConflictRetries int `mapstructure:"conflictRetries" json:"conflictRetries" yaml:"conflictRetries"`
}

// Normalize 返回补齐默认值后的副本。
func (p DiscussionPolicy) Normalize() DiscussionPolicy {
	if p.MaxReplyDepth <= 0 {
		p.MaxReplyDepth = constant.MaxReplyDepth
	}
	if p.MaxTags <= 0 {
		p.MaxTags = constant.MaxPostTags
	}
	if p.ConflictRetries <= 0 {
		p.ConflictRetries = constant.ConflictRetryTimes
	}
	return p
}
