package entities

import "time"

// VoteTargetType 投票对象类型。
type VoteTargetType string

const (
	VoteTargetPost  VoteTargetType = "post"
	VoteTargetReply VoteTargetType = "reply"
)

// VoteTarget 唯一定位一个可投票对象。
type VoteTarget struct {
	Type VoteTargetType
	ID   uint64
}

// VoteDirection 1 为赞同，-1 为反对。
type VoteDirection int8

const (
	VoteUp   VoteDirection = 1
	VoteDown VoteDirection = -1
)

func (d VoteDirection) Valid() bool { return d == VoteUp || d == VoteDown }

// Vote 一条投票记录。(target_type, target_id, voter_id) 唯一，保证同一用户对同一对象只持有一种态度。
// - 表名: votes
type Vote struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	TargetType VoteTargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_target_voter,priority:1"`
	TargetID   uint64         `gorm:"not null;uniqueIndex:idx_votes_target_voter,priority:2"`
	VoterID    string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_votes_target_voter,priority:3"`
	Direction  VoteDirection  `gorm:"type:tinyint;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VoteTally 帖子与回复共用的计票字段，随投票记录在同一事务内重算。
type VoteTally struct {
	UpvoteCount   int64 `gorm:"not null;default:0" json:"upvoteCount"`
	DownvoteCount int64 `gorm:"not null;default:0" json:"downvoteCount"`
	VoteScore     int64 `gorm:"not null;default:0;index" json:"voteScore"`
}

// SetTally 写入计数并同步得分，得分永远等于赞同数减反对数。
func (t *VoteTally) SetTally(up, down int64) {
	t.UpvoteCount = up
	t.DownvoteCount = down
	t.VoteScore = up - down
}

func (t *VoteTally) Tally() VoteTally { return *t }

// Votable 可投票实体，Post 与 Reply 通过嵌入 VoteTally 获得计票能力。
type Votable interface {
	VoteTarget() VoteTarget
	CurrentVersion() uint64
	SetTally(up, down int64)
	Tally() VoteTally
}

var (
	_ Votable = (*Post)(nil)
	_ Votable = (*Reply)(nil)
)
