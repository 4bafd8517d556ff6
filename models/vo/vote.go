package vo

import "github.com/Xushengqwer/discussion_service/models/entities"

// VoteResultVO 投票后的计票结果，MyVote 为调用者当前态度：1 赞同，-1 反对，0 未投票。
type VoteResultVO struct {
	TargetType    entities.VoteTargetType `json:"target_type"`
	TargetID      uint64                  `json:"target_id"`
	UpvoteCount   int64                   `json:"upvote_count"`
	DownvoteCount int64                   `json:"downvote_count"`
	VoteScore     int64                   `json:"vote_score"`
	MyVote        int8                    `json:"my_vote"`
}

func NewVoteResultVO(target entities.VoteTarget, tally entities.VoteTally, my entities.VoteDirection) *VoteResultVO {
	return &VoteResultVO{
		TargetType:    target.Type,
		TargetID:      target.ID,
		UpvoteCount:   tally.UpvoteCount,
		DownvoteCount: tally.DownvoteCount,
		VoteScore:     tally.VoteScore,
		MyVote:        int8(my),
	}
}
