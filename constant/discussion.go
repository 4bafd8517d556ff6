package constant

// 讨论区业务阈值默认值，可被 config.DiscussionPolicy 覆盖。
const (
	MaxReplyDepth      = 5
	MaxPostTags        = 10
	MaxTagLength       = 50
	ConflictRetryTimes = 1

	MaxTitleLength   = 300
	MaxContentLength = 5000

	DefaultCategory = "general"

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PostSort 帖子列表的排序方式。
type PostSort string

const (
	SortLatest     PostSort = "latest"     // created_at 倒序
	SortVotes      PostSort = "votes"      // vote_score 倒序，同分按 created_at 倒序
	SortActivity   PostSort = "activity"   // last_activity 倒序
	SortUnanswered PostSort = "unanswered" // 仅未解决帖子，created_at 倒序
)
