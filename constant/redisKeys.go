package constant

// Redis Key 相关常量
const (
	// PostViewCountPrefix 帖子浏览量计数器前缀，String 类型，值为累计浏览量。
	// 示例: "discussion_view_count:123" -> "58"
	PostViewCountPrefix = "discussion_view_count:"

	// PostsRankKey 全量帖子按浏览量排序的 ZSet，member 为帖子 ID，score 为浏览量。
	PostsRankKey = "discussion_view_rank"

	// HotPostsRankKey 定时任务从 PostsRankKey 截取 Top N 生成的热榜快照。
	HotPostsRankKey = "discussion_hot_rank"

	// PostsHashKey 热榜帖子摘要的 Hash，field 为帖子 ID，value 为 JSON。
	PostsHashKey = "discussion_hot_posts"
)
