package constant

// 服务标识，用于 tracing 资源属性与 otelgin span 名称。
const (
	ServiceName    = "discussion_service"
	ServiceVersion = "1.0.0"
)

// 定时任务调度表达式 (robfig/cron 语法)。
const (
	SyncViewCountInterval = "@every 1m"
	HotPostsCacheCronSpec = "@every 5m"
	// HotPostsCacheSize 热榜快照保留的帖子数量。
	HotPostsCacheSize = 100
)

// MediaObjectKeyPrefix 帖子附件在对象存储中的目录前缀。
const MediaObjectKeyPrefix = "discussion/media/"
