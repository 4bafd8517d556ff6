package config

// ViewSyncConfig 控制 Redis 浏览量回写 MySQL 的批处理参数。
type ViewSyncConfig struct {
	// BatchSize 单条 CASE WHEN 更新语句覆盖的帖子数。
	BatchSize int `mapstructure:"batchSize" json:"batchSize" yaml:"batchSize"`

	// ConcurrencyLevel 并发执行更新批次的 worker 数量。
	ConcurrencyLevel int `mapstructure:"concurrencyLevel" json:"concurrencyLevel" yaml:"concurrencyLevel"`

	// ScanBatchSize 传给 SCAN 的 COUNT 提示值，Redis 不保证精确返回该数量。
	ScanBatchSize int64 `mapstructure:"scanBatchSize" json:"scanBatchSize" yaml:"scanBatchSize"`
}
