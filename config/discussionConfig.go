package config

import "github.com/Xushengqwer/go-common/config"

// DiscussionConfig 是整个讨论服务的配置根节点，由 core.LoadConfig 从 yaml 加载。
type DiscussionConfig struct {
	ZapConfig        config.ZapConfig     `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	GormLogConfig    config.GormLogConfig `mapstructure:"gormLogConfig" json:"gormLogConfig" yaml:"gormLogConfig"`
	ServerConfig     config.ServerConfig  `mapstructure:"serverConfig" json:"serverConfig" yaml:"serverConfig"`
	TracerConfig     config.TracerConfig  `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	ViewSyncConfig   ViewSyncConfig       `mapstructure:"viewSyncConfig" json:"viewSyncConfig" yaml:"viewSyncConfig"`
	DiscussionPolicy DiscussionPolicy     `mapstructure:"discussionPolicy" json:"discussionPolicy" yaml:"discussionPolicy"`
	CORSConfig       CORSConfig           `mapstructure:"corsConfig" json:"corsConfig" yaml:"corsConfig"`
	MySQLConfig      MySQLConfig          `mapstructure:"mysqlConfig" json:"mysqlConfig" yaml:"mysqlConfig"`
	RedisConfig      RedisConfig          `mapstructure:"redisConfig" json:"redisConfig" yaml:"redisConfig"`
	KafkaConfig      KafkaConfig          `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`
	MediaConfig      MediaConfig          `mapstructure:"mediaConfig" json:"mediaConfig" yaml:"mediaConfig"`
}

// CORSConfig 控制浏览器跨域访问，AllowOrigins 为空时只放行同源请求。
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allowOrigins" json:"allowOrigins" yaml:"allowOrigins"`
}
