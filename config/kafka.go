package config

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers" json:"brokers" yaml:"brokers"`
	Topics          Topics   `mapstructure:"topics" json:"topics" yaml:"topics"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id" json:"consumer_group_id" yaml:"consumer_group_id"`
}

type Topics struct {
	ReplyCreated    string `mapstructure:"replyCreated" yaml:"replyCreated"`       // 新回复通知（邮件/站内信服务消费）
	AnswerAccepted  string `mapstructure:"answerAccepted" yaml:"answerAccepted"`   // 采纳答案通知
	PostDeleted     string `mapstructure:"postDeleted" yaml:"postDeleted"`         // 帖子删除，下游清理索引
	ReplyModeration string `mapstructure:"replyModeration" yaml:"replyModeration"` // 审核服务下发的回复下架指令（本服务消费）
}
