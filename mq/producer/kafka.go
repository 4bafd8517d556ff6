package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/models/events"
)

// EventPublisher 讨论区领域事件的出口，服务层只依赖这个接口。
type EventPublisher interface {
	PublishReplyCreated(ctx context.Context, event events.ReplyCreatedEvent) error
	PublishAnswerAccepted(ctx context.Context, event events.AnswerAcceptedEvent) error
	PublishPostDeleted(ctx context.Context, event events.PostDeletedEvent) error
}

// KafkaProducer 基于 kafka-go Writer 的 EventPublisher 实现。
type KafkaProducer struct {
	writer *kafka.Writer
	logger *core.ZapLogger
	topics config.Topics
}

var _ EventPublisher = (*KafkaProducer)(nil)

func NewKafkaProducer(config config.KafkaConfig, logger *core.ZapLogger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{
		writer: writer,
		logger: logger,
		topics: config.Topics,
	}
}

func newMeta() events.EventMeta {
	return events.EventMeta{EventID: uuid.NewString(), Timestamp: time.Now()}
}

// SendEvent 把事件序列化为 JSON 写入指定主题，key 相同的消息落在同一分区以保持顺序。
func (p *KafkaProducer) SendEvent(ctx context.Context, topic string, key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("序列化事件失败", zap.Error(err), zap.String("topic", topic))
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: eventBytes,
	})
	if err != nil {
		p.logger.Error("写入 Kafka 消息失败", zap.Error(err), zap.String("topic", topic))
		return err
	}
	p.logger.Debug("Kafka 消息发送成功", zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (p *KafkaProducer) PublishReplyCreated(ctx context.Context, event events.ReplyCreatedEvent) error {
	event.EventMeta = newMeta()
	return p.SendEvent(ctx, p.topics.ReplyCreated, postKey(event.PostID), event)
}

func (p *KafkaProducer) PublishAnswerAccepted(ctx context.Context, event events.AnswerAcceptedEvent) error {
	event.EventMeta = newMeta()
	return p.SendEvent(ctx, p.topics.AnswerAccepted, postKey(event.PostID), event)
}

func (p *KafkaProducer) PublishPostDeleted(ctx context.Context, event events.PostDeletedEvent) error {
	event.EventMeta = newMeta()
	return p.SendEvent(ctx, p.topics.PostDeleted, postKey(event.PostID), event)
}

// Close 刷出缓冲中的消息并关闭 Writer。
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

func postKey(postID uint64) string {
	return strconv.FormatUint(postID, 10)
}
