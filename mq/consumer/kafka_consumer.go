package consumer

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/discussion_service/config"
)

const (
	handleTimeout  = 30 * time.Second
	maxHandleTries = 3
)

// MessageHandler 处理单条 Kafka 消息。返回 nil 表示可以提交位点；
// 无法解析或业务上已无意义的消息应返回 nil，避免反复重试。
type MessageHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Consumer 单个 topic 的消费者，处理成功（或重试耗尽）后手动提交位点。
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	logger  *core.ZapLogger
	topic   string
}

func NewConsumer(cfg *appConfig.KafkaConfig, groupID string, topicName string, handler MessageHandler, logger *core.ZapLogger) (*Consumer, error) {
	if topicName == "" {
		return nil, errors.New("kafka topic 名称不能为空")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers 配置不能为空")
	}

	logger.Info("初始化 Kafka 消费者",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topicName),
		zap.String("group_id", groupID))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topicName,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
		topic:   topicName,
	}, nil
}

// Start 阻塞运行直到 ctx 取消或 Reader 关闭。
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("Kafka 消费者已启动", zap.String("topic", c.topic))
	defer c.logger.Info("Kafka 消费者已停止", zap.String("topic", c.topic))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return
			}
			c.logger.Error("读取 Kafka 消息失败", zap.String("topic", c.topic), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		c.handleWithRetry(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("提交 Kafka 位点失败", zap.String("topic", c.topic), zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// handleWithRetry 失败时按 1s、2s 退避重试，重试耗尽后记录并跳过该消息。
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) {
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
		err := c.handler.Handle(handleCtx, msg)
		cancel()
		if err == nil {
			return
		}
		if attempt >= maxHandleTries || ctx.Err() != nil {
			c.logger.Error("处理 Kafka 消息失败，放弃该消息",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.ByteString("key", msg.Key))
			return
		}
		c.logger.Warn("处理 Kafka 消息失败，稍后重试", zap.Error(err), zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("关闭 Kafka Reader 失败", zap.Error(err), zap.String("topic", c.topic))
		return err
	}
	c.logger.Info("Kafka 消费者已关闭", zap.String("topic", c.topic))
	return nil
}
