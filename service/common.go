package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/metrics"
	"github.com/Xushengqwer/discussion_service/myErrors"
)

const eventPublishTimeout = 5 * time.Second

// withConflictRetry 遇到乐观锁冲突时重新执行 fn，最多额外执行 retries 次。
// fn 必须从头读取最新状态再应用意图，不能复用上一次读到的实体。
func withConflictRetry(ctx context.Context, logger *core.ZapLogger, operation string, retries int, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, myErrors.ErrConflict) || attempt >= retries || ctx.Err() != nil {
			return err
		}
		metrics.ConflictRetries.WithLabelValues(operation).Inc()
		logger.Warn("乐观锁冲突，重新读取后重试", zap.String("operation", operation), zap.Int("attempt", attempt+1), zap.Error(err))
	}
}

// notFoundOr 把仓库层的未找到错误转换为带实体信息的业务错误，其余错误原样包装。
func notFoundOr(err error, entity string, id uint64) error {
	if errors.Is(err, commonerrors.ErrRepoNotFound) {
		return myErrors.NotFound(entity, id)
	}
	var domainErr *myErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("读取 %s(%d) 失败: %w", entity, id, err)
}

// publishAsync 事务提交后异步发送事件，请求上下文可能已结束，因此使用独立的超时上下文。
func publishAsync(logger *core.ZapLogger, event string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			logger.Error("发送领域事件失败", zap.String("event", event), zap.Error(err))
		}
	}()
}

// normalizeContent 去除首尾空白后校验非空与长度。
func normalizeContent(field, raw string, maxLen int) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", myErrors.Validation(field, "不能为空")
	}
	if utf8.RuneCountInString(content) > maxLen {
		return "", myErrors.Validation(field, fmt.Sprintf("长度不能超过 %d 个字符", maxLen))
	}
	return content, nil
}

// normalizeTags 拆分逗号分隔的输入，去掉空白与空标签，超出数量上限的部分截断。
// 单个标签超长直接拒绝，标签以逗号拼接存入 varchar(1024) 列。
func normalizeTags(raw []string, max int) ([]string, error) {
	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			tag := strings.TrimSpace(part)
			if tag == "" {
				continue
			}
			if utf8.RuneCountInString(tag) > constant.MaxTagLength {
				return nil, myErrors.Validation("tags", fmt.Sprintf("单个标签不能超过 %d 个字符", constant.MaxTagLength))
			}
			if len(tags) == max {
				return tags, nil
			}
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func normalizeCategory(raw string) string {
	category := strings.TrimSpace(raw)
	if category == "" {
		return constant.DefaultCategory
	}
	return category
}

func requireActor(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return myErrors.Permission("actor", "缺少用户身份")
	}
	return nil
}
