package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/events"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/service"
)

// ReplyModerationHandler 消费审核服务下发的回复下架指令，以版主身份软删除回复。
type ReplyModerationHandler struct {
	logger       *core.ZapLogger
	replyService service.ReplyService
}

func NewReplyModerationHandler(logger *core.ZapLogger, replyService service.ReplyService) *ReplyModerationHandler {
	return &ReplyModerationHandler{logger: logger, replyService: replyService}
}

func (h *ReplyModerationHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ReplyModerationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("反序列化回复下架消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil
	}
	if event.ReplyID == 0 || event.ModeratorID == "" {
		h.logger.Warn("回复下架消息缺少必要字段，忽略", zap.String("event_id", event.EventID))
		return nil
	}

	moderator := dto.Actor{UserID: event.ModeratorID, Role: constant.RoleModerator}
	err := h.replyService.SoftDeleteReply(ctx, moderator, event.ReplyID)
	if err != nil {
		// 回复不存在或已被删除，指令已无意义
		if errors.Is(err, myErrors.ErrNotFound) {
			h.logger.Info("待下架的回复不存在或已删除", zap.Uint64("reply_id", event.ReplyID))
			return nil
		}
		return fmt.Errorf("下架回复 %d 失败: %w", event.ReplyID, err)
	}

	h.logger.Info("回复已按审核指令下架",
		zap.String("event_id", event.EventID),
		zap.Uint64("reply_id", event.ReplyID),
		zap.String("moderator_id", event.ModeratorID),
		zap.String("reason", event.Reason))
	return nil
}
