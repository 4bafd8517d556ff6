package dependencies

import (
	"context"
	"fmt"
	"io"

	"github.com/Xushengqwer/go-common/core"

	"github.com/Xushengqwer/discussion_service/config"
)

// StoredMedia 对象存储返回的附件位置。
type StoredMedia struct {
	ObjectKey string
	URL       string
}

// MediaStore 帖子附件的外部存储。调用方负责生成 objectKey。
type MediaStore interface {
	Store(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*StoredMedia, error)
	Delete(ctx context.Context, objectKey string) error
}

// InitMediaStore 按 Provider 选择实现，未配置时返回 (nil, nil)，服务以无附件模式运行。
func InitMediaStore(ctx context.Context, cfg config.MediaConfig, logger *core.ZapLogger) (MediaStore, error) {
	switch cfg.Provider {
	case "":
		logger.Warn("未配置附件存储，帖子附件将被忽略")
		return nil, nil
	case "cos":
		return InitCOS(&cfg.COS, logger)
	case "minio":
		return InitMinIO(ctx, &cfg.MinIO, logger)
	default:
		return nil, fmt.Errorf("未知的附件存储类型: %q", cfg.Provider)
	}
}
