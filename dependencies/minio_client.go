package dependencies

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/config"
)

const defaultPresignTTL = 24 * time.Hour

type minioStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	presignTTL    time.Duration
	logger        *core.ZapLogger
}

// InitMinIO 连接兼容 S3 协议的对象存储，存储桶不存在时自动创建。
func InitMinIO(ctx context.Context, cfg *config.MinIOConfig, logger *core.ZapLogger) (MediaStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("MinIO 配置不完整，缺少 endpoint 或 bucket")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶 %s 失败: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶 %s 失败: %w", cfg.Bucket, err)
		}
		logger.Info("已创建 MinIO 存储桶", zap.String("bucket", cfg.Bucket))
	}

	ttl := time.Duration(cfg.PresignTTL) * time.Second
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}

	logger.Info("MinIO 客户端初始化成功", zap.String("endpoint", endpoint), zap.String("bucket", cfg.Bucket))
	return &minioStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		presignTTL:    ttl,
		logger:        logger,
	}, nil
}

func (s *minioStore) Store(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*StoredMedia, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("MinIO 附件上传失败", zap.String("对象键", objectKey), zap.Error(err))
		return nil, fmt.Errorf("上传文件 '%s' 到 MinIO 失败: %w", objectKey, err)
	}

	mediaURL, err := s.objectURL(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	return &StoredMedia{ObjectKey: objectKey, URL: mediaURL}, nil
}

func (s *minioStore) objectURL(ctx context.Context, objectKey string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + s.bucket + "/" + strings.TrimPrefix(objectKey, "/"), nil
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成对象 '%s' 的预签名地址失败: %w", objectKey, err)
	}
	return presigned.String(), nil
}

func (s *minioStore) Delete(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error("MinIO 对象删除失败", zap.String("对象键", objectKey), zap.Error(err))
		return fmt.Errorf("从 MinIO 删除对象 '%s' 失败: %w", objectKey, err)
	}
	return nil
}
