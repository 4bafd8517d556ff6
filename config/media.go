package config

// MediaConfig 选择帖子附件的对象存储实现。
// Provider 取值 "cos" 或 "minio"，为空表示不启用附件上传。
type MediaConfig struct {
	Provider string      `mapstructure:"provider" json:"provider" yaml:"provider"`
	COS      COSConfig   `mapstructure:"cos" json:"cos" yaml:"cos"`
	MinIO    MinIOConfig `mapstructure:"minio" json:"minio" yaml:"minio"`
}

// COSConfig 腾讯云 COS 存储桶配置。
type COSConfig struct {
	SecretID   string `mapstructure:"secretId" json:"-" yaml:"secretId"`
	SecretKey  string `mapstructure:"secretKey" json:"-" yaml:"secretKey"`
	BucketName string `mapstructure:"bucketName" json:"bucketName" yaml:"bucketName"`
	AppID      string `mapstructure:"appId" json:"appId" yaml:"appId"`
	Region     string `mapstructure:"region" json:"region" yaml:"region"`
	// BaseURL 公共访问域名（CDN 或自定义域名），为空时使用存储桶默认域名。
	BaseURL string `mapstructure:"baseUrl" json:"baseUrl" yaml:"baseUrl"`
}

// MinIOConfig 兼容 S3 协议的自建存储配置。
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"accessKey" json:"-" yaml:"accessKey"`
	SecretKey string `mapstructure:"secretKey" json:"-" yaml:"secretKey"`
	UseSSL    bool   `mapstructure:"useSSL" json:"useSSL" yaml:"useSSL"`
	Bucket    string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	// PublicBaseURL 对外访问前缀，为空时返回预签名下载地址。
	PublicBaseURL string `mapstructure:"publicBaseUrl" json:"publicBaseUrl" yaml:"publicBaseUrl"`
	// PresignTTL 预签名地址有效期（秒）。
	PresignTTL int `mapstructure:"presignTtl" json:"presignTtl" yaml:"presignTtl"`
}
