package testutils

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	commonConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Xushengqwer/discussion_service/models/entities"
)

var dbSeq atomic.Int64

// SetupTestDB 每个测试一个独立的内存 SQLite 库。
// 只开一个连接：事务之间天然串行，事务内部必须使用 tx 访问数据库，否则会死锁。
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:discussion_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(entities.Models()...))
	return db
}

// SetupTestRedis 启动 miniredis 并返回连接到它的客户端。
func SetupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// NewTestLogger 只输出 error 及以上级别，测试中的预期失败日志写到 stderr。
func NewTestLogger() *core.ZapLogger {
	logger, err := core.NewZapLogger(commonConfig.ZapConfig{Level: "error", Encoding: "console"})
	if err != nil {
		panic(err)
	}
	return logger
}

// CreateTestPost 直接写库，绕过服务层校验。
func CreateTestPost(t *testing.T, db *gorm.DB, authorID string, mutate ...func(*entities.Post)) *entities.Post {
	t.Helper()
	now := time.Now()
	post := &entities.Post{
		Title:        "How does the reply tree work?",
		Content:      "Looking for an explanation of nested replies.",
		Category:     "general",
		Tags:         entities.Tags{"go"},
		AuthorID:     authorID,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, m := range mutate {
		m(post)
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateTestReply parent 为 nil 时创建顶层回复，depth 按父回复推导。
func CreateTestReply(t *testing.T, db *gorm.DB, postID uint64, parent *entities.Reply, authorID string, mutate ...func(*entities.Reply)) *entities.Reply {
	t.Helper()
	now := time.Now()
	reply := &entities.Reply{
		PostID:    postID,
		Content:   "reply from " + authorID,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parent != nil {
		parentID := parent.ID
		reply.ParentReplyID = &parentID
		reply.Depth = parent.Depth + 1
	}
	for _, m := range mutate {
		m(reply)
	}
	require.NoError(t, db.Create(reply).Error)
	return reply
}
