package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/discussion_service/config"
	"github.com/Xushengqwer/discussion_service/dependencies"
	"github.com/Xushengqwer/discussion_service/mq/producer"
	"github.com/Xushengqwer/discussion_service/repo/mysql"
	"github.com/Xushengqwer/discussion_service/service"
)

func main() {
	var (
		configFile  string
		numPosts    int
		waitSeconds int
	)
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "配置文件路径")
	flag.IntVar(&numPosts, "n", 50, "要生成的帖子数量")
	flag.IntVar(&waitSeconds, "wait", 5, "填充结束后等待异步事件发送的秒数")
	flag.Parse()

	if numPosts <= 0 {
		fmt.Println("错误: 生成的帖子数量必须大于 0")
		os.Exit(1)
	}

	absConfigFile, err := filepath.Abs(configFile)
	if err != nil {
		absConfigFile = configFile
	}

	var cfg appConfig.DiscussionConfig
	if err := core.LoadConfig(absConfigFile, &cfg); err != nil {
		fmt.Printf("加载配置失败 (%s): %v\n", absConfigFile, err)
		os.Exit(1)
	}

	logger, err := core.NewZapLogger(cfg.ZapConfig)
	if err != nil {
		fmt.Printf("初始化 ZapLogger 失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Logger().Sync() }()

	// InitMySQL 内部完成 AutoMigrate
	db, err := dependencies.InitMySQL(&cfg, logger)
	if err != nil {
		logger.Fatal("初始化 MySQL 失败 (Seeder)", zap.Error(err))
	}

	var publisher producer.EventPublisher
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer := producer.NewKafkaProducer(cfg.KafkaConfig, logger)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
	}

	policy := cfg.DiscussionPolicy.Normalize()
	postRepo := mysql.NewPostRepository(db, logger)
	replyRepo := mysql.NewReplyRepository(db, logger)
	voteRepo := mysql.NewVoteRepository(db, logger)

	votes := service.NewVoteService(db, voteRepo, postRepo, policy, logger)
	svc := seedServices{
		posts: service.NewPostService(service.PostServiceDeps{
			DB:        db,
			PostRepo:  postRepo,
			ReplyRepo: replyRepo,
			VoteRepo:  voteRepo,
			Tree:      service.NewReplyTreeService(postRepo, replyRepo, policy, logger),
			Votes:     votes,
			Publisher: publisher,
			Policy:    policy,
			Logger:    logger,
		}),
		replies:    service.NewReplyService(db, postRepo, replyRepo, votes, publisher, policy, logger),
		acceptance: service.NewAcceptanceService(db, postRepo, replyRepo, publisher, policy, logger),
		maxDepth:   policy.MaxReplyDepth,
	}

	startTime := time.Now()
	stats := Seed(context.Background(), svc, logger, numPosts)
	logger.Info("数据填充完成",
		zap.Int("posts", stats.posts),
		zap.Int("replies", stats.replies),
		zap.Int("votes", stats.votes),
		zap.Int("accepted", stats.accepted),
		zap.Duration("耗时", time.Since(startTime)))

	if publisher != nil && waitSeconds > 0 {
		time.Sleep(time.Duration(waitSeconds) * time.Second)
	}
}
