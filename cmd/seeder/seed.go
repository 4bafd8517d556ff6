package main

import (
	"context"
	"sync"

	"github.com/Xushengqwer/go-common/core"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/discussion_service/constant"
	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/service"
)

var seedCategories = []string{"general", "homework", "lecture", "exam", "project", "logistics"}

type seedServices struct {
	posts      service.PostService
	replies    service.ReplyService
	acceptance service.AcceptanceService
	maxDepth   int
}

type seedStats struct {
	mu       sync.Mutex
	posts    int
	replies  int
	votes    int
	accepted int
}

func (s *seedStats) add(replies, votes, accepted int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts++
	s.replies += replies
	s.votes += votes
	s.accepted += accepted
}

// seedUsers 固定的一批学生与讲师，投票与回复在其中随机挑选，避免每条数据都是新用户。
type seedUsers struct {
	students    []dto.Actor
	instructors []dto.Actor
}

func newSeedUsers(students, instructors int) seedUsers {
	users := seedUsers{}
	for i := 0; i < students; i++ {
		users.students = append(users.students, dto.Actor{UserID: uuid.NewString(), Role: constant.RoleStudent})
	}
	for i := 0; i < instructors; i++ {
		users.instructors = append(users.instructors, dto.Actor{UserID: uuid.NewString(), Role: constant.RoleInstructor})
	}
	return users
}

func (u seedUsers) anyone() dto.Actor {
	if gofakeit.Number(1, 10) <= 2 {
		return u.instructors[gofakeit.Number(0, len(u.instructors)-1)]
	}
	return u.students[gofakeit.Number(0, len(u.students)-1)]
}

func (u seedUsers) instructor() dto.Actor {
	return u.instructors[gofakeit.Number(0, len(u.instructors)-1)]
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Seed 通过服务层写入数据，计数、层级与采纳状态都由服务维护。
func Seed(ctx context.Context, svc seedServices, logger *core.ZapLogger, numPosts int) *seedStats {
	users := newSeedUsers(30, 3)
	stats := &seedStats{}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)

	for i := 0; i < numPosts; i++ {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(itemIndex int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			seedThread(ctx, svc, users, logger, stats, itemIndex)
		}(i)
	}

	wg.Wait()
	return stats
}

func seedThread(ctx context.Context, svc seedServices, users seedUsers, logger *core.ZapLogger, stats *seedStats, index int) {
	author := users.anyone()
	req := &dto.CreatePostRequest{
		Title:    truncateRunes(gofakeit.Sentence(gofakeit.Number(5, 15)), constant.MaxTitleLength),
		Content:  truncateRunes(gofakeit.Paragraph(2, 4, 20, "\n\n"), constant.MaxContentLength),
		Category: seedCategories[gofakeit.Number(0, len(seedCategories)-1)],
		Tags:     []string{gofakeit.Word(), gofakeit.Word(), gofakeit.Word()},
	}
	post, err := svc.posts.CreatePost(ctx, author, req, nil)
	if err != nil {
		logger.Error("创建帖子失败", zap.Int("index", index), zap.Error(err))
		return
	}

	var created []*vo.ReplyVO
	for j := gofakeit.Number(0, 12); j > 0; j-- {
		replyReq := &dto.CreateReplyRequest{Content: truncateRunes(gofakeit.Paragraph(1, 3, 15, "\n"), constant.MaxContentLength)}
		// 约一半的回复挂在已有回复之下，且不超过层级上限
		if len(created) > 0 && gofakeit.Bool() {
			parent := created[gofakeit.Number(0, len(created)-1)]
			if parent.Depth < svc.maxDepth {
				parentID := parent.ID
				replyReq.ParentReplyID = &parentID
			}
		}
		reply, err := svc.replies.CreateReply(ctx, users.anyone(), post.ID, replyReq)
		if err != nil {
			logger.Warn("创建回复失败", zap.Uint64("postID", post.ID), zap.Error(err))
			continue
		}
		created = append(created, reply)
	}

	votes := 0
	for k := gofakeit.Number(0, 10); k > 0; k-- {
		direction := entities.VoteUp
		if gofakeit.Number(1, 4) == 1 {
			direction = entities.VoteDown
		}
		voter := users.anyone()
		if len(created) > 0 && gofakeit.Bool() {
			_, err = svc.replies.VoteReply(ctx, voter, created[gofakeit.Number(0, len(created)-1)].ID, direction)
		} else {
			_, err = svc.posts.VotePost(ctx, voter, post.ID, direction)
		}
		if err == nil {
			votes++
		}
	}

	accepted := 0
	if len(created) > 0 && gofakeit.Bool() {
		target := created[gofakeit.Number(0, len(created)-1)]
		if _, err := svc.acceptance.AcceptReply(ctx, users.instructor(), post.ID, target.ID); err != nil {
			logger.Warn("采纳回复失败", zap.Uint64("postID", post.ID), zap.Error(err))
		} else {
			accepted = 1
		}
	}

	stats.add(len(created), votes, accepted)
}
