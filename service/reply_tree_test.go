package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/discussion_service/models/dto"
	"github.com/Xushengqwer/discussion_service/models/entities"
	"github.com/Xushengqwer/discussion_service/models/vo"
	"github.com/Xushengqwer/discussion_service/myErrors"
	"github.com/Xushengqwer/discussion_service/testutils"
)

var treeBase = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func memReply(id uint64, parent *entities.Reply, score int64, minute int) *entities.Reply {
	r := &entities.Reply{
		ID:        id,
		PostID:    1,
		Content:   "reply",
		AuthorID:  "u",
		VoteTally: entities.VoteTally{VoteScore: score},
		CreatedAt: treeBase.Add(time.Duration(minute) * time.Minute),
	}
	if parent != nil {
		pid := parent.ID
		r.ParentReplyID = &pid
		r.Depth = parent.Depth + 1
	}
	return r
}

func nodeIDs(nodes []*vo.ReplyNodeVO) []uint64 {
	ids := make([]uint64, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestMaterializeTree_Ordering(t *testing.T) {
	r1 := memReply(1, nil, 2, 0)
	r2 := memReply(2, nil, 3, 1)
	r3 := memReply(3, r1, 10, 2)
	r4 := memReply(4, r1, 0, 3)
	r5 := memReply(5, nil, 2, 4)

	// 输入顺序打乱，输出不依赖查询顺序
	tree := materializeTree([]*entities.Reply{r4, r5, r3, r2, r1}, 5)

	require.Equal(t, []uint64{2, 1, 5}, nodeIDs(tree), "得分降序，同分按时间")
	assert.Equal(t, []uint64{3, 4}, nodeIDs(tree[1].Children), "子回复按时间顺序，忽略得分")
	assert.NotNil(t, tree[0].Children)
	assert.Empty(t, tree[0].Children)
}

func TestMaterializeTree_DeletedReplies(t *testing.T) {
	root := memReply(1, nil, 0, 0)
	root.IsDeleted = true
	child := memReply(2, root, 0, 1)

	lonely := memReply(3, nil, 5, 2)
	lonely.IsDeleted = true

	chain := memReply(4, nil, 1, 3)
	deadMiddle := memReply(5, chain, 0, 4)
	deadMiddle.IsDeleted = true
	deadLeaf := memReply(6, deadMiddle, 0, 5)
	deadLeaf.IsDeleted = true

	tree := materializeTree([]*entities.Reply{root, child, lonely, chain, deadMiddle, deadLeaf}, 5)

	require.Equal(t, []uint64{4, 1}, nodeIDs(tree), "没有可见后代的已删除回复被隐藏")
	assert.Empty(t, tree[0].Children, "整条已删除的子链都不渲染")

	tombstone := tree[1]
	assert.True(t, tombstone.IsDeleted)
	assert.Empty(t, tombstone.Content)
	assert.Empty(t, tombstone.AuthorID)
	require.Len(t, tombstone.Children, 1)
	assert.Equal(t, child.ID, tombstone.Children[0].ID)
	assert.Equal(t, "reply", tombstone.Children[0].Content)
}

func TestMaterializeTree_LevelBound(t *testing.T) {
	var (
		replies []*entities.Reply
		parent  *entities.Reply
	)
	for i := 1; i <= 8; i++ {
		r := memReply(uint64(i), parent, 0, i)
		replies = append(replies, r)
		parent = r
	}

	tree := materializeTree(replies, 3)
	require.Len(t, tree, 1)

	levels := 0
	node := tree[0]
	for len(node.Children) > 0 {
		levels++
		node = node.Children[0]
	}
	assert.Equal(t, 3, levels)
	assert.Equal(t, uint64(4), node.ID)
	assert.NotNil(t, node.Children)
}

func TestMaterializeTree_Cycle(t *testing.T) {
	a := memReply(1, nil, 0, 0)
	b := memReply(2, a, 0, 1)
	// 数据异常：a 指向 b，形成环且没有顶层节点
	aParent := b.ID
	a.ParentReplyID = &aParent

	assert.NotPanics(t, func() {
		tree := materializeTree([]*entities.Reply{a, b}, 5)
		assert.Empty(t, tree)
	})
}

func TestBuildTree(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	post := testutils.CreateTestPost(t, env.db, alice.UserID)

	r1, err := env.replies.CreateReply(ctx, bob, post.ID, &dto.CreateReplyRequest{Content: "R1"})
	require.NoError(t, err)
	r2, err := env.replies.CreateReply(ctx, carol, post.ID, &dto.CreateReplyRequest{Content: "R2"})
	require.NoError(t, err)
	r3, err := env.replies.CreateReply(ctx, instructor, post.ID, &dto.CreateReplyRequest{Content: "R3", ParentReplyID: &r1.ID})
	require.NoError(t, err)
	_, err = env.replies.VoteReply(ctx, alice, r2.ID, entities.VoteUp)
	require.NoError(t, err)

	tree, err := env.tree.BuildTree(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, []uint64{r2.ID, r1.ID}, nodeIDs(tree))
	assert.Equal(t, []uint64{r3.ID}, nodeIDs(tree[1].Children))
	assert.True(t, tree[1].Children[0].IsInstructorReply)

	require.NoError(t, env.replies.SoftDeleteReply(ctx, bob, r1.ID))
	tree, err = env.tree.BuildTree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.True(t, tree[1].IsDeleted)
	assert.Empty(t, tree[1].Content)
	assert.Equal(t, []uint64{r3.ID}, nodeIDs(tree[1].Children))

	_, err = env.tree.BuildTree(ctx, 9999)
	assert.ErrorIs(t, err, myErrors.ErrNotFound)
}
