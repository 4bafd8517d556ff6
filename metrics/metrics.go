// Package metrics 讨论区业务指标，由 router 在 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "discussion"

var (
	// VotesApplied 按目标类型与结果 (added / flipped / retracted) 统计的投票次数。
	VotesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_applied_total",
		Help:      "Number of vote mutations applied, by target type and outcome.",
	}, []string{"target", "outcome"})

	RepliesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replies_created_total",
		Help:      "Number of replies created, split by top-level and nested.",
	}, []string{"level"})

	AnswersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answers_accepted_total",
		Help:      "Number of accept-answer transitions committed.",
	})

	// ConflictRetries 乐观锁冲突后触发的重试次数。
	ConflictRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflict_retries_total",
		Help:      "Number of operations retried after an optimistic version conflict.",
	}, []string{"operation"})

	// ViewBumps 浏览量累加走的路径：redis 或 mysql。
	ViewBumps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_bumps_total",
		Help:      "Number of post view increments, by backing store.",
	}, []string{"store"})
)
