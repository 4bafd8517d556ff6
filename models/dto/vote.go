package dto

import "github.com/Xushengqwer/discussion_service/models/entities"

// VoteRequest 投票请求，重复提交同一方向即撤销。
type VoteRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// ToDirection 把 up/down 转成存储用的方向值，非法值返回 0。
func (r VoteRequest) ToDirection() entities.VoteDirection {
	switch r.Direction {
	case "up":
		return entities.VoteUp
	case "down":
		return entities.VoteDown
	default:
		return 0
	}
}
