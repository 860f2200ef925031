package server

import (
	"time"

	"splitboard/internal/models"
	"splitboard/internal/service"
)

// SplitResponse is the public shape of a split.
type SplitResponse struct {
	ID            uint               `json:"id"`
	UserID        uint               `json:"userId"`
	User          models.UserSummary `json:"user"`
	ImageURL      string             `json:"imageUrl"`
	Caption       *string            `json:"caption"`
	Score         float64            `json:"score"`
	Commentary    string             `json:"commentary"`
	CommentsCount int                `json:"commentsCount"`
	CreatedAt     time.Time          `json:"createdAt"`
	Comments      []CommentResponse  `json:"comments,omitempty"`
}

// CommentResponse is the public shape of a comment.
type CommentResponse struct {
	ID        uint               `json:"id"`
	Content   string             `json:"content"`
	SplitID   uint               `json:"splitId"`
	UserID    uint               `json:"userId"`
	User      models.UserSummary `json:"user"`
	CreatedAt time.Time          `json:"createdAt"`
	CanDelete bool               `json:"canDelete"`
}

// PaginationResponse describes one page of a listing.
type PaginationResponse struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// SplitListResponse is returned by GET /api/splits.
type SplitListResponse struct {
	Splits     []SplitResponse    `json:"splits"`
	Pagination PaginationResponse `json:"pagination"`
}

// LeaderboardResponse is returned by GET /api/leaderboard.
type LeaderboardResponse struct {
	Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	UserRank    *models.LeaderboardEntry  `json:"userRank"`
	Type        string                    `json:"type"`
	Timeframe   string                    `json:"timeframe"`
}

// ProfileResponse is returned by GET /api/users/:username.
type ProfileResponse struct {
	User   ProfileUser       `json:"user"`
	Stats  *models.UserStats `json:"stats"`
	Splits []SplitResponse   `json:"splits"`
}

// ProfileUser is the public account block of a profile.
type ProfileUser struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Bio         *string   `json:"bio"`
	Avatar      *string   `json:"avatar"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string      `json:"token"`
	User  ProfileUser `json:"user"`
}

func toSplitResponse(s *models.Split) SplitResponse {
	resp := SplitResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		User:          s.User.Summary(),
		ImageURL:      s.ImageURL,
		Caption:       s.Caption,
		Score:         s.Score,
		Commentary:    s.Commentary,
		CommentsCount: s.CommentsCount,
		CreatedAt:     s.CreatedAt,
	}
	if s.Comments != nil {
		resp.Comments = make([]CommentResponse, 0, len(s.Comments))
		for i := range s.Comments {
			resp.Comments = append(resp.Comments, toCommentResponse(&s.Comments[i]))
		}
	}
	return resp
}

func toSplitResponses(splits []*models.Split) []SplitResponse {
	out := make([]SplitResponse, 0, len(splits))
	for _, s := range splits {
		out = append(out, toSplitResponse(s))
	}
	return out
}

func toCommentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		SplitID:   c.SplitID,
		UserID:    c.UserID,
		User:      c.User.Summary(),
		CreatedAt: c.CreatedAt,
		CanDelete: c.CanDelete,
	}
}

func toProfileUser(u *models.User) ProfileUser {
	return ProfileUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt,
	}
}

func toPagination(p *service.SplitPage) PaginationResponse {
	return PaginationResponse{Total: p.Total, Limit: p.Limit, Offset: p.Offset, HasMore: p.HasMore}
}
