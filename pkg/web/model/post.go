package model

import (
	"time"

	postmodel "my-blog/pkg/core/post/model"
	"my-blog/pkg/core/post/service"
)

type (
	// PostReq is shared by create and update.
	PostReq struct {
		Title   string  `json:"title" vd:"len($)>0"`
		Content string  `json:"content" vd:"len($)>0"`
		Image   *string `json:"image,omitempty"`
		Status  *string `json:"status,omitempty"`
	}

	PostRes struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Content   string    `json:"content"`
		Image     string    `json:"image,omitempty"`
		Status    string    `json:"status"`
		OwnerID   string    `json:"owner_id"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
)

// Input converts the bound request into the service input.
func (r PostReq) Input() service.PostInput {
	in := service.PostInput{
		Title:   r.Title,
		Content: r.Content,
		Image:   r.Image,
	}
	if r.Status != nil {
		status := postmodel.Status(*r.Status)
		in.Status = &status
	}
	return in
}

func NewPostRes(p postmodel.Post) PostRes {
	return PostRes{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Image:     p.Image,
		Status:    string(p.Status),
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewPostList(posts []postmodel.Post) []PostRes {
	res := make([]PostRes, 0, len(posts))
	for _, p := range posts {
		res = append(res, NewPostRes(p))
	}
	return res
}
