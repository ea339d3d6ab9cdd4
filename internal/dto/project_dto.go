package dto

import "time"

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required"`
}

type ProjectResponse struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
	ActiveId string             `json:"active_id"`
}
