package entity

import "time"

const (
	DefaultProjectId   = "default"
	DefaultProjectName = "Default Project"
)

type Project struct {
	Id        string
	Name      string
	CreatedAt time.Time
}
