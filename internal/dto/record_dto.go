package dto

import "field-data-be/internal/entity"

type LocationDto struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RecordMetadataDto struct {
	Duration *int   `json:"duration,omitempty"`
	Size     *int64 `json:"size,omitempty"`
}

type MeasurementDto struct {
	Strike  float64 `json:"strike"`
	Dip     float64 `json:"dip"`
	Comment string  `json:"comment"`
}

// RecordResponse is the wire form of a field record. Content holds the data
// URI for media and the text for notes; measurements fill Measurement.
type RecordResponse struct {
	Id          string             `json:"id"`
	Kind        entity.RecordKind  `json:"kind"`
	Timestamp   string             `json:"timestamp"`
	Location    LocationDto        `json:"location"`
	Content     string             `json:"content"`
	Measurement *MeasurementDto    `json:"measurement,omitempty"`
	Metadata    *RecordMetadataDto `json:"metadata,omitempty"`
	ProjectId   string             `json:"project_id"`
}

type ListRecordsRequest struct {
	ProjectId string            `query:"project"`
	Kind      entity.RecordKind `query:"kind" validate:"omitempty,oneof=photo video audio note measurement"`
}

type CreateNoteRequest struct {
	Content string `json:"content" validate:"required"`
}

type CreateMeasurementRequest struct {
	Strike  float64 `json:"strike" validate:"min=0,max=360"`
	Dip     float64 `json:"dip" validate:"min=0,max=90"`
	Comment string  `json:"comment"`
}

type ClearRecordsResponse struct {
	Removed int64 `json:"removed"`
}
