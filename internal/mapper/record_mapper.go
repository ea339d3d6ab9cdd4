package mapper

import (
	"field-data-be/internal/dto"
	"field-data-be/internal/entity"
)

type RecordMapper struct{}

func NewRecordMapper() *RecordMapper {
	return &RecordMapper{}
}

func (m *RecordMapper) ToResponse(r *entity.FieldRecord) *dto.RecordResponse {
	if r == nil {
		return nil
	}

	res := &dto.RecordResponse{
		Id:        r.Id,
		Kind:      r.Kind(),
		Timestamp: r.Timestamp,
		Location: dto.LocationDto{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
		},
		Content:   r.Content.Raw(),
		ProjectId: r.ProjectId,
	}

	if mc, ok := r.Content.(entity.MeasurementContent); ok {
		res.Measurement = &dto.MeasurementDto{Strike: mc.Strike, Dip: mc.Dip, Comment: mc.Comment}
	}
	if r.Metadata != nil {
		res.Metadata = &dto.RecordMetadataDto{Duration: r.Metadata.Duration, Size: r.Metadata.Size}
	}
	return res
}

func (m *RecordMapper) ToResponses(records []*entity.FieldRecord) []*dto.RecordResponse {
	out := make([]*dto.RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, m.ToResponse(r))
	}
	return out
}
