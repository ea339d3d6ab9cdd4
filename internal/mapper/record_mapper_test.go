package mapper

import (
	"testing"

	"field-data-be/internal/dto"
	"field-data-be/internal/entity"

	"github.com/google/go-cmp/cmp"
)

func TestRecordMapperToResponse(t *testing.T) {
	duration := 12
	size := int64(2048)

	tests := []struct {
		name   string
		record *entity.FieldRecord
		want   *dto.RecordResponse
	}{
		{
			name: "note",
			record: &entity.FieldRecord{
				Id: "n1", Timestamp: "2024-01-01T10:00:00.000Z",
				Location:  entity.Location{Latitude: 1, Longitude: 2},
				Content:   entity.NoteContent{Text: "soil sample A"},
				ProjectId: "default",
			},
			want: &dto.RecordResponse{
				Id: "n1", Kind: entity.RecordKindNote, Timestamp: "2024-01-01T10:00:00.000Z",
				Location: dto.LocationDto{Latitude: 1, Longitude: 2},
				Content:  "soil sample A", ProjectId: "default",
			},
		},
		{
			name: "video with metadata",
			record: &entity.FieldRecord{
				Id: "v1", Timestamp: "2024-01-01T10:00:00.000Z",
				Content:   entity.VideoContent{DataURI: "data:video/webm;base64,AA=="},
				Metadata:  &entity.RecordMetadata{Duration: &duration, Size: &size},
				ProjectId: "p",
			},
			want: &dto.RecordResponse{
				Id: "v1", Kind: entity.RecordKindVideo, Timestamp: "2024-01-01T10:00:00.000Z",
				Content:   "data:video/webm;base64,AA==",
				Metadata:  &dto.RecordMetadataDto{Duration: &duration, Size: &size},
				ProjectId: "p",
			},
		},
		{
			name: "measurement",
			record: &entity.FieldRecord{
				Id: "m1", Timestamp: "2024-01-01T10:00:00.000Z",
				Content:   entity.MeasurementContent{Strike: 45, Dip: 10, Comment: "joint"},
				ProjectId: "p",
			},
			want: &dto.RecordResponse{
				Id: "m1", Kind: entity.RecordKindMeasurement, Timestamp: "2024-01-01T10:00:00.000Z",
				Content:     "joint",
				Measurement: &dto.MeasurementDto{Strike: 45, Dip: 10, Comment: "joint"},
				ProjectId:   "p",
			},
		},
	}

	m := NewRecordMapper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, m.ToResponse(tt.record)); diff != "" {
				t.Errorf("ToResponse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
