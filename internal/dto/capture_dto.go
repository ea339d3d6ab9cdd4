package dto

import "field-data-be/pkg/capture"

type OpenCaptureRequest struct {
	Kind       capture.Kind       `json:"kind" validate:"required,oneof=photo video audio"`
	FacingMode capture.FacingMode `json:"facing_mode" validate:"omitempty,oneof=environment user"`
}

type CaptureResponse struct {
	capture.Info
	MediaPath string `json:"media_path"`
	Topic     string `json:"topic"`
}

type ConfirmCaptureResponse struct {
	Session CaptureResponse `json:"session"`
	Record  *RecordResponse `json:"record"`
}
