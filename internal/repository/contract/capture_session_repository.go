package contract

import "field-data-be/pkg/capture"

type CaptureSessionRepository interface {
	Save(session *capture.Session)
	Get(id string) (*capture.Session, bool)
	Delete(id string)
	Count() int
}
