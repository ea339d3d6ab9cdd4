package entity

import "time"

// TimestampLayout mirrors the ISO-8601 form browsers produce with toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type RecordKind string

const (
	RecordKindPhoto       RecordKind = "photo"
	RecordKindVideo       RecordKind = "video"
	RecordKindAudio       RecordKind = "audio"
	RecordKindNote        RecordKind = "note"
	RecordKindMeasurement RecordKind = "measurement"
)

func (k RecordKind) IsMedia() bool {
	return k == RecordKindPhoto || k == RecordKindVideo || k == RecordKindAudio
}

func (k RecordKind) Valid() bool {
	switch k {
	case RecordKindPhoto, RecordKindVideo, RecordKindAudio, RecordKindNote, RecordKindMeasurement:
		return true
	}
	return false
}

type Location struct {
	Latitude  float64
	Longitude float64
}

// Content is the kind-specific payload of a record. The set of
// implementations is closed to this package.
type Content interface {
	Kind() RecordKind
	// Raw is the wire form: a data URI for media, the text for notes.
	Raw() string
	sealed()
}

type PhotoContent struct{ DataURI string }
type VideoContent struct{ DataURI string }
type AudioContent struct{ DataURI string }
type NoteContent struct{ Text string }

type MeasurementContent struct {
	Strike  float64
	Dip     float64
	Comment string
}

func (PhotoContent) Kind() RecordKind       { return RecordKindPhoto }
func (VideoContent) Kind() RecordKind       { return RecordKindVideo }
func (AudioContent) Kind() RecordKind       { return RecordKindAudio }
func (NoteContent) Kind() RecordKind        { return RecordKindNote }
func (MeasurementContent) Kind() RecordKind { return RecordKindMeasurement }

func (c PhotoContent) Raw() string       { return c.DataURI }
func (c VideoContent) Raw() string       { return c.DataURI }
func (c AudioContent) Raw() string       { return c.DataURI }
func (c NoteContent) Raw() string        { return c.Text }
func (c MeasurementContent) Raw() string { return c.Comment }

func (PhotoContent) sealed()       {}
func (VideoContent) sealed()       {}
func (AudioContent) sealed()       {}
func (NoteContent) sealed()        {}
func (MeasurementContent) sealed() {}

// MediaContent builds the variant for a captured payload of the given kind.
// It returns nil for kinds that do not carry media.
func MediaContent(kind RecordKind, dataURI string) Content {
	switch kind {
	case RecordKindPhoto:
		return PhotoContent{DataURI: dataURI}
	case RecordKindVideo:
		return VideoContent{DataURI: dataURI}
	case RecordKindAudio:
		return AudioContent{DataURI: dataURI}
	}
	return nil
}

type RecordMetadata struct {
	Duration *int   // seconds
	Size     *int64 // bytes
}

type FieldRecord struct {
	Id        string
	Timestamp string
	Location  Location
	Content   Content
	Metadata  *RecordMetadata
	ProjectId string
}

func (r *FieldRecord) Kind() RecordKind {
	return r.Content.Kind()
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
