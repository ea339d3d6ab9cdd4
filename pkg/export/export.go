// Package export serializes field records into a zip archive: a
// metadata.json manifest at the root plus one folder per record kind.
package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"field-data-be/internal/entity"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

const (
	ManifestName       = "metadata.json"
	measurementsFolder = "measurements/"
)

// ErrSerialization aborts an export. Nothing written before it is usable.
var ErrSerialization = errors.New("export serialization failed")

// Folders are created in every archive, even when empty.
var Folders = []string{"photos/", "videos/", "audio/", "notes/"}

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// SanitizeTimestamp makes an ISO-8601 timestamp safe for file names.
func SanitizeTimestamp(ts string) string {
	return timestampReplacer.Replace(ts)
}

type ManifestLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ManifestEntry struct {
	Id        string            `json:"id"`
	Kind      entity.RecordKind `json:"kind"`
	Timestamp string            `json:"timestamp"`
	Location  ManifestLocation  `json:"location"`
	Filename  string            `json:"filename"`
}

// BuildManifest returns one entry per record in store order. Records that
// would share a file name get a -2, -3, ... suffix.
func BuildManifest(records []*entity.FieldRecord) []ManifestEntry {
	seen := make(map[string]int, len(records))
	entries := make([]ManifestEntry, 0, len(records))

	for _, r := range records {
		name := fmt.Sprintf("%s_%s", r.Kind(), SanitizeTimestamp(r.Timestamp))
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}

		entries = append(entries, ManifestEntry{
			Id:        r.Id,
			Kind:      r.Kind(),
			Timestamp: r.Timestamp,
			Location:  ManifestLocation{Latitude: r.Location.Latitude, Longitude: r.Location.Longitude},
			Filename:  name,
		})
	}
	return entries
}

// ArchiveName is the download name for an export of projectId taken at at.
func ArchiveName(projectId string, at time.Time) string {
	return fmt.Sprintf("field_data_%s_%s.zip", projectId, entity.FormatTimestamp(at))
}

// Path is where a record's payload lives inside the archive.
func Path(kind entity.RecordKind, filename string) string {
	switch kind {
	case entity.RecordKindPhoto:
		return "photos/" + filename + ".jpg"
	case entity.RecordKindVideo:
		return "videos/" + filename + ".webm"
	case entity.RecordKindAudio:
		return "audio/" + filename + ".webm"
	case entity.RecordKindNote:
		return "notes/" + filename + ".txt"
	case entity.RecordKindMeasurement:
		return measurementsFolder + filename + ".json"
	}
	return filename
}

type measurementFile struct {
	Strike  float64 `json:"strike"`
	Dip     float64 `json:"dip"`
	Comment string  `json:"comment"`
}

// Write streams the archive for records to w.
func Write(w io.Writer, records []*entity.FieldRecord) error {
	zw := zip.NewWriter(w)
	manifest := BuildManifest(records)

	for _, folder := range Folders {
		if _, err := zw.Create(folder); err != nil {
			return errors.Wrapf(ErrSerialization, "create folder %s: %v", folder, err)
		}
	}

	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrapf(ErrSerialization, "encode manifest: %v", err)
	}
	if err := writeFile(zw, ManifestName, body); err != nil {
		return err
	}

	measurements := false
	for i, r := range records {
		data, err := payload(r)
		if err != nil {
			return errors.Wrapf(err, "record %s", r.Id)
		}

		if r.Kind() == entity.RecordKindMeasurement && !measurements {
			if _, err := zw.Create(measurementsFolder); err != nil {
				return errors.Wrapf(ErrSerialization, "create folder %s: %v", measurementsFolder, err)
			}
			measurements = true
		}

		if err := writeFile(zw, Path(r.Kind(), manifest[i].Filename), data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return errors.Wrapf(ErrSerialization, "finish archive: %v", err)
	}
	return nil
}

func writeFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(ErrSerialization, "create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(ErrSerialization, "write %s: %v", name, err)
	}
	return nil
}

func payload(r *entity.FieldRecord) ([]byte, error) {
	switch c := r.Content.(type) {
	case entity.NoteContent:
		return []byte(c.Text), nil
	case entity.MeasurementContent:
		b, err := json.MarshalIndent(measurementFile{Strike: c.Strike, Dip: c.Dip, Comment: c.Comment}, "", "  ")
		if err != nil {
			return nil, errors.Wrapf(ErrSerialization, "encode measurement: %v", err)
		}
		return b, nil
	default:
		return DecodeDataURI(c.Raw())
	}
}

// DecodeDataURI returns the bytes after the comma of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	_, encoded, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, errors.Wrap(ErrSerialization, "payload is not a data URI")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrapf(ErrSerialization, "decode payload: %v", err)
	}
	return data, nil
}
