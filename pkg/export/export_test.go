package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"field-data-be/internal/entity"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func note(id, ts, text string) *entity.FieldRecord {
	return &entity.FieldRecord{
		Id:        id,
		Timestamp: ts,
		Location:  entity.Location{Latitude: 1, Longitude: 2},
		Content:   entity.NoteContent{Text: text},
		ProjectId: entity.DefaultProjectId,
	}
}

func media(id, ts string, kind entity.RecordKind, mime string, data []byte) *entity.FieldRecord {
	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return &entity.FieldRecord{
		Id:        id,
		Timestamp: ts,
		Location:  entity.Location{Latitude: -7.25, Longitude: 112.75},
		Content:   entity.MediaContent(kind, uri),
		ProjectId: entity.DefaultProjectId,
	}
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = body
	}
	return files
}

func TestSanitizeTimestamp(t *testing.T) {
	tests := []string{
		"2024-01-01T10:00:00.000Z",
		"2024-06-30T23:59:59.999+07:00",
		entity.FormatTimestamp(time.Now()),
	}
	for _, ts := range tests {
		t.Run(ts, func(t *testing.T) {
			got := SanitizeTimestamp(ts)
			assert.NotContains(t, got, ":")
			assert.NotContains(t, got, ".")
			assert.Len(t, got, len(ts))
		})
	}
	assert.Equal(t, "2024-01-01T10-00-00-000Z", SanitizeTimestamp("2024-01-01T10:00:00.000Z"))
}

func TestManifestFilenamesDoNotCollide(t *testing.T) {
	records := []*entity.FieldRecord{
		note("a", "2024-01-01T10:00:00.000Z", "first"),
		note("b", "2024-01-01T10:00:01.000Z", "second"),
	}

	manifest := BuildManifest(records)
	want := []ManifestEntry{
		{Id: "a", Kind: entity.RecordKindNote, Timestamp: "2024-01-01T10:00:00.000Z", Location: ManifestLocation{1, 2}, Filename: "note_2024-01-01T10-00-00-000Z"},
		{Id: "b", Kind: entity.RecordKindNote, Timestamp: "2024-01-01T10:00:01.000Z", Location: ManifestLocation{1, 2}, Filename: "note_2024-01-01T10-00-01-000Z"},
	}
	if diff := cmp.Diff(want, manifest); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestDeduplicatesIdenticalTimestamps(t *testing.T) {
	ts := "2024-01-01T10:00:00.000Z"
	records := []*entity.FieldRecord{note("a", ts, "x"), note("b", ts, "y"), note("c", ts, "z")}

	manifest := BuildManifest(records)
	require.Len(t, manifest, 3)
	assert.Equal(t, "note_2024-01-01T10-00-00-000Z", manifest[0].Filename)
	assert.Equal(t, "note_2024-01-01T10-00-00-000Z-2", manifest[1].Filename)
	assert.Equal(t, "note_2024-01-01T10-00-00-000Z-3", manifest[2].Filename)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))
	files := readArchive(t, buf.Bytes())
	assert.Equal(t, "y", string(files["notes/note_2024-01-01T10-00-00-000Z-2.txt"]))
}

func TestWriteArchiveLayout(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xd9}
	records := []*entity.FieldRecord{
		note("n1", "2024-01-01T10:00:00.000Z", "soil sample A"),
		media("p1", "2024-01-01T10:00:01.000Z", entity.RecordKindPhoto, "image/jpeg", jpeg),
		media("v1", "2024-01-01T10:00:02.000Z", entity.RecordKindVideo, "video/webm", []byte("video")),
		media("a1", "2024-01-01T10:00:03.000Z", entity.RecordKindAudio, "audio/webm", []byte("audio")),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))
	files := readArchive(t, buf.Bytes())

	for _, folder := range Folders {
		assert.Contains(t, files, folder)
	}
	assert.NotContains(t, files, "measurements/")

	assert.Equal(t, "soil sample A", string(files["notes/note_2024-01-01T10-00-00-000Z.txt"]))
	assert.Equal(t, jpeg, files["photos/photo_2024-01-01T10-00-01-000Z.jpg"])
	assert.Equal(t, "video", string(files["videos/video_2024-01-01T10-00-02-000Z.webm"]))
	assert.Equal(t, "audio", string(files["audio/audio_2024-01-01T10-00-03-000Z.webm"]))

	raw := files[ManifestName]
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"id\""), "manifest is indented by two spaces")

	var manifest []ManifestEntry
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Len(t, manifest, len(records))
	assert.Equal(t, entity.RecordKindAudio, manifest[3].Kind)
	assert.Equal(t, ManifestLocation{-7.25, 112.75}, manifest[3].Location)
}

func TestWriteMeasurements(t *testing.T) {
	records := []*entity.FieldRecord{{
		Id:        "m1",
		Timestamp: "2024-01-01T10:00:00.000Z",
		Content:   entity.MeasurementContent{Strike: 120, Dip: 35, Comment: "bedding"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))
	files := readArchive(t, buf.Bytes())

	assert.Contains(t, files, "measurements/")
	var m measurementFile
	require.NoError(t, json.Unmarshal(files["measurements/measurement_2024-01-01T10-00-00-000Z.json"], &m))
	assert.Equal(t, measurementFile{Strike: 120, Dip: 35, Comment: "bedding"}, m)
}

func TestWriteEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	files := readArchive(t, buf.Bytes())
	assert.Equal(t, "[]", string(files[ManifestName]))
	assert.Len(t, files, len(Folders)+1)
}

func TestWriteMalformedPayloadAborts(t *testing.T) {
	tests := []struct {
		name    string
		content entity.Content
	}{
		{"no comma", entity.PhotoContent{DataURI: "not-a-data-uri"}},
		{"bad base64", entity.VideoContent{DataURI: "data:video/webm;base64,@@@"}},
		{"truncated", entity.AudioContent{DataURI: "data:audio/webm;base64"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []*entity.FieldRecord{
				note("n1", "2024-01-01T10:00:00.000Z", "ok"),
				{Id: "bad", Timestamp: "2024-01-01T10:00:01.000Z", Content: tt.content},
			}
			err := Write(io.Discard, records)
			assert.ErrorIs(t, err, ErrSerialization)
		})
	}
}

func TestArchiveName(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "field_data_default_2024-01-01T10:00:00.000Z.zip", ArchiveName("default", at))
}
