package dto

type ExportRequest struct {
	ProjectId string `query:"project"`
}

type ExportResult struct {
	FileName    string
	Data        []byte
	RecordCount int
}
