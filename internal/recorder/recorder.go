package recorder

import "time"

// RunSnapshot holds the outcome of analyzing one symbol in a pipeline run.
type RunSnapshot struct {
	Coin         string
	Symbol       string
	CurrentPrice float64
	ATH          float64
	ATHTime      time.Time
	ATL          float64
	ATLTime      time.Time
	DrawdownPct  float64
	ChartPoints  int
	FileKey      string
	Status       string // "OK" or "ERROR"
	Note         string
}

// UploadEvent records one artifact upload.
type UploadEvent struct {
	Key         string
	Bytes       int
	ContentType string
	Status      string // "OK" or "ERROR"
	Note        string
}

// Recorder persists pipeline history for analysis.
type Recorder interface {
	RecordRun(snap *RunSnapshot) error
	RecordUpload(evt *UploadEvent) error
	Close() error
}
