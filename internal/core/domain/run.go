package domain

import "time"

// RunStatus is the overall outcome of one pipeline run. It is surfaced
// directly as the CLI exit code; the HTTP adapter maps StatusOK to 200 and
// everything else to 500.
type RunStatus int

const (
	// StatusOK: at least one file validated and outputs were exported.
	StatusOK RunStatus = 0
	// StatusNoData: the source yielded nothing new. A warning, not an error.
	StatusNoData RunStatus = 1
	// StatusReadFailure: payloads were fetched but none could be parsed.
	StatusReadFailure RunStatus = 2
	// StatusAllInvalid: every parsed file failed validation.
	StatusAllInvalid RunStatus = 3
	// StatusUnexpected: an uncategorized failure aborted the run.
	StatusUnexpected RunStatus = 99
)

func (s RunStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoData:
		return "no_data"
	case StatusReadFailure:
		return "read_failure"
	case StatusAllInvalid:
		return "all_invalid"
	default:
		return "unexpected"
	}
}

// RunReport summarizes one pipeline run for callers, metrics and the
// notifier.
type RunReport struct {
	RunID        string    `json:"run_id"`
	Status       RunStatus `json:"code"`
	FilesFetched int       `json:"files_fetched"`
	FilesSkipped int       `json:"files_skipped"`
	FilesRead    int       `json:"files_read"`
	FilesFailed  int       `json:"files_failed"`
	CleanRows    int       `json:"clean_rows"`
	InvalidRows  int       `json:"invalid_rows"`
	StartedAt    time.Time `json:"started_at"`
	Duration     float64   `json:"duration_seconds"`
}

// LedgerEntry records one ingested payload. Fingerprint is unique in the
// backing store; re-recording a known fingerprint is a no-op.
type LedgerEntry struct {
	Fingerprint string
	Filename    string
	StoredPath  string
	ReceivedAt  time.Time
}
