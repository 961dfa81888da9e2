package media

import "fmt"

// NotFoundError reports that no hosted video matched a session. The
// orchestrator treats this as an expected outcome: the session is persisted
// without a transcript.
type NotFoundError struct {
	SessionKey string
	Reason     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no media found for session %s: %s", e.SessionKey, e.Reason)
}

// DownloadError reports a failed video download.
type DownloadError struct {
	SessionKey string
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for session %s: %v", e.SessionKey, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// TranscodeError reports a failed audio extraction or segmentation.
type TranscodeError struct {
	SessionKey string
	Err        error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed for session %s: %v", e.SessionKey, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// TranscriptionError reports a failed chunk transcription. Any chunk failing
// fails the whole session's download-path resolution; there are no partial
// transcripts.
type TranscriptionError struct {
	SessionKey string
	Part       string
	Err        error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed for session %s part %s: %v", e.SessionKey, e.Part, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
