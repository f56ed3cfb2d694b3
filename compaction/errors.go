package compaction

import "errors"

// ErrSummarizationUnavailable is returned by summarizers when the
// external summarization capability fails. The compactor swallows it
// and substitutes Placeholder; it never fails a turn.
var ErrSummarizationUnavailable = errors.New("summarization unavailable")
