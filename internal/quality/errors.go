package quality

import "errors"

// ErrQualityIssues is returned by callers that treat any quality issue as
// a failure, such as the check command.
var ErrQualityIssues = errors.New("dataset quality issues found")
