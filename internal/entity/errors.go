package entity

import "errors"

// ErrReportNotFound is returned by report sources when no report exists for a day
var ErrReportNotFound = errors.New("analysis report not found")
