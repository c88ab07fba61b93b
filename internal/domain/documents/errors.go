package documents

import "errors"

// ErrNotFound indicates the document (or its investment) does not exist for the tenant.
var ErrNotFound = errors.New("document not found")

// ErrAnalysisInProgress indicates another analysis run already claimed the document.
var ErrAnalysisInProgress = errors.New("analysis already in progress")
