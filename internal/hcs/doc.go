// Package hcs defines the shared domain model for the high-content-screening
// processing pipeline: studies, assay components and endpoints, wells, leveled
// measurement records, noise-band cutoffs, and the error kinds used across the
// registration and run boundaries.
//
// Level packages (annotate, prepare, methods, noiseband, pipeline, fit) build
// on these types. No SQL/database code is allowed in this package or below it;
// persistence lives in internal/db.
package hcs
