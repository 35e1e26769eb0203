// Package pagination provides the request-shaping primitives used to query the
// onePA search endpoint.
//
// The search endpoint pages outlet listings ten at a time and accepts up to ten
// comma-joined outlet names per availability query. This package implements:
//
//   - Walk: sequential paging until a page comes back short
//   - Chunk: splitting a name list into consecutive batches
//   - Gather: concurrent fan-out of independent requests with an all-or-nothing join
//
// Example usage:
//
//	outlets, err := pagination.Walk(ctx, pagination.DefaultPageSize, fetchPage)
//
//	jobs := make([]pagination.Job[Record], 0)
//	for _, batch := range pagination.Chunk(outlets, pagination.DefaultPageSize) {
//		jobs = append(jobs, queryBatch(batch))
//	}
//	records, err := pagination.Gather(ctx, pagination.DefaultConfig(), jobs)
//
// Gather never cancels sibling requests when one fails: every request runs to
// completion or failure, then the first error (if any) is returned and all
// results are discarded.
package pagination
