// Package domain contains the core data types for flycheap.
// It is imported by every other internal package (config, qpx, repo, service,
// report, handler) and depends only on uuid and decimal.
package domain

// TripSpec is one configured origin/destination pair with its candidate dates.
// Dates are "2006-01-02" strings passed to the pricing API verbatim.
type TripSpec struct {
	From  string
	To    string
	Dates []string
}
