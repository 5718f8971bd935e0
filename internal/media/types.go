// Package media defines shared types for the teralink application.
package media

// DefaultQuality is the resolution label requested when the caller gives none.
const DefaultQuality = "HD Video"

// Untitled is used when an endpoint reports no file name.
const Untitled = "Untitled"

// Content is a single direct download link.
type Content struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Result is the normalized output of a resolution.
// Contents is never empty for a successful resolution.
type Result struct {
	Title     string    `json:"title"`
	Contents  []Content `json:"contents"`
	TotalSize int64     `json:"total_size"` // bytes, 0 when not reported
}
