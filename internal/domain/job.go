package domain

import "time"

// Posting is a single listing as produced by a source adapter. It only lives
// for the duration of one collector run.
type Posting struct {
	ExternalID string
	Title      string
	Company    string
	Location   string
	URL        string
	DatePosted string // ISO date or vendor timestamp, stored verbatim
	Source     string
}

// JobRecord is the persisted, deduplicated form of a Posting.
//
// DateApplied, Status, MatchedSkills and Notes belong to application tracking;
// ingestion writes their defaults once and never touches them again.
type JobRecord struct {
	ID            int64     `json:"id"`
	ExternalID    string    `json:"external_id"`
	Company       string    `json:"company"`
	Title         string    `json:"title"`
	Location      string    `json:"location"`
	URL           string    `json:"url"`
	Source        string    `json:"source"`
	DatePosted    string    `json:"date_posted"`
	DateScraped   time.Time `json:"date_scraped"`
	DateApplied   string    `json:"date_applied"`
	Status        string    `json:"status"`
	MatchedSkills string    `json:"matched_skills"`
	Notes         string    `json:"notes"`
	JobHash       string    `json:"job_hash"`
}

const StatusPending = "pending"

// SnapshotRecord is one entry of the canonical snapshot written by the reconciler.
type SnapshotRecord struct {
	Title      string `json:"title"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	URL        string `json:"url"`
	DatePosted string `json:"date_posted"`
	ID         string `json:"id"`
}

// JobSummary is the read-only projection handed to the query layer.
type JobSummary struct {
	Company  string `json:"company"`
	Location string `json:"location"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}
