package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Job is the resumable translation state of one file, keyed by file name.
// TranslationMap only grows; CompletedIDs tracks units the backend actually
// returned, not units that fall back to source text.
type Job struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Fingerprint     string            `json:"fingerprint,omitempty"`
	Status          Status            `json:"status"`
	CompletedIDs    map[string]bool   `json:"completed_ids"`
	TranslationMap  map[string]string `json:"translation_map"`
	AnalysisContext *string           `json:"analysis_context,omitempty"`
	Revised         bool              `json:"revised"`
	TotalUnits      int               `json:"total_units"`
	TokensUsed      int               `json:"tokens_used"`
	Error           string            `json:"error,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Fingerprint identifies a source file by content, so a job is not resumed
// against a different file that happens to share its name.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// NewJob creates a pending job for the named file.
func NewJob(name string, totalUnits int) *Job {
	now := time.Now()
	return &Job{
		ID:             uuid.NewString(),
		Name:           name,
		Status:         StatusPending,
		CompletedIDs:   make(map[string]bool),
		TranslationMap: make(map[string]string),
		TotalUnits:     totalUnits,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Merge writes every entry of partial whose id passes accept into the
// translation map and marks it completed. It returns how many ids were newly
// completed.
func (j *Job) Merge(partial map[string]string, accept func(id string) bool) int {
	if j.CompletedIDs == nil {
		j.CompletedIDs = make(map[string]bool)
	}
	if j.TranslationMap == nil {
		j.TranslationMap = make(map[string]string)
	}

	added := 0
	for id, text := range partial {
		if accept != nil && !accept(id) {
			continue
		}
		j.TranslationMap[id] = text
		if !j.CompletedIDs[id] {
			j.CompletedIDs[id] = true
			added++
		}
	}
	if len(partial) > 0 {
		j.UpdatedAt = time.Now()
	}
	return added
}

// Covers reports whether every id has been completed.
func (j *Job) Covers(ids []string) bool {
	for _, id := range ids {
		if !j.CompletedIDs[id] {
			return false
		}
	}
	return true
}

// SetStatus moves the job to status and clears the last error on success.
func (j *Job) SetStatus(status Status) {
	j.Status = status
	if status == StatusCompleted {
		j.Error = ""
	}
	j.UpdatedAt = time.Now()
}

// Clone returns a deep copy.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	tmp := *j
	tmp.CompletedIDs = make(map[string]bool, len(j.CompletedIDs))
	for id, ok := range j.CompletedIDs {
		tmp.CompletedIDs[id] = ok
	}
	tmp.TranslationMap = make(map[string]string, len(j.TranslationMap))
	for id, text := range j.TranslationMap {
		tmp.TranslationMap[id] = text
	}
	if j.AnalysisContext != nil {
		analysis := *j.AnalysisContext
		tmp.AnalysisContext = &analysis
	}
	return &tmp
}
