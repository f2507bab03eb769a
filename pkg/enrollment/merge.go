package enrollment

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Ramsey-B/laurel/pkg/models"
)

const (
	dischargeMarker = "Discharge Date:"
	mergedPrefix    = "Merged: "
	dateLayout      = "2006-01-02"
)

var reasonPattern = regexp.MustCompile(`Reason:\s*([^|]+)`)

// MergeResult describes the outcome of collapsing one cluster
type MergeResult struct {
	// Base is the surviving record with the merged range and notes applied
	Base models.ClientProgramEnrollment
	// ArchivedIDs lists the cluster members to archive
	ArchivedIDs []string
	// Clamped is set when the computed end date preceded the start date and
	// was corrected to it
	Clamped bool
}

// MergeCluster collapses a cluster of overlapping enrollments into its base
// record: the first non-archived member in cluster order, or the first member
// when all are archived. The merged range spans the earliest start to the
// latest end; a cluster where no member has an end date stays open-ended.
// MergeCluster is pure; the caller persists the result.
func MergeCluster(cluster []models.ClientProgramEnrollment, updatedBy string) (*MergeResult, error) {
	if len(cluster) < 2 {
		return nil, fmt.Errorf("cluster must have at least 2 enrollments, got %d", len(cluster))
	}

	base := cluster[0]
	for _, member := range cluster {
		if !member.IsArchived {
			base = member
			break
		}
	}

	earliestStart := cluster[0].StartDate
	var latestEnd *time.Time
	for _, member := range cluster {
		if member.StartDate.Before(earliestStart) {
			earliestStart = member.StartDate
		}
		if member.EndDate != nil && (latestEnd == nil || member.EndDate.After(*latestEnd)) {
			end := *member.EndDate
			latestEnd = &end
		}
	}

	result := &MergeResult{}
	if latestEnd != nil && latestEnd.Before(earliestStart) {
		clamped := earliestStart
		latestEnd = &clamped
		result.Clamped = true
	}

	base.StartDate = earliestStart
	base.EndDate = latestEnd
	base.Notes = buildMergedNotes(base, cluster, latestEnd)
	base.IsArchived = false
	base.ArchivedAt = nil
	base.UpdatedBy = &updatedBy

	result.Base = base
	for _, member := range cluster {
		if member.ID != base.ID {
			result.ArchivedIDs = append(result.ArchivedIDs, member.ID)
		}
	}

	return result, nil
}

// buildMergedNotes assembles the surviving record's notes: the base's own
// notes unless they already carry a discharge marker, then a discharge line
// when the merged range is closed, then the other members' non-discharge
// notes prefixed "Merged: " with exact duplicates skipped.
func buildMergedNotes(base models.ClientProgramEnrollment, cluster []models.ClientProgramEnrollment, latestEnd *time.Time) string {
	var parts []string
	seen := make(map[string]bool)

	baseNotes := strings.TrimSpace(base.Notes)
	if baseNotes != "" && !strings.Contains(baseNotes, dischargeMarker) {
		parts = append(parts, baseNotes)
		seen[baseNotes] = true
	}

	if latestEnd != nil {
		reasons := collectDischargeReasons(cluster)
		line := fmt.Sprintf("%s %s", dischargeMarker, latestEnd.Format(dateLayout))
		if len(reasons) > 0 {
			line += " | Reason: " + strings.Join(reasons, ", ")
		}
		parts = append(parts, line)
	}

	for _, member := range cluster {
		if member.ID == base.ID {
			continue
		}
		notes := strings.TrimSpace(member.Notes)
		if notes == "" || strings.Contains(notes, dischargeMarker) {
			continue
		}
		if seen[notes] {
			continue
		}
		seen[notes] = true
		parts = append(parts, mergedPrefix+notes)
	}

	return strings.Join(parts, "\n")
}

// collectDischargeReasons extracts the distinct "Reason: <text>" fragments
// found in any cluster member's notes, in member order
func collectDischargeReasons(cluster []models.ClientProgramEnrollment) []string {
	var reasons []string
	seen := make(map[string]bool)

	for _, member := range cluster {
		for _, match := range reasonPattern.FindAllStringSubmatch(member.Notes, -1) {
			reason := strings.TrimSpace(match[1])
			if reason == "" || seen[reason] {
				continue
			}
			seen[reason] = true
			reasons = append(reasons, reason)
		}
	}

	return reasons
}
