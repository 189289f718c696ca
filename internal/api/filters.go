package api

import (
	"strconv"
	"strings"

	"github.com/buildpeek/buildpeek/internal/models"
)

// FilterRecords narrows timeline records by type, result and name search
func FilterRecords(records []models.Record, recordType, result, search string) []models.Record {
	if recordType == "" && result == "" && search == "" {
		return records
	}

	filtered := make([]models.Record, 0, len(records))
	searchLower := strings.ToLower(search)

	for _, rec := range records {
		// Type filter
		if recordType != "" && !strings.EqualFold(string(rec.Type), recordType) {
			continue
		}

		// Result filter
		if result != "" && !strings.EqualFold(string(rec.Result), result) {
			continue
		}

		// Search filter
		if search != "" && !strings.Contains(strings.ToLower(rec.Name), searchLower) {
			continue
		}

		filtered = append(filtered, rec)
	}

	return filtered
}

// parseBuildIDParam parses a positive integer build id query/path value
func parseBuildIDParam(value string) (int, bool) {
	if value == "" {
		return 0, false
	}

	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
