package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docshelf/models"
	"docshelf/repositories"
)

const dateOnlyLayout = "2006-01-02"

// ParseDateParam accepts 2006-01-02 or RFC3339. A date-only value with
// endOfDay set is moved to the last instant of that day.
func ParseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateOnlyLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (s *documentService) ListDocuments(ctx context.Context, folderID *uint) ([]models.Document, error) {
	docs, err := s.documents.ListLatest(ctx, nil, folderID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list documents", err)
	}
	return docs, nil
}

func (s *documentService) SearchDocuments(ctx context.Context, query string, filters SearchFilters) ([]models.Document, error) {
	in := repositories.DocumentSearchInput{
		Query:     strings.TrimSpace(query),
		FileType:  strings.TrimPrefix(strings.ToLower(strings.TrimSpace(filters.FileType)), "."),
		CreatedBy: filters.CreatedBy,
		DateFrom:  filters.DateFrom,
		DateTo:    filters.DateTo,
		Tags:      normalizeTags(filters.Tags),
	}
	if filters.Status != "" {
		status, err := models.ParseDocumentStatus(filters.Status)
		if err != nil {
			return nil, newAppError(http.StatusBadRequest, err.Error(), nil)
		}
		in.Status = status
	}
	if in.DateFrom != nil && in.DateTo != nil && in.DateFrom.After(*in.DateTo) {
		return nil, newAppError(http.StatusBadRequest, "dateFrom must not be after dateTo", nil)
	}

	docs, err := s.documents.Search(ctx, nil, in)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "search failed", err)
	}
	return docs, nil
}
