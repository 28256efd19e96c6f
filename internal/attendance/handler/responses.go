package handler

import "gymdesk/internal/attendance/models"

// ListResponse is the body of every record list endpoint.
type ListResponse struct {
	Records []*models.AttendanceView `json:"records"`
	Count   int                      `json:"count"`
}

func newListResponse(views []*models.AttendanceView) ListResponse {
	if views == nil {
		views = []*models.AttendanceView{}
	}
	return ListResponse{Records: views, Count: len(views)}
}
