package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gymdesk/internal/attendance/models"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/dates"
	"gymdesk/pkg/requestcontext"
)

// nameLookupConcurrency bounds parallel member lookups when projecting lists.
const nameLookupConcurrency = 8

func (s *Service) Get(ctx context.Context, recordID uuid.UUID) (*models.AttendanceView, error) {
	r, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.NotFound("Check-in", recordID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check-in")
	}
	return models.NewView(r, s.displayName(ctx, r)), nil
}

// Active lists every open visit. The list is never truncated.
func (s *Service) Active(ctx context.Context) ([]*models.AttendanceView, error) {
	return s.Filter(ctx, models.Filters{Statuses: []models.Status{models.StatusOpen}, Unbounded: true})
}

// Today lists every visit whose entry falls on the current calendar day.
func (s *Service) Today(ctx context.Context) ([]*models.AttendanceView, error) {
	start, end := dates.DayBounds(requestcontext.Now(ctx), s.loc)
	return s.Filter(ctx, models.Filters{EntryFrom: &start, EntryUntil: &end, Unbounded: true})
}

// MemberHistory lists a member's most recent visits.
func (s *Service) MemberHistory(ctx context.Context, memberCode string, limit int) ([]*models.AttendanceView, error) {
	memberCode = strings.TrimSpace(memberCode)
	member, err := s.members.FindByCode(ctx, memberCode)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.NotFound("Member", memberCode)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	if limit <= 0 {
		limit = models.DefaultHistory
	}
	records, err := s.records.FindByFilters(ctx, models.Filters{MemberID: &member.ID, Limit: limit})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member history")
	}
	views := make([]*models.AttendanceView, 0, len(records))
	for _, r := range records {
		views = append(views, models.NewView(r, member.DisplayName()))
	}
	return views, nil
}

// Filter lists visits matching f, newest entry first.
func (s *Service) Filter(ctx context.Context, f models.Filters) ([]*models.AttendanceView, error) {
	records, err := s.records.FindByFilters(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list check-ins")
	}
	names, err := s.memberNames(ctx, records)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve member names")
	}
	views := make([]*models.AttendanceView, 0, len(records))
	for _, r := range records {
		name := ""
		if m, ok := r.Member(); ok {
			name = names[m.MemberID]
		}
		views = append(views, models.NewView(r, name))
	}
	return views, nil
}

// displayName resolves the entrant's name for one record. Day-pass records
// carry their own snapshot; an unresolvable member yields "".
func (s *Service) displayName(ctx context.Context, r *models.AttendanceRecord) string {
	m, ok := r.Member()
	if !ok {
		return ""
	}
	return s.memberName(ctx, m.MemberID)
}

// memberName is a single lookup. Names are cosmetic: failures are logged and
// yield "".
func (s *Service) memberName(ctx context.Context, id uuid.UUID) string {
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			s.logger.WarnContext(ctx, "failed to resolve member name",
				"member_id", id,
				"error", err,
			)
		}
		return ""
	}
	return member.DisplayName()
}

// memberNames looks up display names for the distinct members in records.
// Only cancellation of ctx fails the batch; a missing name is left unset.
func (s *Service) memberNames(ctx context.Context, records []*models.AttendanceRecord) (map[uuid.UUID]string, error) {
	ids := make(map[uuid.UUID]struct{})
	for _, r := range records {
		if m, ok := r.Member(); ok {
			ids[m.MemberID] = struct{}{}
		}
	}

	var (
		mu    sync.Mutex
		names = make(map[uuid.UUID]string, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nameLookupConcurrency)
	for id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if name := s.memberName(gctx, id); name != "" {
				mu.Lock()
				names[id] = name
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}
