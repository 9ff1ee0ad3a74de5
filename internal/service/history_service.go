package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
)

// HistoryService owns the per-student graded report ledger and its
// aggregate statistics.
type HistoryService struct {
	repo *repository.HistoryRepository
	log  zerolog.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repo *repository.HistoryRepository, log zerolog.Logger) *HistoryService {
	return &HistoryService{
		repo: repo,
		log:  log.With().Str("component", "history_service").Logger(),
	}
}

// Append adds a report to the student's ledger, evicting the oldest entry
// past the cap.
func (s *HistoryService) Append(ctx context.Context, rollNo string, report model.GradedReport) error {
	return s.repo.Append(ctx, rollNo, report)
}

// List returns the ledger, newest first.
func (s *HistoryService) List(ctx context.Context, rollNo string) ([]model.GradedReport, error) {
	return s.repo.Load(ctx, rollNo)
}

// Stats computes the display aggregates over the ledger: total exams, the
// weakest subject, and the chronological performance trend.
func (s *HistoryService) Stats(ctx context.Context, rollNo string) (*model.HistoryStats, error) {
	reports, err := s.repo.Load(ctx, rollNo)
	if err != nil {
		return nil, err
	}

	return &model.HistoryStats{
		TotalExams:     len(reports),
		WeakestSubject: weakestSubject(reports),
		Trend:          trend(reports),
	}, nil
}

// weakestSubject groups reports by subject and returns the subject with
// the lowest summed obtained/total ratio. Ties keep the subject first
// encountered scanning the ledger newest-first.
func weakestSubject(reports []model.GradedReport) string {
	type subjectScore struct {
		obtained int
		total    int
	}

	scores := make(map[string]*subjectScore)
	var order []string
	for _, r := range reports {
		ss, ok := scores[r.Spec.Subject]
		if !ok {
			ss = &subjectScore{}
			scores[r.Spec.Subject] = ss
			order = append(order, r.Spec.Subject)
		}
		ss.obtained += r.ScoreObtained
		ss.total += r.ScoreTotal
	}

	weakest := ""
	weakestRatio := 0.0
	for _, subject := range order {
		ss := scores[subject]
		if ss.total == 0 {
			continue
		}
		ratio := float64(ss.obtained) / float64(ss.total)
		if weakest == "" || ratio < weakestRatio {
			weakest = subject
			weakestRatio = ratio
		}
	}
	return weakest
}

// trend produces the (date, percentage) series oldest-first for charting,
// the reverse of the ledger's stored order. Ordering uses the numeric
// value of the id (a millisecond epoch) rather than string comparison.
func trend(reports []model.GradedReport) []model.TrendPoint {
	sorted := make([]model.GradedReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, errA := strconv.ParseInt(sorted[i].ID, 10, 64)
		b, errB := strconv.ParseInt(sorted[j].ID, 10, 64)
		if errA != nil || errB != nil {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return a < b
	})

	points := make([]model.TrendPoint, 0, len(sorted))
	for _, r := range sorted {
		points = append(points, model.TrendPoint{
			Date:       r.CreatedAt.Format("2006-01-02"),
			Percentage: r.Percentage,
		})
	}
	return points
}
