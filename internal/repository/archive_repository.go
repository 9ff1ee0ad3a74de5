package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taleemlabs/taleem-backend/internal/model"
)

// ArchiveRepository stores graded reports in PostgreSQL for retention
// beyond the capped KV ledger.
type ArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(pool *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{pool: pool}
}

// archiveRow is the flattened column set shared by the bulk and single
// upsert paths.
type archiveRow struct {
	rollNo    string
	reportID  string
	student   string
	spec      string
	subject   string
	total     int
	obtained  int
	pct       float64
	grade     string
	feedback  string
	breakdown string
	createdAt time.Time
}

func buildArchiveRow(rollNo string, report *model.GradedReport) (*archiveRow, error) {
	student, err := json.Marshal(report.Student)
	if err != nil {
		return nil, fmt.Errorf("marshal student: %w", err)
	}
	spec, err := json.Marshal(report.Spec)
	if err != nil {
		return nil, fmt.Errorf("marshal spec: %w", err)
	}
	breakdown, err := json.Marshal(report.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown: %w", err)
	}
	return &archiveRow{
		rollNo:    rollNo,
		reportID:  report.ID,
		student:   string(student),
		spec:      string(spec),
		subject:   report.Spec.Subject,
		total:     report.ScoreTotal,
		obtained:  report.ScoreObtained,
		pct:       report.Percentage,
		grade:     report.LetterGrade,
		feedback:  report.NarrativeFeedback,
		breakdown: string(breakdown),
		createdAt: report.CreatedAt,
	}, nil
}

// BulkUpsert inserts a batch of reports in a single round trip using UNNEST.
// Replays of the same (roll_no, report_id) are idempotent.
func (r *ArchiveRepository) BulkUpsert(ctx context.Context, payloads []model.ArchivePayload) error {
	n := len(payloads)
	if n == 0 {
		return nil
	}

	rollNos := make([]string, 0, n)
	reportIDs := make([]string, 0, n)
	students := make([]string, 0, n)
	specs := make([]string, 0, n)
	subjects := make([]string, 0, n)
	totals := make([]int, 0, n)
	obtaineds := make([]int, 0, n)
	pcts := make([]float64, 0, n)
	grades := make([]string, 0, n)
	feedbacks := make([]string, 0, n)
	breakdowns := make([]string, 0, n)
	createdAts := make([]time.Time, 0, n)

	for i := range payloads {
		row, err := buildArchiveRow(payloads[i].RollNo, &payloads[i].Report)
		if err != nil {
			return err
		}
		rollNos = append(rollNos, row.rollNo)
		reportIDs = append(reportIDs, row.reportID)
		students = append(students, row.student)
		specs = append(specs, row.spec)
		subjects = append(subjects, row.subject)
		totals = append(totals, row.total)
		obtaineds = append(obtaineds, row.obtained)
		pcts = append(pcts, row.pct)
		grades = append(grades, row.grade)
		feedbacks = append(feedbacks, row.feedback)
		breakdowns = append(breakdowns, row.breakdown)
		createdAts = append(createdAts, row.createdAt)
	}

	query := `
		INSERT INTO graded_reports (
			roll_no, report_id, student, spec, subject,
			score_total, score_obtained, percentage, letter_grade,
			narrative_feedback, breakdown, created_at
		)
		SELECT
			u.roll_no, u.report_id, u.student::jsonb, u.spec::jsonb, u.subject,
			u.score_total, u.score_obtained, u.percentage, u.letter_grade,
			u.narrative_feedback, u.breakdown::jsonb, u.created_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::int[],
			$7::int[],
			$8::float8[],
			$9::text[],
			$10::text[],
			$11::text[],
			$12::timestamptz[]
		) AS u (
			roll_no, report_id, student, spec, subject,
			score_total, score_obtained, percentage, letter_grade,
			narrative_feedback, breakdown, created_at
		)
		ON CONFLICT (roll_no, report_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		rollNos, reportIDs, students, specs, subjects,
		totals, obtaineds, pcts, grades, feedbacks, breakdowns, createdAts,
	)
	return err
}

// UpsertOne is the row-at-a-time fallback used when a bulk batch fails.
func (r *ArchiveRepository) UpsertOne(ctx context.Context, payload *model.ArchivePayload) error {
	row, err := buildArchiveRow(payload.RollNo, &payload.Report)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO graded_reports (
			roll_no, report_id, student, spec, subject,
			score_total, score_obtained, percentage, letter_grade,
			narrative_feedback, breakdown, created_at
		)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7, $8, $9, $10, $11::jsonb, $12)
		ON CONFLICT (roll_no, report_id) DO NOTHING`,
		row.rollNo, row.reportID, row.student, row.spec, row.subject,
		row.total, row.obtained, row.pct, row.grade,
		row.feedback, row.breakdown, row.createdAt,
	)
	return err
}

// ListByRollNo returns archived reports for a student, newest first, with
// the total row count for pagination.
func (r *ArchiveRepository) ListByRollNo(ctx context.Context, rollNo string, limit, offset int) ([]model.GradedReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM graded_reports WHERE roll_no = $1`, rollNo,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT report_id, student, spec, score_total, score_obtained,
		        percentage, letter_grade, narrative_feedback, breakdown, created_at
		 FROM graded_reports
		 WHERE roll_no = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		rollNo, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []model.GradedReport
	for rows.Next() {
		var (
			rep                      model.GradedReport
			student, spec, breakdown []byte
		)
		if err := rows.Scan(&rep.ID, &student, &spec, &rep.ScoreTotal, &rep.ScoreObtained,
			&rep.Percentage, &rep.LetterGrade, &rep.NarrativeFeedback, &breakdown, &rep.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(student, &rep.Student); err != nil {
			return nil, 0, fmt.Errorf("unmarshal student: %w", err)
		}
		if err := json.Unmarshal(spec, &rep.Spec); err != nil {
			return nil, 0, fmt.Errorf("unmarshal spec: %w", err)
		}
		if err := json.Unmarshal(breakdown, &rep.Breakdown); err != nil {
			return nil, 0, fmt.Errorf("unmarshal breakdown: %w", err)
		}
		reports = append(reports, rep)
	}

	return reports, total, rows.Err()
}
