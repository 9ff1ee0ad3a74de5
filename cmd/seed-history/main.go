package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/database"
	"github.com/taleemlabs/taleem-backend/internal/logger"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
)

// seed-history fills a student's history ledger with sample graded reports
// so dashboards and trend charts can be exercised without taking exams.
func main() {
	var (
		rollNo string
		count  int
	)
	flag.StringVar(&rollNo, "roll-no", "demo1", "Roll number to seed history for")
	flag.IntVar(&count, "count", 8, "Number of sample reports to seed")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	historyRepo := repository.NewHistoryRepository(repository.NewRedisKV(rdb), log)

	student := model.StudentIdentity{
		Name:       "Demo Student",
		ClassName:  "9th",
		SchoolName: "Demo High School",
		RollNo:     rollNo,
	}

	subjects := []string{"Physics", "Chemistry", "Biology", "Mathematics"}

	fmt.Printf("=== Seeding %d reports for roll number %s ===\n", count, rollNo)

	for i := 0; i < count; i++ {
		at := time.Now().Add(-time.Duration(count-i) * 24 * time.Hour)
		subject := subjects[i%len(subjects)]

		card := &model.ReportCard{
			ScoreTotal:        20,
			ScoreObtained:     8 + (i*3)%12,
			NarrativeFeedback: fmt.Sprintf("Sample feedback for %s attempt %d.", subject, i+1),
			Breakdown: []model.QuestionResult{
				{
					Prompt:          fmt.Sprintf("Sample %s question", subject),
					StudentAnswer:   "Sample answer",
					ReferenceAnswer: "Reference answer",
					Correct:         i%2 == 0,
					Feedback:        "Sample per-question feedback.",
				},
			},
		}

		spec := model.AssessmentSpec{
			Subject:         subject,
			Chapter:         fmt.Sprintf("Chapter %d", i%5+1),
			ExamType:        model.ExamTypeMixed,
			Languages:       []model.Language{model.LanguageEnglish},
			DurationMinutes: 30,
		}

		report := model.NewGradedReport(card, student, spec, at)
		if err := historyRepo.Append(ctx, rollNo, report); err != nil {
			log.Fatal().Err(err).Msg("Failed to append report")
		}
		fmt.Printf("Seeded %s %s (%d/%d, %s)\n", subject, spec.Chapter, card.ScoreObtained, card.ScoreTotal, report.LetterGrade)
	}

	fmt.Println("Done.")
}
