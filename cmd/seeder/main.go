package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/lexora-app/lexora"
	"github.com/lexora-app/lexora/core"
)

// Business-English vocabulary typical of TOEIC prep decks.
var words = []string{
	"invoice", "itinerary", "merger", "quarterly", "shipment",
	"warehouse", "reimburse", "deadline", "recruit", "subsidiary",
	"negotiate", "procurement", "inventory", "dividend", "audit",
	"compliance", "logistics", "retailer", "wholesale", "surcharge",
	"installment", "franchise", "liability", "amortize", "turnover",
	"outsource", "benchmark", "stakeholder", "revenue", "overhead",
	"voucher", "premises", "tenant", "lease", "appraisal",
	"refund", "warranty", "defective", "backorder", "consignment",
	"courier", "customs", "tariff", "freight", "manifest",
	"agenda", "minutes", "keynote", "venue", "delegate",
	"quorum", "adjourn", "memo", "circular", "directive",
	"payroll", "pension", "severance", "tenure", "promotion",
}

var grammarCategories = []string{
	"conditionals", "passive-voice", "relative-clauses", "gerunds",
	"participles", "subjunctive", "comparatives", "prepositions",
	"articles", "modal-verbs", "reported-speech", "inversion",
}

var sections = []string{"listening", "reading", "grammar", "vocabulary"}

var (
	dbPath    = flag.String("db", "", "path to the store directory")
	userCount = flag.Int("users", 3, "number of users to seed")
	sessions  = flag.Int("sessions", 20, "number of sessions per user")
	poolSize  = flag.Int("pool", 4, "vocabulary seeding worker pool size")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seeder -db <path> [-users N] [-sessions N]")
		os.Exit(1)
	}

	store, err := lexora.Open(*dbPath)
	if err != nil {
		slog.Error("error opening store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < *userCount; i++ {
		userID := fmt.Sprintf("user-%03d", i+1)
		if err := seedUser(ctx, store, rng, userID); err != nil {
			slog.Error("error seeding user", "userId", userID, "err", err)
			os.Exit(1)
		}
		slog.Info("seeded user", "userId", userID)
	}
}

func seedUser(ctx context.Context, store *lexora.Store, rng *rand.Rand, userID string) error {
	now := time.Now().UTC()
	level := core.Level(rng.Intn(4) + 1)

	mastered := randomWords(rng, 10+rng.Intn(20))
	record := &core.ProgressRecord{
		Id:                uuid.NewString(),
		UserId:            userID,
		Level:             level,
		ToeicScore:        400 + rng.Intn(500),
		StudyTimeMinutes:  rng.Intn(6000),
		CompletedSections: sections[:rng.Intn(len(sections))+1],
		Vocabulary: core.VocabularyProgress{
			Known:        core.NewStringSet(randomWords(rng, 30)...),
			Studied:      core.NewStringSet(randomWords(rng, 40)...),
			Weak:         core.NewStringSet(randomWords(rng, 8)...),
			Mastered:     core.NewStringSet(mastered...),
			LastReviewed: map[string]time.Time{},
			StreakDays:   rng.Intn(60),
		},
		Grammar: core.GrammarProgress{
			Mastered:      core.NewStringSet(grammarCategories[:rng.Intn(6)]...),
			Weak:          core.NewStringSet(grammarCategories[6+rng.Intn(3)]),
			Scores:        map[string]float64{"conditionals": rng.Float64(), "articles": rng.Float64()},
			LastPracticed: now.AddDate(0, 0, -rng.Intn(14)),
		},
		Reading: core.ReadingProgress{
			WordsPerMinute:     80 + rng.Float64()*120,
			CompletedPassages:  core.NewStringSet(uuid.NewString(), uuid.NewString()),
			DifficultyProgress: map[string]float64{"basic": 1.0, "intermediate": rng.Float64()},
			ComprehensionScore: 0.5 + rng.Float64()*0.5,
		},
		Listening: core.ListeningProgress{
			CompletedAudio:   core.NewStringSet(uuid.NewString(), uuid.NewString(), uuid.NewString()),
			AverageReplays:   1 + rng.Float64()*2,
			CategoryAccuracy: map[string]float64{"conversations": rng.Float64(), "talks": rng.Float64()},
			ListeningSpeed:   0.75 + rng.Float64()*0.5,
		},
		CreatedAt: now.AddDate(0, -3, 0),
		UpdatedAt: now,
	}
	if err := store.SaveProgress(ctx, record); err != nil {
		return err
	}

	for i := 0; i < *sessions; i++ {
		date := now.AddDate(0, 0, -i).Add(-time.Duration(rng.Intn(120)) * time.Minute)
		correct := rng.Intn(80)
		total := correct + rng.Intn(20) + 1
		result := &core.SessionResult{
			Id:              uuid.NewString(),
			UserId:          userID,
			Date:            date,
			DurationMinutes: 10 + rng.Intn(50),
			SectionResults: map[string]core.SectionResult{
				sections[rng.Intn(len(sections))]: {
					Correct:  correct,
					Total:    total,
					Accuracy: float64(correct) / float64(total),
				},
			},
			TotalScore:      correct * 5,
			OverallAccuracy: float64(correct) / float64(total),
		}
		if err := store.SaveSessionResult(ctx, result); err != nil {
			return err
		}
	}

	return seedVocabulary(ctx, store, rng, userID, now)
}

// seedVocabulary writes one mastery record per word through a worker pool.
func seedVocabulary(ctx context.Context, store *lexora.Store, rng *rand.Rand, userID string, now time.Time) error {
	pool, err := ants.NewPool(*poolSize)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, word := range words {
		correct := rng.Intn(20)
		incorrect := rng.Intn(5)
		mastery := &core.VocabularyMastery{
			ItemId:         word,
			UserId:         userID,
			Level:          core.Level(rng.Intn(4) + 1),
			MasteryLevel:   rng.Intn(core.MaxMasteryLevel + 1),
			CorrectCount:   correct,
			IncorrectCount: incorrect,
			LastReviewed:   now.AddDate(0, 0, -rng.Intn(30)),
			NextReview:     now.AddDate(0, 0, rng.Intn(14)),
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := store.SaveVocabularyMastery(ctx, mastery); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()
	return firstErr
}

func randomWords(rng *rand.Rand, n int) []string {
	if n > len(words) {
		n = len(words)
	}
	picked := rng.Perm(len(words))[:n]
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = words[idx]
	}
	return out
}
