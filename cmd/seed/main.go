package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"decihire/internal/cache"
	"decihire/internal/config"
	"decihire/internal/model"
	"decihire/internal/repository"
	"decihire/internal/service"
)

func main() {
	hash := flag.String("hash", "", "print a bcrypt hash for RECRUITER_PASSWORD_HASH and exit")
	profile := flag.String("profile", "backend-engineer", "profile to seed")
	flag.Parse()

	if *hash != "" {
		h, err := service.HashPassword(*hash)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(h)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.ConfigureLogging()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	bank := service.NewBankService(
		repository.NewQuestionRepo(client.Database(cfg.MongoDB)),
		cache.NewBankCache(rdb, cfg.BankCacheTTL),
		service.RetryPolicy{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay},
	)

	existing, err := bank.Bank(ctx, *profile)
	if err == nil && existing.Len() > 0 {
		fmt.Printf("Profile '%s' already has %d published questions, nothing to do\n", *profile, existing.Len())
		return
	}

	for _, q := range sampleQuestions(*profile) {
		created, err := bank.CreateQuestion(ctx, q)
		if err != nil {
			log.Fatalf("Failed to create question %q: %v", q.Prompt, err)
		}
		if _, err := bank.PublishQuestion(ctx, created.ID); err != nil {
			log.Fatalf("Failed to publish question %s: %v", created.ID, err)
		}
	}

	fmt.Printf("Successfully seeded profile '%s'\n", *profile)
}

func sampleQuestions(profile string) []*model.Question {
	return []*model.Question{
		{
			Profile:  profile,
			Category: model.CategoryTechnical,
			Prompt:   "Which HTTP status code should an idempotent PUT return when it replaces an existing resource?",
			Choices: []model.Choice{
				{Key: "a", Text: "200 OK", Traits: map[string]float64{"TA": 10}},
				{Key: "b", Text: "201 Created", Traits: map[string]float64{"TA": 4}},
				{Key: "c", Text: "202 Accepted"},
				{Key: "d", Text: "409 Conflict"},
			},
			CorrectChoice: "a",
			Weight:        20,
			Required:      true,
			Order:         1,
		},
		{
			Profile:  profile,
			Category: model.CategoryTechnical,
			Prompt:   "A unique index exists on (candidateId) where status is open. What does a second concurrent insert for the same candidate get?",
			Choices: []model.Choice{
				{Key: "a", Text: "Both inserts succeed"},
				{Key: "b", Text: "A duplicate key error", Traits: map[string]float64{"TA": 10}},
				{Key: "c", Text: "The first insert is overwritten"},
			},
			CorrectChoice: "b",
			Weight:        20,
			Required:      true,
			Order:         2,
		},
		{
			Profile:  profile,
			Category: model.CategoryEthical,
			Prompt:   "You notice a teammate's change logs customer email addresses in plain text. The release ships in an hour. What do you do?",
			Choices: []model.Choice{
				{Key: "a", Text: "Flag it now and ask to hold the release until it is fixed", Traits: map[string]float64{"ER": 10, "SL": 5}},
				{Key: "b", Text: "Open a ticket for next sprint", Traits: map[string]float64{"ER": 5, "BP": 5}},
				{Key: "c", Text: "Say nothing, it is not your change"},
			},
			Grades: map[string]model.Grade{
				"a": model.GradeBest,
				"b": model.GradeAcceptable,
				"c": model.GradePoor,
			},
			Weight:   30,
			Required: true,
			Order:    3,
		},
		{
			Profile:  profile,
			Category: model.CategoryEthical,
			Prompt:   "Your manager asks you to report a feature as done for a demo although its tests are failing. How do you respond?",
			Choices: []model.Choice{
				{Key: "a", Text: "Report it as done"},
				{Key: "b", Text: "Demo it but state clearly that tests are failing", Traits: map[string]float64{"ER": 10, "BP": 10}},
				{Key: "c", Text: "Refuse to demo it at all", Traits: map[string]float64{"ER": 5}},
			},
			Grades: map[string]model.Grade{
				"a": model.GradePoor,
				"b": model.GradeBest,
				"c": model.GradeAcceptable,
			},
			Weight:   30,
			Required: false,
			Order:    4,
		},
	}
}
