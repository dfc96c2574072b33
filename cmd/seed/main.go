package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"

	"screening-bot-be/internal/bootstrap"
	"screening-bot-be/internal/config"
	"screening-bot-be/internal/dto"
	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/internal/pkg/serverutils"
	"screening-bot-be/internal/repository/memory"
	"screening-bot-be/internal/service"
	"screening-bot-be/pkg/embedding"
	"screening-bot-be/pkg/events"
	"screening-bot-be/pkg/session"
)

// seed imports every *.json questionnaire definition in a directory. Files
// whose questionnaire already exists are skipped, so it is safe to rerun.
func main() {
	dir := flag.String("dir", "questionnaires", "directory holding questionnaire definition files")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	repos, err := bootstrap.NewRepositories(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer repos.Close()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer sysLogger.Sync()

	// Import never touches sessions or events; the no-op collaborators keep
	// the constructor satisfied.
	questionnaires := service.NewQuestionnaireService(
		repos.Questionnaires,
		repos.ChatRecords,
		session.NewManager(memory.NewSessionRepository(0, 0), sysLogger),
		embedding.NewEmbedder(bootstrap.NewEmbeddingProvider(cfg), embedding.TaskTypeRetrievalDocument),
		discardPublisher{},
		sysLogger,
	)

	imported, skipped, err := seedDir(ctx, questionnaires, *dir)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeding finished: %d imported, %d skipped", imported, skipped)
}

func seedDir(ctx context.Context, questionnaires service.IQuestionnaireService, dir string) (imported, skipped int, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, 0, err
	}
	sort.Strings(files)

	for _, file := range files {
		req, err := readDefinition(file)
		if err != nil {
			return imported, skipped, err
		}

		res, err := questionnaires.Import(ctx, req)
		if errors.Is(err, apperror.ErrDuplicateQuestionnaire) {
			log.Printf("Skipping %s: questionnaire %q already exists", filepath.Base(file), req.Questionnaire)
			skipped++
			continue
		}
		if err != nil {
			return imported, skipped, err
		}

		log.Printf("Imported %q with %d questions", res.Name, res.Questions)
		imported++
	}
	return imported, skipped, nil
}

func readDefinition(file string) (*dto.ImportQuestionnaireRequest, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var req dto.ImportQuestionnaireRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

type discardPublisher struct{}

func (discardPublisher) Publish(ctx context.Context, event events.Event) error { return nil }
