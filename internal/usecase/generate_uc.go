package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
	"learnloop/internal/domain/ports/repository"
	"learnloop/internal/infra/logging"
)

var _ GenerateUseCase = (*generateUC)(nil)

// GenerateUseCase is the synchronous generation path: one request, one model
// call, quizzes saved before the response returns. The batch pipeline covers
// everything that can wait.
type GenerateUseCase interface {
	GenerateFromContent(ctx context.Context, userID, content, sourceURL string) ([]*model.Quiz, error)
}

type generateUC struct {
	ai       adapter.AIServiceAdapter
	scraper  adapter.Scraper
	quizzes  QuizUseCase
	tm       repository.TransactionManager
	model    string
	minChars int
	maxChars int
	log      *zerolog.Logger
}

func NewGenerateUseCase(
	ai adapter.AIServiceAdapter,
	scraper adapter.Scraper,
	quizzes QuizUseCase,
	tm repository.TransactionManager,
	modelName string,
	minChars, maxChars int,
	logger *zerolog.Logger,
) *generateUC {
	return &generateUC{
		ai:       ai,
		scraper:  scraper,
		quizzes:  quizzes,
		tm:       tm,
		model:    modelName,
		minChars: minChars,
		maxChars: maxChars,
		log:      logger,
	}
}

// GenerateFromContent resolves usable source material, calls the model and
// persists the validated result. When the given content is too short and a
// URL is present, the page text is scraped as a fallback.
func (u *generateUC) GenerateFromContent(ctx context.Context, userID, content, sourceURL string) ([]*model.Quiz, error) {
	defer logging.TraceDuration(u.log, "GenerateUC.GenerateFromContent")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	material, err := u.resolveMaterial(ctx, content, sourceURL)
	if err != nil {
		return nil, err
	}

	raw, err := u.ai.Chat(ctx, u.model, adapter.QuizGenerationMessages(material))
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}
	set, err := u.quizzes.ParseGenerated(raw)
	if err != nil {
		return nil, err
	}

	sourceType := model.SourceTypeManual
	if sourceURL != "" {
		sourceType = model.SourceTypeImport
	}

	var saved []*model.Quiz
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		saved, err = u.quizzes.SaveGenerated(ctx, tx, userID, set, sourceType, sourceURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (u *generateUC) resolveMaterial(ctx context.Context, content, sourceURL string) (string, error) {
	material := strings.TrimSpace(content)
	if len(material) < u.minChars && sourceURL != "" && u.scraper != nil {
		scraped, err := u.scraper.ScrapeURL(ctx, sourceURL)
		if err != nil {
			u.log.Warn().Err(err).Str("url", sourceURL).Msg("scrape fallback failed")
		} else if len(strings.TrimSpace(scraped)) > len(material) {
			material = strings.TrimSpace(scraped)
		}
	}
	if len(material) < u.minChars {
		return "", fmt.Errorf("%w: %d chars, need %d", domain.ErrContentInsufficient, len(material), u.minChars)
	}
	if len(material) > u.maxChars {
		material = material[:u.maxChars]
	}
	return material, nil
}
