package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/redaia-api/internal/dto"
	"github.com/noah-isme/redaia-api/internal/models"
	"github.com/noah-isme/redaia-api/internal/repository"
)

var (
	// ErrThemeNotFound is returned when a theme is missing or inactive.
	ErrThemeNotFound = errors.New("theme not found")
	// ErrNoActiveThemes is returned when a random theme is requested but none are active.
	ErrNoActiveThemes = errors.New("no active themes available")
)

// ThemeService exposes the essay theme catalogue.
type ThemeService interface {
	List(ctx context.Context) ([]dto.ThemeResponse, error)
	Random(ctx context.Context) (dto.ThemeResponse, error)
	Get(ctx context.Context, id uint) (dto.ThemeResponse, error)
	Seed(ctx context.Context) (int64, error)
}

type themeService struct {
	repo   repository.ThemeRepository
	logger zerolog.Logger
}

// NewThemeService constructs the theme service.
func NewThemeService(repo repository.ThemeRepository, logger zerolog.Logger) ThemeService {
	return &themeService{
		repo:   repo,
		logger: logger.With().Str("component", "theme_service").Logger(),
	}
}

func (s *themeService) List(ctx context.Context) ([]dto.ThemeResponse, error) {
	themes, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewThemeResponses(themes), nil
}

func (s *themeService) Random(ctx context.Context) (dto.ThemeResponse, error) {
	theme, err := s.repo.RandomActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ThemeResponse{}, ErrNoActiveThemes
		}
		return dto.ThemeResponse{}, err
	}
	return dto.NewThemeResponse(theme), nil
}

func (s *themeService) Get(ctx context.Context, id uint) (dto.ThemeResponse, error) {
	theme, err := s.repo.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ThemeResponse{}, ErrThemeNotFound
		}
		return dto.ThemeResponse{}, err
	}
	return dto.NewThemeResponse(theme), nil
}

// Seed installs the default catalogue when the table is empty. It returns
// the number of inserted themes.
func (s *themeService) Seed(ctx context.Context) (int64, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total > 0 {
		s.logger.Debug().Int64("themes", total).Msg("theme catalogue already seeded")
		return 0, nil
	}

	inserted, err := s.repo.UpsertBatch(ctx, DefaultThemes())
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("themes", inserted).Msg("theme catalogue seeded")
	return inserted, nil
}

// DefaultThemes returns the built-in catalogue of ENEM-style prompts.
func DefaultThemes() []models.Theme {
	return []models.Theme{
		{Title: "Desafios da educação no Brasil", Description: "Discuta os principais desafios enfrentados pelo sistema educacional brasileiro e proponha soluções.", Category: "Educação"},
		{Title: "Sustentabilidade e meio ambiente", Description: "Analise a importância da sustentabilidade para o futuro do planeta e as ações necessárias.", Category: "Meio Ambiente"},
		{Title: "Inclusão social e diversidade", Description: "Reflita sobre a importância da inclusão social e do respeito à diversidade na sociedade brasileira.", Category: "Social"},
		{Title: "Tecnologia e sociedade", Description: "Examine o impacto das tecnologias digitais nas relações sociais e no mercado de trabalho.", Category: "Tecnologia"},
		{Title: "Saúde pública no Brasil", Description: "Avalie os desafios do sistema de saúde pública brasileiro e possíveis melhorias.", Category: "Saúde"},
		{Title: "Violência urbana e segurança pública", Description: "Discuta as causas da violência urbana e estratégias para aumentar a segurança pública.", Category: "Segurança"},
		{Title: "Desigualdade social e econômica", Description: "Analise as causas e consequências da desigualdade social no Brasil.", Category: "Social"},
		{Title: "Mobilidade urbana e transporte público", Description: "Reflita sobre os desafios da mobilidade nas grandes cidades brasileiras.", Category: "Infraestrutura"},
		{Title: "Alimentação saudável e segurança alimentar", Description: "Discuta a importância da alimentação saudável e o combate à fome no Brasil.", Category: "Saúde"},
		{Title: "Democracia e participação política", Description: "Analise a importância da participação cidadã para o fortalecimento da democracia.", Category: "Política"},
		{Title: "Cultura e identidade nacional", Description: "Reflita sobre a valorização da cultura brasileira e a construção da identidade nacional.", Category: "Cultura"},
		{Title: "Desafios da juventude no Brasil", Description: "Discuta os obstáculos enfrentados pelos jovens brasileiros na educação e no trabalho.", Category: "Social"},
		{Title: "Inteligência artificial e futuro do trabalho", Description: "Analise os impactos da inteligência artificial sobre o emprego e as profissões.", Category: "Tecnologia"},
		{Title: "Fake news e informação na era digital", Description: "Discuta os efeitos da desinformação e formas de combatê-la nas redes sociais.", Category: "Tecnologia"},
		{Title: "Preservação de ecossistemas brasileiros", Description: "Reflita sobre a proteção da Amazônia, do Cerrado e de outros biomas ameaçados.", Category: "Meio Ambiente"},
		{Title: "Acesso à justiça e direitos humanos", Description: "Analise as barreiras de acesso à justiça e a garantia dos direitos humanos no país.", Category: "Direitos"},
		{Title: "Evasão escolar e permanência estudantil", Description: "Discuta as causas da evasão escolar e políticas para manter os estudantes na escola.", Category: "Educação"},
		{Title: "Envelhecimento populacional e políticas públicas", Description: "Reflita sobre os desafios trazidos pelo envelhecimento da população brasileira.", Category: "Saúde"},
		{Title: "Economia criativa e empreendedorismo", Description: "Analise o potencial da economia criativa e do empreendedorismo para o desenvolvimento.", Category: "Economia"},
		{Title: "Habitabilidade e moradia digna", Description: "Discuta o déficit habitacional e o direito à moradia digna nas cidades brasileiras.", Category: "Infraestrutura"},
	}
}
