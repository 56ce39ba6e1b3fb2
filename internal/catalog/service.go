package catalog

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log.With().Str("component", "catalog").Logger()}
}

func (s *Service) Create(ctx context.Context, p NewProduct) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	out, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.log.Info().Int64("product_id", out.ID).Str("article", out.Article).Msg("product created")
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]Product, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return s.repo.List(ctx, q)
}

func (s *Service) Update(ctx context.Context, id int64, u ProductUpdate) (Product, error) {
	if err := u.Validate(); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, u)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}
