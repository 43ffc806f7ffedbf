// internal/service/template_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/repository"
)

type TemplateLister interface {
	ListTemplates(ctx context.Context) ([]model.Template, error)
}

type TemplateService struct {
	Provider     TemplateLister
	TemplateRepo repository.TemplateRepositoryInterface
	Log          zerolog.Logger
}

// Sync mirrors the provider's template list into the store. An empty
// provider list leaves the store untouched.
func (s *TemplateService) Sync(ctx context.Context) (*model.TemplateSyncResult, error) {
	templates, err := s.Provider.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list provider templates: %w", err)
	}
	s.Log.Info().Int("count", len(templates)).Msg("templates fetched from provider")

	if len(templates) == 0 {
		return &model.TemplateSyncResult{SyncedAt: time.Now()}, nil
	}

	inserted, updated, err := s.TemplateRepo.UpsertMany(ctx, templates)
	if err != nil {
		return nil, fmt.Errorf("upsert templates: %w", err)
	}

	codes := make([]string, len(templates))
	for i, t := range templates {
		codes[i] = t.Code
	}
	deleted, err := s.TemplateRepo.DeleteNotIn(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("delete stale templates: %w", err)
	}

	result := &model.TemplateSyncResult{
		TotalFromProvider: len(templates),
		Inserted:          inserted,
		Updated:           updated,
		Deleted:           deleted,
		SyncedAt:          time.Now(),
	}
	s.Log.Info().
		Int("inserted", inserted).
		Int("updated", updated).
		Int("deleted", deleted).
		Msg("template sync finished")
	return result, nil
}
