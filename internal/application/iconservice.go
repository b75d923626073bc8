package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// IconService manages the shared icon catalog. Icons outlive the groups that
// use them; a referenced icon cannot be deleted.
type IconService struct {
	gate  *Gate
	icons driven.IconStore
	log   *slog.Logger
}

// NewIconService creates a new IconService with the required dependencies.
func NewIconService(gate *Gate, icons driven.IconStore, logger *slog.Logger) *IconService {
	return &IconService{gate: gate, icons: icons, log: logger.With("service", "icons")}
}

// AddIcon adds an icon to the catalog. An empty provider resolves to
// model.DefaultIconProvider.
func (s *IconService) AddIcon(ctx context.Context, name string, provider model.IconProvider) (int64, error) {
	if err := requireText(textField{name: "name", value: name}); err != nil {
		return 0, err
	}
	if provider == "" {
		provider = model.DefaultIconProvider
	}
	if !provider.Valid() {
		return 0, model.NewValidationError("provider", fmt.Sprintf("unknown icon provider %q", provider))
	}

	var id int64
	err := s.gate.mutate(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.icons.Create(ctx, model.Icon{Name: name, Provider: provider})
		if err != nil {
			return metadataErr("insert", "icon "+name, err)
		}
		return nil
	})
	return id, err
}

// EnsureDefaultIcon seeds the default icon when the catalog is empty and
// reports whether it did.
func (s *IconService) EnsureDefaultIcon(ctx context.Context) (bool, error) {
	var created bool
	err := s.gate.mutate(ctx, func(ctx context.Context) error {
		n, err := s.icons.Count(ctx)
		if err != nil {
			return metadataErr("count", "icons", err)
		}
		if n > 0 {
			return nil
		}
		if _, err := s.icons.Create(ctx, model.Icon{Name: model.DefaultIconName, Provider: model.DefaultIconProvider}); err != nil {
			return metadataErr("insert", "icon "+model.DefaultIconName, err)
		}
		created = true
		return nil
	})
	if created {
		s.log.InfoContext(ctx, "default icon seeded", slog.String("icon", model.DefaultIconName))
	}
	return created, err
}

// ListIcons returns the catalog ordered by name.
func (s *IconService) ListIcons(ctx context.Context) ([]model.Icon, error) {
	var icons []model.Icon
	err := s.gate.query(ctx, func(ctx context.Context) error {
		var err error
		icons, err = s.icons.ListAll(ctx)
		if err != nil {
			return metadataErr("list", "icons", err)
		}
		return nil
	})
	return icons, err
}

// DeleteIcon removes an unreferenced icon.
func (s *IconService) DeleteIcon(ctx context.Context, id int64) error {
	return s.gate.mutate(ctx, func(ctx context.Context) error {
		used, err := s.icons.IsReferenced(ctx, id)
		if err != nil {
			return metadataErr("get", entityID("icon", id), err)
		}
		if used {
			return fmt.Errorf("icon %d: %w", id, model.ErrIconInUse)
		}

		err = s.icons.Delete(ctx, id)
		switch {
		case errors.Is(err, driven.ErrIconNotFound):
			return notFound("icon", id)
		case errors.Is(err, model.ErrIconInUse):
			return fmt.Errorf("icon %d: %w", id, model.ErrIconInUse)
		case err != nil:
			return metadataErr("delete", entityID("icon", id), err)
		}
		s.log.InfoContext(ctx, "icon deleted", slog.Int64("icon_id", id))
		return nil
	})
}

// PruneUnusedIcons deletes every icon no group references, sparing the
// default icon, and returns how many were removed.
func (s *IconService) PruneUnusedIcons(ctx context.Context) (int, error) {
	var removed int
	err := s.gate.mutate(ctx, func(ctx context.Context) error {
		icons, err := s.icons.ListAll(ctx)
		if err != nil {
			return metadataErr("list", "icons", err)
		}
		var keep []int64
		for _, icon := range icons {
			if icon.Name == model.DefaultIconName && icon.Provider == model.DefaultIconProvider {
				keep = append(keep, icon.ID)
			}
		}

		removed, err = s.icons.DeleteUnreferenced(ctx, keep)
		if err != nil {
			return metadataErr("prune", "icons", err)
		}
		return nil
	})
	if err == nil && removed > 0 {
		s.log.InfoContext(ctx, "unused icons pruned", slog.Int("removed", removed))
	}
	return removed, err
}
