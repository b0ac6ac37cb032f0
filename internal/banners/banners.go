// Package banners manages the promotional banners content managers run on
// the storefront. Only banners inside their active window are public.
package banners

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"razorkart/internal/store"
	"razorkart/internal/visibility"
)

const Entity = "banner"

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url,omitempty"`
	Active    bool      `json:"active"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Live reports whether the banner should be shown right now.
func (b Banner) Live(now time.Time) bool {
	return b.Active && !now.Before(b.StartsAt) && now.Before(b.EndsAt)
}

func (b Banner) VisibilityAttrs() visibility.Attrs {
	return visibility.Attrs{Public: b.Live(time.Now().UTC())}
}

// NewBanner is the creation payload.
type NewBanner struct {
	Title    string    `json:"title" validate:"required"`
	ImageURL string    `json:"image_url" validate:"required,url"`
	LinkURL  string    `json:"link_url" validate:"omitempty,url"`
	Active   bool      `json:"active"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type Conf struct {
	store store.Store
}

func NewConf(s store.Store) (*Conf, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Conf{store: s}, nil
}

func (c *Conf) InsertBanner(ctx context.Context, nb NewBanner) (Banner, error) {
	now := time.Now().UTC()
	banner := Banner{
		ID:        uuid.NewString(),
		Title:     nb.Title,
		ImageURL:  nb.ImageURL,
		LinkURL:   nb.LinkURL,
		Active:    nb.Active,
		StartsAt:  nb.StartsAt,
		EndsAt:    nb.EndsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if banner.EndsAt.IsZero() {
		// Banners without an explicit window run until taken down.
		banner.EndsAt = now.AddDate(10, 0, 0)
	}
	if err := c.store.Create(ctx, Entity, banner.ID, banner); err != nil {
		return Banner{}, fmt.Errorf("failed to insert banner: %w", err)
	}
	return banner, nil
}

func (c *Conf) GetBannerByID(ctx context.Context, id string) (Banner, error) {
	var banner Banner
	if err := c.store.Get(ctx, Entity, id, &banner); err != nil {
		return Banner{}, err
	}
	return banner, nil
}

func (c *Conf) ListBanners(ctx context.Context) ([]Banner, error) {
	records, err := c.store.Query(ctx, Entity, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	banners := make([]Banner, 0, len(records))
	for _, r := range records {
		var b Banner
		if err := store.Decode(r, &b); err != nil {
			return nil, fmt.Errorf("failed to decode banner: %w", err)
		}
		banners = append(banners, b)
	}
	return banners, nil
}

func (c *Conf) UpdateBanner(ctx context.Context, id string, nb NewBanner) (Banner, error) {
	var updated Banner
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var banner Banner
		if err := tx.GetForUpdate(ctx, Entity, id, &banner); err != nil {
			return err
		}

		banner.Title = nb.Title
		banner.ImageURL = nb.ImageURL
		banner.LinkURL = nb.LinkURL
		banner.Active = nb.Active
		banner.StartsAt = nb.StartsAt
		banner.EndsAt = nb.EndsAt
		banner.UpdatedAt = time.Now().UTC()

		if err := tx.Update(ctx, Entity, id, banner); err != nil {
			return fmt.Errorf("failed to update banner: %w", err)
		}
		updated = banner
		return nil
	})
	if err != nil {
		return Banner{}, err
	}
	return updated, nil
}

func (c *Conf) DeleteBanner(ctx context.Context, id string) error {
	return c.store.Delete(ctx, Entity, id)
}
