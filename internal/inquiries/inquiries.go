// Package inquiries manages customer support tickets and their reply
// threads.
package inquiries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"razorkart/internal/store"
)

type Conf struct {
	store store.Store
}

func NewConf(s store.Store) (*Conf, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Conf{store: s}, nil
}

// InsertInquiry files a new ticket. submitterID is empty for anonymous
// submissions.
func (c *Conf) InsertInquiry(ctx context.Context, ni NewInquiry, submitterID string) (Inquiry, error) {
	now := time.Now().UTC()
	inquiry := Inquiry{
		ID:          uuid.NewString(),
		SubmitterID: submitterID,
		Email:       strings.ToLower(strings.TrimSpace(ni.Email)),
		Subject:     ni.Subject,
		Message:     ni.Message,
		Status:      StatusPending,
		Replies:     []Reply{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.Create(ctx, Entity, inquiry.ID, inquiry); err != nil {
		return Inquiry{}, fmt.Errorf("failed to insert inquiry: %w", err)
	}
	return inquiry, nil
}

func (c *Conf) GetInquiryByID(ctx context.Context, id string) (Inquiry, error) {
	var inquiry Inquiry
	if err := c.store.Get(ctx, Entity, id, &inquiry); err != nil {
		return Inquiry{}, err
	}
	return inquiry, nil
}

func (c *Conf) ListInquiries(ctx context.Context) ([]Inquiry, error) {
	records, err := c.store.Query(ctx, Entity, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	inquiries := make([]Inquiry, 0, len(records))
	for _, r := range records {
		var i Inquiry
		if err := store.Decode(r, &i); err != nil {
			return nil, fmt.Errorf("failed to decode inquiry: %w", err)
		}
		inquiries = append(inquiries, i)
	}
	return inquiries, nil
}

func (c *Conf) AddReply(ctx context.Context, id, authorID, message string) (Inquiry, error) {
	var updated Inquiry
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var inquiry Inquiry
		if err := tx.GetForUpdate(ctx, Entity, id, &inquiry); err != nil {
			return err
		}

		inquiry.Replies = append(inquiry.Replies, Reply{
			ID:        uuid.NewString(),
			AuthorID:  authorID,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		})
		if inquiry.Status == StatusPending {
			inquiry.Status = StatusInProgress
		}
		inquiry.UpdatedAt = time.Now().UTC()

		if err := tx.Update(ctx, Entity, id, inquiry); err != nil {
			return fmt.Errorf("failed to update inquiry: %w", err)
		}
		updated = inquiry
		return nil
	})
	if err != nil {
		return Inquiry{}, err
	}
	return updated, nil
}

func (c *Conf) UpdateStatus(ctx context.Context, id, status string) (Inquiry, error) {
	var updated Inquiry
	err := c.store.WithTx(ctx, func(tx store.Tx) error {
		var inquiry Inquiry
		if err := tx.GetForUpdate(ctx, Entity, id, &inquiry); err != nil {
			return err
		}
		inquiry.Status = status
		inquiry.UpdatedAt = time.Now().UTC()
		if err := tx.Update(ctx, Entity, id, inquiry); err != nil {
			return fmt.Errorf("failed to update inquiry: %w", err)
		}
		updated = inquiry
		return nil
	})
	if err != nil {
		return Inquiry{}, err
	}
	return updated, nil
}

func (c *Conf) DeleteInquiry(ctx context.Context, id string) error {
	return c.store.Delete(ctx, Entity, id)
}
