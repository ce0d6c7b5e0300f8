package listings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/staylink/rentops/internal/avito"
	"github.com/staylink/rentops/internal/domain"
	"github.com/staylink/rentops/internal/repo/postgres"
	"github.com/staylink/rentops/pkg/events"
	"github.com/staylink/rentops/pkg/logger"
)

// PlatformClient is the slice of the platform facade the syncer needs.
type PlatformClient interface {
	ListItems(ctx context.Context, opts avito.ListItemsOptions) ([]avito.Item, error)
	GetItem(ctx context.Context, itemID int64) (*avito.Item, error)
}

// Syncer refreshes the local listing cache from the platform so the
// landlord surface can render listings without a network round trip.
type Syncer struct {
	client PlatformClient
	repo   postgres.ListingRepository
	bus    events.Publisher
}

// NewSyncer builds a syncer. bus may be nil; sync announcements are then
// skipped.
func NewSyncer(client PlatformClient, repo postgres.ListingRepository, bus events.Publisher) *Syncer {
	return &Syncer{client: client, repo: repo, bus: bus}
}

// ListingSyncedEvent announces one refreshed listing on the event bus.
type ListingSyncedEvent struct {
	ItemID   int64     `json:"item_id"`
	Title    string    `json:"title,omitempty"`
	SyncedAt time.Time `json:"synced_at"`
}

// Sync pulls all active items page by page and upserts each into the
// listing store. It returns the number of listings refreshed; a platform
// failure aborts the run with the listings refreshed so far already
// committed.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	synced := 0

	for page := 1; ; page++ {
		items, err := s.client.ListItems(ctx, avito.ListItemsOptions{
			Status:  "active",
			Page:    page,
			PerPage: avito.DefaultItemsPerPage,
		})
		if err != nil {
			return synced, err
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if err := s.syncItem(ctx, item); err != nil {
				return synced, err
			}
			synced++
		}

		if len(items) < avito.DefaultItemsPerPage {
			break
		}
	}

	logger.InfoContext(ctx, "Listing sync finished", "synced", synced)
	return synced, nil
}

func (s *Syncer) syncItem(ctx context.Context, item avito.Item) error {
	// The list endpoint omits address and other detail fields.
	detail, err := s.client.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(detail)
	if err != nil {
		return err
	}

	listing, err := s.repo.Upsert(ctx, &domain.Listing{
		ItemID:   detail.ID,
		Title:    detail.Title,
		Address:  detail.Address,
		Price:    detail.Price,
		Metadata: metadata,
	})
	if err != nil {
		return err
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.ListingSynced, ListingSyncedEvent{
			ItemID:   listing.ItemID,
			Title:    listing.Title,
			SyncedAt: time.Now().UTC(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to announce listing sync", "item_id", listing.ItemID, "error", err)
		}
	}
	return nil
}
