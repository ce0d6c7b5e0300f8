package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staylink/rentops/internal/domain"
)

var ErrListingNotFound = errors.New("listing not found")

type ListingRepository interface {
	Upsert(ctx context.Context, listing *domain.Listing) (*domain.Listing, error)
	GetByItemID(ctx context.Context, itemID int64) (*domain.Listing, error)
	List(ctx context.Context, limit, offset int) ([]domain.Listing, error)
}

type listingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

const listingCols = `id, item_id, title, address, price, metadata, last_fetched_at, created_at, updated_at`

func (r *listingRepository) Upsert(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	const q = `INSERT INTO listings (item_id, title, address, price, metadata, last_fetched_at)
	VALUES ($1,$2,$3,$4,$5,now())
	ON CONFLICT (item_id) DO UPDATE SET
		title = EXCLUDED.title,
		address = EXCLUDED.address,
		price = EXCLUDED.price,
		metadata = EXCLUDED.metadata,
		last_fetched_at = now(),
		updated_at = now()
	RETURNING ` + listingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var l domain.Listing
	err := r.pool.QueryRow(ctx, q,
		listing.ItemID, listing.Title, listing.Address, listing.Price, listing.Metadata,
	).Scan(
		&l.ID, &l.ItemID, &l.Title, &l.Address, &l.Price, &l.Metadata,
		&l.LastFetchedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) GetByItemID(ctx context.Context, itemID int64) (*domain.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE item_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var l domain.Listing
	err := r.pool.QueryRow(ctx, q, itemID).Scan(
		&l.ID, &l.ItemID, &l.Title, &l.Address, &l.Price, &l.Metadata,
		&l.LastFetchedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) List(ctx context.Context, limit, offset int) ([]domain.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings ORDER BY item_id LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(
			&l.ID, &l.ItemID, &l.Title, &l.Address, &l.Price, &l.Metadata,
			&l.LastFetchedAt, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
