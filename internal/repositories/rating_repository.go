package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
)

type RatingRepository struct {
	DB *sql.DB
}

// Create inserts the rating. Uniqueness per service request is enforced by
// the unique key on ratings.service_request_id, so two near-simultaneous
// submissions cannot both succeed; the loser gets models.ErrAlreadyRated.
func (r *RatingRepository) Create(ctx context.Context, rating models.Rating) (models.Rating, error) {
	rating.ID = uuid.NewString()
	rating.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO ratings (id, service_request_id, client_id, provider_id, stars, comment, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.DB.ExecContext(ctx, query,
		rating.ID, rating.ServiceRequestID, rating.ClientID, rating.ProviderID,
		rating.Stars, rating.Comment, rating.CreatedAt,
	)
	if isDuplicateKeyError(err) {
		return models.Rating{}, models.ErrAlreadyRated
	}
	if err != nil {
		return models.Rating{}, err
	}
	return rating, nil
}

func (r *RatingRepository) ListByProvider(ctx context.Context, providerID string) ([]models.Rating, error) {
	query := `
        SELECT id, service_request_id, client_id, provider_id, stars, comment, created_at
        FROM ratings
        WHERE provider_id = ?
        ORDER BY created_at DESC
    `
	rows, err := r.DB.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rating models.Rating
		if err := rows.Scan(&rating.ID, &rating.ServiceRequestID, &rating.ClientID,
			&rating.ProviderID, &rating.Stars, &rating.Comment, &rating.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
