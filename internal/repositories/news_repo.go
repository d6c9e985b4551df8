package repositories

import (
	"context"
	"fmt"

	"github.com/mystic-aac/accountcenter/internal/database"
	"github.com/mystic-aac/accountcenter/internal/models"
)

type NewsRepository struct {
	db database.Querier
}

func NewNewsRepository(db database.Querier) *NewsRepository {
	return &NewsRepository{db: db}
}

const newsColumns = `n.id, n.title, n.summary, n.content, n.date, n.author_id, COALESCE(a.username, '` + models.DefaultAuthorName + `'), n.created_at, n.updated_at`

const newsFrom = ` FROM news n LEFT JOIN accounts a ON a.id = n.author_id`

// newsFromWritten selects from a data-modifying CTE named n
const newsFromWritten = ` FROM n LEFT JOIN accounts a ON a.id = n.author_id`

func scanNewsRow(scanner rowScanner) (*models.News, error) {
	var news models.News
	var authorID *int64

	err := scanner.Scan(
		&news.ID, &news.Title, &news.Summary, &news.Content, &news.Date,
		&authorID, &news.AuthorName, &news.CreatedAt, &news.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	news.AuthorID = authorID
	return &news, nil
}

// Latest returns the newest items first. Content is omitted for list views.
func (r *NewsRepository) Latest(ctx context.Context, limit int) ([]models.News, error) {
	query := `SELECT ` + newsColumns + newsFrom + ` ORDER BY n.date DESC, n.id DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	items := make([]models.News, 0, limit)
	for rows.Next() {
		item, err := scanNewsRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news: %w", err)
		}
		item.Content = ""
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, nil
}

func (r *NewsRepository) GetByID(ctx context.Context, id int64) (*models.News, error) {
	query := `SELECT ` + newsColumns + newsFrom + ` WHERE n.id = $1`
	return scanNewsRow(r.db.QueryRow(ctx, query, id))
}

func (r *NewsRepository) Create(ctx context.Context, news *models.News) (*models.News, error) {
	query := `
		WITH n AS (
			INSERT INTO news (title, summary, content, author_id)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT ` + newsColumns + newsFromWritten

	return scanNewsRow(r.db.QueryRow(ctx, query, news.Title, news.Summary, news.Content, news.AuthorID))
}

func (r *NewsRepository) Update(ctx context.Context, id int64, news *models.News) (*models.News, error) {
	query := `
		WITH n AS (
			UPDATE news SET title = $1, summary = $2, content = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING *
		)
		SELECT ` + newsColumns + newsFromWritten

	return scanNewsRow(r.db.QueryRow(ctx, query, news.Title, news.Summary, news.Content, id))
}

func (r *NewsRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
