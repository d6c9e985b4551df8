package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/mystic-aac/accountcenter/internal/database"
	"github.com/mystic-aac/accountcenter/internal/models"
)

type PlayerRepository struct {
	db database.Pool
}

func NewPlayerRepository(db database.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `p.id, p.account_id, p.name, p.vocation, p.sex, p.world, p.level, p.experience,
	p.health, p.healthmax, p.mana, p.manamax, p.town_id, p.looktype, p.avatar, p.created_at, p.updated_at`

func scanPlayerRow(scanner rowScanner, extra ...any) (*models.Player, error) {
	var player models.Player
	var vocation int
	var sex string
	var avatar *string

	dest := []any{
		&player.ID, &player.AccountID, &player.Name, &vocation, &sex, &player.World,
		&player.Level, &player.Experience, &player.Health, &player.HealthMax,
		&player.Mana, &player.ManaMax, &player.TownID, &player.LookType, &avatar,
		&player.CreatedAt, &player.UpdatedAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	player.Vocation = models.Vocation(vocation)
	player.Sex = models.Sex(sex)
	if avatar != nil {
		player.Avatar = *avatar
	}
	return &player, nil
}

func scanPlayerRows(rows pgx.Rows) ([]models.Player, error) {
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		player, err := scanPlayerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *player)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return players, nil
}

// nameConflict turns a unique violation on the name column into ErrNameTaken
func nameConflict(err error) error {
	if errors.Is(err, models.ErrConflict) {
		return fmt.Errorf("%w: %w", models.ErrNameTaken, models.ErrConflict)
	}
	return err
}

func (r *PlayerRepository) Create(ctx context.Context, p *models.Player) (*models.Player, error) {
	query := `
		INSERT INTO players AS p (account_id, name, vocation, sex, world, level, experience,
			health, healthmax, mana, manamax, town_id, looktype)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + playerColumns

	created, err := scanPlayerRow(r.db.QueryRow(ctx, query,
		p.AccountID, p.Name, int(p.Vocation), string(p.Sex), p.World, p.Level, p.Experience,
		p.Health, p.HealthMax, p.Mana, p.ManaMax, p.TownID, p.LookType,
	))
	if err != nil {
		return nil, nameConflict(err)
	}
	return created, nil
}

// GetByID returns the player with its owner's username
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `, a.username
		FROM players p JOIN accounts a ON a.id = p.account_id
		WHERE p.id = $1
	`

	var username string
	player, err := scanPlayerRow(r.db.QueryRow(ctx, query, id), &username)
	if err != nil {
		return nil, err
	}
	player.AccountUsername = username
	return player, nil
}

func (r *PlayerRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM players WHERE LOWER(name) = LOWER($1))`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check player name: %w", err)
	}
	return exists, nil
}

func (r *PlayerRepository) ListByAccount(ctx context.Context, accountID int64) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players p WHERE p.account_id = $1 ORDER BY p.level DESC, p.name`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	return scanPlayerRows(rows)
}

// buildFilter returns the WHERE clause and its arguments
func buildFilter(filter models.PlayerFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Vocation != nil {
		args = append(args, int(*filter.Vocation))
		conds = append(conds, "p.vocation = $"+strconv.Itoa(len(args)))
	}
	if filter.MinLevel > 0 {
		args = append(args, filter.MinLevel)
		conds = append(conds, "p.level >= $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one leaderboard page ordered by level and the total match count
func (r *PlayerRepository) List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM players p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count players: %w", err)
	}

	limitArg := len(args) + 1
	query := `SELECT ` + playerColumns + ` FROM players p` + where +
		` ORDER BY p.level DESC, p.experience DESC, p.id` +
		` LIMIT $` + strconv.Itoa(limitArg) + ` OFFSET $` + strconv.Itoa(limitArg+1)

	rows, err := r.db.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query players: %w", err)
	}

	players, err := scanPlayerRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return players, total, nil
}

// Update applies upd when editorID owns the player or asAdmin is set.
// The ownership check and the write share one transaction.
func (r *PlayerRepository) Update(ctx context.Context, id, editorID int64, asAdmin bool, upd models.PlayerUpdate) (*models.Player, error) {
	var updated *models.Player

	err := database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var ownerID int64
		err := tx.QueryRow(ctx, `SELECT account_id FROM players WHERE id = $1 FOR UPDATE`, id).Scan(&ownerID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if ownerID != editorID && !asAdmin {
			return models.ErrForbidden
		}

		var vocation *int
		if upd.Vocation != nil {
			v := int(*upd.Vocation)
			vocation = &v
		}

		query := `
			UPDATE players AS p SET
				name = COALESCE($1, p.name),
				avatar = COALESCE($2, p.avatar),
				vocation = COALESCE($3, p.vocation),
				updated_at = NOW()
			WHERE p.id = $4
			RETURNING ` + playerColumns

		updated, err = scanPlayerRow(tx.QueryRow(ctx, query, upd.Name, upd.Avatar, vocation, id))
		return nameConflict(err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
