package db

import (
	"context"
	"errors"
	"fmt"

	"scout-sync-go/pkg/models"

	"github.com/jackc/pgx/v5"
)

const playerColumns = `id, name, club, position, transfermarkt_id, photo_url, market_value, updated_at`

func scanPlayers(rows pgx.Rows) ([]models.Player, error) {
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Club,
			&p.Position,
			&p.TransfermarktID,
			&p.PhotoURL,
			&p.MarketValue,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ListPlayers returns every player ordered by name
func (db *DB) ListPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+playerColumns+` FROM players ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	return scanPlayers(rows)
}

// ListPlayersWithoutPhoto returns players that have a Transfermarkt id but no photo yet
func (db *DB) ListPlayersWithoutPhoto(ctx context.Context) ([]models.Player, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+playerColumns+`
		 FROM players
		 WHERE photo_url IS NULL AND transfermarkt_id IS NOT NULL
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	return scanPlayers(rows)
}

// UpdatePlayerPhoto sets the photo URL of one player
func (db *DB) UpdatePlayerPhoto(ctx context.Context, playerID int64, photoURL string) error {
	result, err := db.Pool.Exec(ctx,
		`UPDATE players SET photo_url = $2, updated_at = NOW() WHERE id = $1`,
		playerID, photoURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update player photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player %d not found", playerID)
	}
	return nil
}

// UpsertPlayer inserts a player or updates the row with the same
// Transfermarkt id. It reports whether a new row was created.
func (db *DB) UpsertPlayer(ctx context.Context, p models.PlayerUpsert) (bool, error) {
	if p.TransfermarktID == "" {
		return false, errors.New("transfermarkt id is required")
	}

	var created bool
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO players (name, club, position, transfermarkt_id, market_value)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (transfermarkt_id) DO UPDATE SET
		     name = EXCLUDED.name,
		     club = COALESCE(EXCLUDED.club, players.club),
		     position = COALESCE(EXCLUDED.position, players.position),
		     market_value = COALESCE(EXCLUDED.market_value, players.market_value),
		     updated_at = NOW()
		 RETURNING (xmax = 0)`,
		p.Name, p.Club, p.Position, p.TransfermarktID, p.MarketValue,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert player: %w", err)
	}
	return created, nil
}
