package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scout-sync-go/pkg/jobs"
	"scout-sync-go/pkg/models"

	"go.uber.org/zap"
)

// PlayerRepository is the slice of the database the scraping jobs use
type PlayerRepository interface {
	ListPlayers(ctx context.Context) ([]models.Player, error)
	ListPlayersWithoutPhoto(ctx context.Context) ([]models.Player, error)
	UpdatePlayerPhoto(ctx context.Context, playerID int64, photoURL string) error
	UpsertPlayer(ctx context.Context, p models.PlayerUpsert) (bool, error)
}

// Fetcher loads one profile page
type Fetcher interface {
	FetchProfile(ctx context.Context, idOrURL string) (*Profile, error)
}

// Runner builds the photo and data jobs registered with the job manager.
type Runner struct {
	Fetcher Fetcher
	Players PlayerRepository
	Delay   time.Duration // pause between page fetches
	Log     *zap.Logger
}

// PhotoJob fills in photo URLs for players that have none.
func (r *Runner) PhotoJob(ctx context.Context, rep *jobs.Reporter) error {
	rep.Step("Looking up players without photos")
	players, err := r.Players.ListPlayersWithoutPhoto(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	return r.each(ctx, rep, players, "Fetching photo", func(p models.Player, profile *Profile) error {
		if profile.PhotoURL == "" {
			return newExtractionError("photo not found on page")
		}
		return r.Players.UpdatePlayerPhoto(ctx, p.ID, profile.PhotoURL)
	})
}

// DataJob refreshes name, club, position and market value of every player
// with a Transfermarkt id.
func (r *Runner) DataJob(ctx context.Context, rep *jobs.Reporter) error {
	rep.Step("Looking up players")
	all, err := r.Players.ListPlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}
	players := all[:0]
	for _, p := range all {
		if p.TransfermarktID != nil && *p.TransfermarktID != "" {
			players = append(players, p)
		}
	}

	return r.each(ctx, rep, players, "Updating data", func(p models.Player, profile *Profile) error {
		_, err := r.Players.UpsertPlayer(ctx, models.PlayerUpsert{
			Name:            profile.Name,
			Club:            optional(profile.Club),
			Position:        optional(profile.Position),
			TransfermarktID: *p.TransfermarktID,
			MarketValue:     optional(profile.MarketValue),
		})
		return err
	})
}

// each fetches the profile of every player and hands it to apply. Per-player
// failures are recorded on the task and never fail it; cancellation stops the
// loop.
func (r *Runner) each(
	ctx context.Context,
	rep *jobs.Reporter,
	players []models.Player,
	verb string,
	apply func(models.Player, *Profile) error,
) error {
	log := r.logger()
	total := len(players)
	rep.SetTotal(total)
	if total == 0 {
		rep.Step("Nothing to do")
		return nil
	}

	for i, p := range players {
		if i > 0 && r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.one(ctx, p, apply)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Warn("player skipped", zap.Int64("player_id", p.ID), zap.String("name", p.Name), zap.Error(err))
			rep.AddError(fmt.Sprintf("%s: %s", p.Name, describe(err)))
		}
		rep.Progress(i+1, fmt.Sprintf("%s %d/%d", verb, i+1, total))
	}
	return nil
}

func (r *Runner) one(ctx context.Context, p models.Player, apply func(models.Player, *Profile) error) error {
	if p.TransfermarktID == nil {
		return newInvalidIDError("")
	}
	profile, err := r.fetch(ctx, *p.TransfermarktID)
	if err != nil {
		return err
	}
	return apply(p, profile)
}

// fetch loads a profile, retrying once after Delay when the failure is
// transient (network, timeout, 429 or 5xx).
func (r *Runner) fetch(ctx context.Context, tmID string) (*Profile, error) {
	profile, err := r.Fetcher.FetchProfile(ctx, tmID)
	var se *ScraperError
	if err == nil || !errors.As(err, &se) || !se.IsRetryable() {
		return profile, err
	}

	r.logger().Debug("retrying profile fetch", zap.String("transfermarkt_id", tmID), zap.Error(err))
	if r.Delay > 0 {
		if serr := sleep(ctx, r.Delay); serr != nil {
			return nil, serr
		}
	}
	return r.Fetcher.FetchProfile(ctx, tmID)
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func describe(err error) string {
	var se *ScraperError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	return err.Error()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
