// Package seed fills a database with plausible demo fixtures.
package seed

import (
	"context"
	"fmt"
	"time"

	"matchday/internal/models"
	"matchday/internal/services"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
)

// Options sizes the generated data set.
type Options struct {
	Users   int
	Teams   int
	Matches int
	Seed    uint64 // 0 picks a random seed
	Start   time.Time
}

// Result counts what was written.
type Result struct {
	Users       int
	Teams       int
	Matches     int
	Predictions int
}

// Services are the write paths seeding goes through, so every record
// passes the same validation as API traffic.
type Services struct {
	Auth        *services.AuthService
	Teams       *services.TeamService
	Matches     *services.MatchService
	Predictions *services.PredictionService
}

// Run creates users, teams, a fixture list and one prediction per user
// and match. Fixtures before Start's day are finished with random scores.
func Run(ctx context.Context, svc Services, opts Options) (Result, error) {
	var res Result
	if opts.Teams < 2 {
		return res, fmt.Errorf("need at least 2 teams, got %d", opts.Teams)
	}
	if opts.Users < 1 {
		return res, fmt.Errorf("need at least 1 user, got %d", opts.Users)
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().UTC()
	}
	faker := gofakeit.New(opts.Seed)
	logger := zerolog.Ctx(ctx)

	users := make([]uint, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, _, err := svc.Auth.Register(ctx, fmt.Sprintf("%s%d", faker.LetterN(8), i), faker.Password(true, true, true, false, false, 12))
		if err != nil {
			return res, fmt.Errorf("register user: %w", err)
		}
		users = append(users, user.ID)
		res.Users++
	}

	owner := users[0]
	teams := make([]*models.Team, 0, opts.Teams)
	for i := 0; i < opts.Teams; i++ {
		founded := faker.IntRange(1860, 2020)
		team, err := svc.Teams.CreateTeam(ctx, owner, services.TeamInput{
			Name:        fmt.Sprintf("%s %s %d", faker.City(), faker.RandomString([]string{"United", "City", "Rovers", "Athletic", "Wanderers"}), i+1),
			ShortCode:   fmt.Sprintf("T%02d", i+1),
			FoundedYear: &founded,
		})
		if err != nil {
			return res, fmt.Errorf("create team: %w", err)
		}
		teams = append(teams, team)
		res.Teams++
	}

	picks := []models.Pick{models.PickHome, models.PickDraw, models.PickAway}
	day := opts.Start.Truncate(24 * time.Hour)
	for i := 0; i < opts.Matches; i++ {
		home := teams[i%len(teams)]
		away := teams[(i+1+i/len(teams))%len(teams)]
		if home.ID == away.ID {
			away = teams[(i+1)%len(teams)]
		}
		kickoff := day.AddDate(0, 0, i-opts.Matches/2).Add(time.Duration(faker.IntRange(12, 20)) * time.Hour)

		match, err := svc.Matches.CreateMatch(ctx, owner, services.MatchInput{
			HomeTeamID: home.ID,
			AwayTeamID: away.ID,
			KickoffAt:  kickoff,
			Venue:      faker.Street(),
		})
		if err != nil {
			return res, fmt.Errorf("create match: %w", err)
		}
		res.Matches++

		for _, userID := range users {
			p := faker.Float64Range(0.1, 0.6)
			d := faker.Float64Range(0.1, 0.9-p)
			a := 1 - p - d
			_, err := svc.Predictions.CreatePrediction(ctx, userID, services.PredictionInput{
				MatchID: match.ID,
				Pick:    picks[faker.IntN(len(picks))],
				PHome:   &p,
				PDraw:   &d,
				PAway:   &a,
			})
			if err != nil {
				return res, fmt.Errorf("create prediction: %w", err)
			}
			res.Predictions++
		}

		if kickoff.Before(day) {
			hs, as := faker.IntRange(0, 4), faker.IntRange(0, 4)
			_, err := svc.Matches.UpdateMatch(ctx, owner, match.ID, services.MatchUpdate{
				KickoffAt: match.KickoffAt,
				Venue:     match.Venue,
				Status:    models.MatchStatusFullTime,
				HomeScore: &hs,
				AwayScore: &as,
			})
			if err != nil {
				return res, fmt.Errorf("finish match: %w", err)
			}
		}
	}

	logger.Info().
		Int("users", res.Users).
		Int("teams", res.Teams).
		Int("matches", res.Matches).
		Int("predictions", res.Predictions).
		Msg("seed data written")
	return res, nil
}
