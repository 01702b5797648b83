// Command seed creates the first admin account and, on an empty database,
// a handful of sample issues.
package main

import (
	"context"
	"strings"
	"time"

	"urbanfix-be/config"
	"urbanfix-be/models"
	"urbanfix-be/notify"
	"urbanfix-be/repositories"
	"urbanfix-be/services"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type sample struct {
	title, description string
	typ                models.IssueType
	priority           models.Priority
	lng, lat           float64
	suburb             string
}

var samples = []sample{
	{"Pothole on King St", "Deep pothole in the left lane near the bus stop.", models.Pothole, models.PriorityHigh, 151.2069, -33.8675, "Sydney"},
	{"Street light out", "Light pole 14 has been dark for a week.", models.StreetLight, models.PriorityMedium, 151.2153, -33.8731, "Surry Hills"},
	{"Graffiti on underpass", "Fresh tags along the pedestrian underpass wall.", models.Graffiti, models.PriorityLow, 151.1957, -33.8840, "Glebe"},
	{"Overflowing bins", "Public bins at the park entrance overflow every weekend.", models.Trash, models.PriorityMedium, 151.2255, -33.8915, "Moore Park"},
}

func main() {
	cfg, err := config.Load()
	l := config.NewLogger(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.SeedAdminPassword == "" {
		l.Fatal().Msg("ADMIN_PASSWORD must be set to seed the admin account")
	}

	client, db, err := config.ConnectDB(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer config.DisconnectDB(client)

	if err := repositories.EnsureIndexes(db); err != nil {
		l.Fatal().Err(err).Msg("index creation failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	admin, err := seedAdmin(ctx, repositories.NewUserRepo(db), cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("admin seed failed")
	}
	if err := seedIssues(ctx, db, admin, l); err != nil {
		l.Fatal().Err(err).Msg("issue seed failed")
	}
	l.Info().Msg("seed complete")
}

func seedAdmin(ctx context.Context, users *repositories.UserRepo, cfg config.Config, l zerolog.Logger) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		l.Info().Str("email", existing.Email).Msg("admin already exists")
		return existing, nil
	}

	now := time.Now().UTC()
	admin := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      "Administrator",
		Email:     email,
		Password:  cfg.SeedAdminPassword,
		Role:      models.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := admin.HashPassword(); err != nil {
		return nil, err
	}
	if err := users.Insert(ctx, admin); err != nil {
		return nil, err
	}
	l.Info().Str("email", admin.Email).Msg("admin created")
	return admin, nil
}

func seedIssues(ctx context.Context, db *mongo.Database, admin *models.User, l zerolog.Logger) error {
	issueRepo := repositories.NewIssueRepo(db)
	count, err := issueRepo.Count(ctx, repositories.IssueQuery{})
	if err != nil {
		return err
	}
	if count > 0 {
		l.Info().Int64("count", count).Msg("issues present, skipping samples")
		return nil
	}

	svc := services.NewIssueService(issueRepo, repositories.NewCommentRepo(db), repositories.NewUserRepo(db), repositories.NewAuditRepo(db),
		repositories.NoTx{}, notify.Nop{}, services.IssueOptions{}, l)
	actor := models.Actor{ID: admin.ID, Role: admin.Role, UserAgent: "seed"}
	for _, s := range samples {
		_, err := svc.Create(ctx, actor, services.CreateIssueInput{
			Title:       s.title,
			Description: s.description,
			Type:        s.typ,
			Priority:    s.priority,
			Location: models.Location{
				Geo:     models.NewGeoPoint(s.lng, s.lat),
				Suburb:  s.suburb,
				Council: "City of Sydney",
			},
			Tags: []string{"sample"},
		})
		if err != nil {
			return err
		}
	}
	l.Info().Int("count", len(samples)).Msg("sample issues created")
	return nil
}
