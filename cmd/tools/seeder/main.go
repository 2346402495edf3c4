package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/app"
	"github.com/noah-isme/backend-resto/internal/auth"
	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/menu"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

// Fixed IDs keep reseeding idempotent.
var (
	demoBranchID = uuid.MustParse("0f1c2d3e-4a5b-4c6d-8e7f-101112131415")
	demoItemNS   = uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")
)

type seedItem struct {
	Name     string
	Category string
	Price    float64
	Sizes    map[string]float64
	GSTRates map[string]pricing.RatePair
}

var demoMenu = []seedItem{
	{Name: "Paneer Tikka", Category: "Starters", Price: 280},
	{Name: "Veg Biryani", Category: "Mains", Price: 240, Sizes: map[string]float64{"half": 160, "full": 240}},
	{Name: "Masala Dosa", Category: "Mains", Price: 120},
	{Name: "Gulab Jamun", Category: "Desserts", Price: 90},
	{Name: "Cold Coffee", Category: "Beverages", Price: 150, Sizes: map[string]float64{"regular": 150, "large": 190}},
	{
		Name:     "Packaged Water",
		Category: "Beverages",
		Price:    20,
		GSTRates: map[string]pricing.RatePair{
			"Dining":       {CGST: 9, SGST: 9},
			"Takeaway":     {CGST: 9, SGST: 9},
			"Online Order": {CGST: 9, SGST: 9},
		},
	},
}

func main() {
	staff := flag.String("staff", "manager-1", "staff id for the printed token")
	tokenTTL := flag.Duration("token-ttl", 12*time.Hour, "lifetime of the printed token")
	flag.Parse()

	cfg := config.MustLoad()
	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "console"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps, err := app.Open(ctx, cfg, logger, app.Options{ApplicationName: "resto-seeder"})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() { _ = deps.Close() }()
	svcs := deps.Services(cfg, logger)

	b, err := svcs.Branches.Upsert(ctx, demoBranchID, branch.UpsertInput{
		Name:        "Demo Branch",
		PricingMode: branch.ModeInclusive,
		GSTConfig: map[string]pricing.RatePair{
			"Dining":       {CGST: 2.5, SGST: 2.5},
			"Takeaway":     {CGST: 2.5, SGST: 2.5},
			"Online Order": {CGST: 2.5, SGST: 2.5},
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed branch")
	}
	logger.Info().Str("branch_id", b.ID.String()).Msg("branch seeded")

	for _, it := range demoMenu {
		id := uuid.NewSHA1(demoItemNS, []byte(strings.ToLower(it.Name)))
		item, err := svcs.Menu.Save(ctx, id, menu.SaveInput{
			BranchID: b.ID,
			Name:     it.Name,
			Category: it.Category,
			Price:    it.Price,
			Sizes:    it.Sizes,
			GSTRates: it.GSTRates,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("item", it.Name).Msg("seed menu item")
		}
		logger.Info().Str("item_id", item.ID.String()).Str("name", item.Name).Msg("menu item seeded")
	}

	token, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer).Sign(*staff, []string{auth.RoleCashier, auth.RoleManager}, *tokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(token)
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
