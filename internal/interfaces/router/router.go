package router

import (
	"errors"
	"net/http"

	authsvc "ride-backend/internal/application/auth"
	circlesvc "ride-backend/internal/application/circles"
	emailsvc "ride-backend/internal/application/emails"
	eventsvc "ride-backend/internal/application/events"
	healthsvc "ride-backend/internal/application/health"
	invsvc "ride-backend/internal/application/invitations"
	membersvc "ride-backend/internal/application/memberships"
	ridesvc "ride-backend/internal/application/rides"
	uploadsvc "ride-backend/internal/application/uploads"
	usersvc "ride-backend/internal/application/users"
	"ride-backend/internal/config"
	"ride-backend/internal/infrastructure/database"
	authhandler "ride-backend/internal/interfaces/handlers/auth"
	circlehandler "ride-backend/internal/interfaces/handlers/circles"
	eventhandler "ride-backend/internal/interfaces/handlers/events"
	healthhandler "ride-backend/internal/interfaces/handlers/health"
	invhandler "ride-backend/internal/interfaces/handlers/invitations"
	memberhandler "ride-backend/internal/interfaces/handlers/memberships"
	ridehandler "ride-backend/internal/interfaces/handlers/rides"
	uploadhandler "ride-backend/internal/interfaces/handlers/uploads"
	userhandler "ride-backend/internal/interfaces/handlers/users"
	"ride-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrNoDatabase = errors.New("router: database url is not configured")

// App is the assembled HTTP application and the stores behind it.
type App struct {
	Fiber *fiber.App
	DB    *gorm.DB
	Redis *redis.Client
	Rides *ridesvc.Service
}

func CreateApp(cfg *config.Config) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, ErrNoDatabase
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix:  cfg.FrontendURLEndsWith,
		DevPassword:    cfg.DevPassword,
		AllowLocalhost: !cfg.IsProduction(),
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Timeout(cfg.RequestTimeout))

	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
		CookieDomain:      cfg.CookieDomain,
	}

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             healthsvc.GormPinger{DB: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)
	authGroup.Delete("/sessions", ah.LogoutAll)

	mailer := &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	uh := &userhandler.Handlers{Service: &usersvc.Service{
		DB:      db,
		Secret:  []byte(cfg.SessionSecret),
		Mailer:  mailer,
		BaseURL: cfg.AppBaseURL,
	}}
	app.Post("/api/v1/users/signup", uh.Signup)
	app.Post("/api/v1/users/verify", uh.Verify)
	app.Get("/api/v1/users/me/profile", middleware.RequireAuth(), uh.Profile)

	ch := &circlehandler.Handlers{Service: &circlesvc.Service{DB: db, DefaultInvitations: cfg.DefaultInvitations}}
	mh := &memberhandler.Handlers{Service: &membersvc.Service{DB: db}}
	ih := &invhandler.Handlers{Service: &invsvc.Service{DB: db}}
	eh := &eventhandler.Handlers{Service: &eventsvc.Service{DB: db}}
	rides := &ridesvc.Service{DB: db, MinLeadTime: cfg.RideMinLeadTime}
	rh := &ridehandler.Handlers{Service: rides}

	cg := app.Group("/api/v1/circles", middleware.RequireAuth())
	cg.Get("/", ch.List)
	cg.Post("/", ch.Create)
	cg.Get("/:slug", ch.Get)
	cg.Patch("/:slug", ch.Update)
	cg.Get("/:slug/events", eh.List)
	cg.Get("/:slug/members", mh.List)
	cg.Post("/:slug/members", mh.Join)
	cg.Get("/:slug/members/:username", mh.Get)
	cg.Delete("/:slug/members/:username", mh.Leave)
	cg.Get("/:slug/members/:username/invitations", ih.Request)
	cg.Get("/:slug/rides", rh.List)
	cg.Post("/:slug/rides", rh.Create)
	cg.Patch("/:slug/rides/:id", rh.Update)
	cg.Post("/:slug/rides/:id/join", rh.Join)
	cg.Post("/:slug/rides/:id/finish", rh.Finish)

	sc := &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
	uph := &uploadhandler.Handlers{Service: &uploadsvc.Service{DB: db, Client: sc, SupabaseURL: cfg.SupabaseURL}}
	upg := app.Group("/api/v1/uploads", middleware.RequireAuth())
	upg.Post("/circle-picture", uph.CirclePicture)
	upg.Post("/profile-picture", uph.ProfilePicture)

	return &App{Fiber: app, DB: db, Redis: rdb, Rides: rides}, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
