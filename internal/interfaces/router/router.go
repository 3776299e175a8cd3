package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	acctsvc "anticair-backend/internal/application/accounts"
	assignsvc "anticair-backend/internal/application/assignment"
	dirsvc "anticair-backend/internal/application/directory"
	emailsvc "anticair-backend/internal/application/emails"
	ledsvc "anticair-backend/internal/application/ledger"
	listsvc "anticair-backend/internal/application/listings"
	setsvc "anticair-backend/internal/application/settlement"
	"anticair-backend/internal/config"
	"anticair-backend/internal/infrastructure/database"
	"anticair-backend/internal/infrastructure/locks"
	"anticair-backend/internal/infrastructure/paypal"
	accthandler "anticair-backend/internal/interfaces/handlers/accounts"
	listhandler "anticair-backend/internal/interfaces/handlers/listings"
	"anticair-backend/internal/middleware"
	"anticair-backend/internal/pricing"
)

// CreateApp builds the Fiber app and wires the workflow services together.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	var rdb *redis.Client
	var locker listsvc.Locker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
		locker = locks.New(rdb)
	}

	var mail emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		mail = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}

	calc := pricing.New(cfg.CommissionRate)
	dir := &dirsvc.Service{DB: db}
	led := &ledsvc.Service{Dir: dir}

	ls := &listsvc.Service{DB: db, Dir: dir, Mail: mail, Pricing: calc, Locks: locker}
	assign := &assignsvc.Service{Dir: dir, Listings: ls, Mail: mail, Group: cfg.AntiquarianGroup}
	ls.Picker = assign

	accounts := &acctsvc.Service{
		Dir: dir, Assign: assign, Mail: mail,
		AdminGroup: cfg.AdminGroup, AntiquarianGroup: cfg.AntiquarianGroup,
	}

	gateway := &paypal.Client{
		ClientID:     cfg.PaypalClientID,
		ClientSecret: cfg.PaypalClientSecret,
		Mode:         cfg.PaypalMode,
	}
	settle := &setsvc.Service{
		Listings: ls, Ledger: led, Gateway: gateway, Mail: mail,
		Pricing: calc, Locks: locker, Currency: cfg.Currency,
		SuccessURL: cfg.PaymentSuccessURL, CancelURL: cfg.PaymentCancelURL,
	}

	lh := &listhandler.Handlers{Service: ls, Settlement: settle}
	lg := app.Group("/api/listing")
	lg.Post("/create", lh.Create)
	lg.Get("/checked", lh.Accepted)
	lg.Get("/byState", lh.OpenByValidator)
	lg.Get("/byMailSeller", lh.BySeller)
	lg.Get("/payment/execute", lh.ExecutePayment)
	lg.Put("/accept/:id", lh.Accept)
	lg.Put("/reject/:id", lh.Reject)
	lg.Put("/isDisplay/:id", lh.Hide)
	lg.Post("/:id/buy", lh.Buy)
	lg.Get("/:id", lh.GetByID)
	lg.Put("/:id", lh.Edit)
	lg.Get("/", lh.All)

	ah := &accthandler.Handlers{Directory: dir, Accounts: accounts, Ledger: led, Assign: assign}
	ug := app.Group("/api/users")
	ug.Post("/create", ah.Create)
	ug.Get("/list", ah.List)
	ug.Get("/byGroup", ah.ListByGroup)
	ug.Get("/noGroup", ah.ListWithoutGroup)
	ug.Get("/status", ah.Status)
	ug.Get("/balance", ah.Balance)
	ug.Get("/groups", ah.Groups)
	ug.Put("/activate", ah.Enable)
	ug.Put("/desactivate", ah.Disable)
	ug.Put("/update", ah.UpdateProfile)
	ug.Put("/redistributeAntiquity", ah.Redistribute)
	ug.Get("/", ah.Get)

	gg := app.Group("/api/groups")
	gg.Post("/join", ah.JoinGroup)
	gg.Post("/leave", ah.LeaveGroup)

	app.Put("/api/rgpd/update", ah.Anonymize)

	return app, db, rdb, nil
}
