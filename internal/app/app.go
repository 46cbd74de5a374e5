package app

import (
	"context"
	"log"

	"vendorhub/internal/config"
	"vendorhub/internal/database"
	"vendorhub/internal/escalation"
	"vendorhub/internal/notify"
	"vendorhub/internal/services"
	"vendorhub/internal/store"
)

// failureBuffer is how many undelivered notification outcomes may queue for the logger
const failureBuffer = 256

// App holds every wired component of the service
type App struct {
	Config     *config.Config
	Store      *store.Store
	Dispatcher *notify.Dispatcher
	Engine     *escalation.Engine
	Queries    *services.QueryService
	Cron       *services.CronService
	Auth       *services.AuthService
	Vendors    *services.VendorService
	Health     *services.HealthService

	stopFailures chan struct{}
}

// New connects the database and wires the services from cfg
func New(cfg *config.Config) (*App, error) {
	if err := database.Init(&cfg.Database); err != nil {
		return nil, err
	}
	st := store.New(database.GetDB())

	gateway := notify.NewGateway(map[notify.Channel]notify.Sender{
		notify.ChannelEmail:    notify.NewEmailSender(&cfg.Email),
		notify.ChannelWhatsApp: notify.NewWhatsAppSender(&cfg.WhatsApp),
	})
	dispatcher := notify.NewDispatcher(gateway, cfg.Escalation.NotifyTimeout(), failureBuffer)

	directory := escalation.NewDirectory(&cfg.Escalation)
	engine := escalation.NewEngine(st, dispatcher, directory,
		escalation.ThresholdsFromConfig(&cfg.Escalation),
		escalation.OptionsFromConfig(&cfg.Escalation))
	queries := services.NewQueryService(st, dispatcher, directory)

	a := &App{
		Config:       cfg,
		Store:        st,
		Dispatcher:   dispatcher,
		Engine:       engine,
		Queries:      queries,
		Cron:         services.NewCronService(engine, queries),
		Auth:         services.NewAuthService(st, &cfg.Auth),
		Vendors:      services.NewVendorService(st),
		Health:       services.NewHealthService(cfg.App.Name, database.HealthCheck, database.GetStats),
		stopFailures: make(chan struct{}),
	}
	go a.logFailures()
	return a, nil
}

// logFailures drains the dispatcher's failure stream
func (a *App) logFailures() {
	for {
		select {
		case o := <-a.Dispatcher.Failures():
			log.Printf("[NOTIFY] Undelivered %s %s to %s: %v", o.Message.Channel, o.Message.Template, o.Message.Recipient, o.Err)
		case <-a.stopFailures:
			return
		}
	}
}

// Close waits for in-flight notifications, then closes the database
func (a *App) Close(ctx context.Context) error {
	if err := a.Dispatcher.Drain(ctx); err != nil {
		log.Printf("[APP] Notifications still in flight at shutdown: %v", err)
	}
	close(a.stopFailures)
	return database.Close()
}
