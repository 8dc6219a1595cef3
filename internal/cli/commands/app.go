package commands

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/config"
	"github.com/creatorhub-dev/creatorhub/internal/cli/creatorselect"
	"github.com/creatorhub-dev/creatorhub/internal/cli/forms"
	"github.com/creatorhub-dev/creatorhub/internal/cli/session"
	"github.com/creatorhub-dev/creatorhub/internal/cli/storage"
	"github.com/creatorhub-dev/creatorhub/internal/cli/userconfig"
	"github.com/creatorhub-dev/creatorhub/internal/i18n"
	"github.com/creatorhub-dev/creatorhub/internal/logger"
)

// App bundles everything the commands run against
type App struct {
	Config   *config.Config
	API      *client.Client
	Session  *session.Store
	Users    *userconfig.Store
	Forms    *forms.Validator
	Creators *creatorselect.Resolver
	Logger   zerolog.Logger
}

// AppFunc returns the App a command runs against
type AppFunc func() (*App, error)

// LazyApp returns an AppFunc that wires the App from the environment on first
// use, so commands like version never touch the session
func LazyApp() AppFunc {
	return sync.OnceValues(LoadApp)
}

// LoadApp wires the App from the environment and rehydrates the session
func LoadApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logWriter, err := logger.NewFileWriter(cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.InitWithWriter(cfg.Logging.Level, cfg.Logging.Format, logWriter)
	log := logger.GetLogger()

	fs := afero.NewOsFs()

	var store storage.Storage
	switch cfg.Storage {
	case config.StorageFile:
		store = storage.NewFile(fs, cfg.SessionFile())
	default:
		store = storage.NewKeyring(cfg.APIURL)
	}

	return NewApp(cfg, store, userconfig.New(fs, cfg.UserConfigFile()), log)
}

// NewApp wires an App from its parts
func NewApp(cfg *config.Config, store storage.Storage, users *userconfig.Store, log zerolog.Logger) (*App, error) {
	tr := i18n.New(cfg.Locale)

	deviceID, err := users.DeviceID()
	if err != nil {
		// Requests work without it
		log.Warn().Err(err).Msg("Failed to load device id")
	}

	api := client.New(cfg.APIURL,
		client.WithTimeouts(cfg.AuthTimeout, cfg.Timeout),
		client.WithTranslator(tr),
		client.WithLogger(log),
		client.WithDeviceID(deviceID),
	)

	sess := session.NewStore(api, store,
		session.WithLogger(log),
		session.WithTranslator(tr),
	)
	if err := sess.Load(); err != nil {
		log.Warn().Err(err).Msg("Discarding unreadable session")
	}
	api.SetTokenSource(sess)

	return &App{
		Config:   cfg,
		API:      api,
		Session:  sess,
		Users:    users,
		Forms:    forms.New(tr),
		Creators: creatorselect.New(api, users, log),
		Logger:   log,
	}, nil
}

// requireLogin fails when no session is held
func (a *App) requireLogin() error {
	if !a.Session.State().IsAuthenticated {
		return fmt.Errorf("not logged in. Please run 'creatorhub login' first")
	}
	return nil
}
