package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	calendar "github.com/bebevio27-prog/calendar/internal"
	"github.com/bebevio27-prog/calendar/internal/cache"
	"github.com/bebevio27-prog/calendar/internal/ctxhelper"
	"github.com/bebevio27-prog/calendar/internal/log"
	"github.com/bebevio27-prog/calendar/internal/migrate"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
	eventrepo "github.com/bebevio27-prog/calendar/internal/repos/event/sqlite"
	overriderepo "github.com/bebevio27-prog/calendar/internal/repos/override/sqlite"
	sessionrepo "github.com/bebevio27-prog/calendar/internal/repos/session/inmem"
	userrepo "github.com/bebevio27-prog/calendar/internal/repos/user/sqlite"
	"github.com/coreos/go-systemd/daemon"
	"github.com/jmoiron/sqlx"
	"github.com/kardianos/osext"
	_ "github.com/mattn/go-sqlite3" // Just needed for the sqlite driver
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	appName    = "Calendar"
	appVersion = "0.1.0"
	dbFile     = "calendar.db"
)

// Checks and tries to create the given directory recursively (or panics if this fails)
func checkAndCreateDir(path string, logger *logrus.Entry) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if e, ok := err.(*os.PathError); ok && e.Err == syscall.ENOENT {
			logger.WithField(log.FldPath, path).Info("Directory does not exist - trying to create...")
			if err = os.MkdirAll(path, os.ModePerm); err != nil {
				logger.WithError(err).Fatal("Failed to create directory")
			}
			logger.Info("Directory created successfully")
		} else {
			logger.WithError(err).Fatal("Stat has failed")
		}
	} else {
		if !fileInfo.IsDir() {
			logger.Fatalf("'%s' is not a directory. Remove the plain file if you want to continue", path)
		}
	}
}

// Creates the default user from the configuration when no user exists, yet - without it,
// the very first login would be impossible
func createDefaultUser(users repos.UserRepo, conf *models.DefaultUserConfig, logger *logrus.Entry) {
	if conf == nil {
		return
	}
	email := strings.ToLower(strings.TrimSpace(conf.Email))
	if _, err := users.GetByEmail(email); err == nil {
		// Already there
		return
	} else if err != repos.ErrEntityNotExisting {
		logger.WithError(err).Fatal("Failed to check for the default user")
	}
	u := models.User{
		Email: email,
		Name:  conf.Name,
	}
	if err := u.SetPassword(conf.Password); err != nil {
		logger.WithError(err).Fatal("Failed to set password for default user")
	}
	if err := users.Create(&u); err != nil {
		logger.WithError(err).Fatal("Failed to create default user")
	}
	logger.Infof("Created default user '%s'", u.Email)
}

func main() {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}

	configFile := flag.String(
		"config",
		filepath.Join(execDir, "config.json"),
		"The configuration file to load the application's configuration from",
	)
	flag.Parse()

	ctx := context.Background()

	// Initialize the logger
	logger := logrus.WithField(log.FldVersion, appVersion)
	logger.Infof("%s version %s is starting up...", appName, appVersion)
	ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger)

	// Load the main configuration file
	cs := calendar.NewConfigService(*configFile)
	if err := cs.Load(ctx); err != nil {
		logger.WithError(err).Error("Cannot load config. Using defaults")
	}
	conf := cs.GetConfig(ctx)

	logger.Infof("Using '%s' as data directory", conf.DataDir)
	checkAndCreateDir(conf.DataDir, logger)

	// Set up the database connection and perform pending migrations
	dbFileName := path.Join(conf.DataDir, dbFile)
	var db *sqlx.DB
	if db, err = sqlx.Open("sqlite3", dbFileName); err != nil {
		logger.WithError(err).Fatal("Failed to open database connection")
	}
	logger.Info("Performing database migrations...")
	if err = migrate.ExecuteMigrationsOnDb(db, logger); err != nil {
		logger.WithError(err).Fatal("Database migration has failed. Please check database for consistency and try again.")
	}

	userRepo := userrepo.New(db, logger)
	eventRepo := eventrepo.New(db, logger)
	overrideRepo := overriderepo.New(db, logger)
	sessionRepo := sessionrepo.New()

	createDefaultUser(userRepo, conf.DefaultUser, logger)

	data := cache.New(eventRepo, overrideRepo, logger)

	sessServ := calendar.NewSessionService(sessionRepo, userRepo, data, logger)
	userServ := calendar.NewUserService(userRepo, logger)
	evServ := calendar.NewEventService(eventRepo, overrideRepo, data, logger)
	tlServ := calendar.NewTimelineService(data, logger)

	httpLogger := logger.WithField(log.FldTransport, "HTTP")

	h := calendar.MakeHTTPHandler(
		evServ,
		tlServ,
		userServ,
		sessServ,
		httpLogger,
	)

	// Start listening
	errs := make(chan error)

	// Listen for stop signals that will end the service
	go func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		err := fmt.Errorf("%s", <-c)
		logger.Info("Caught signal to stop. Shutting down.")
		errs <- err
	}()

	go func() {
		httpLogger.WithField("addr", conf.ListenAddress).Info("Starting listening port")
		errs <- http.ListenAndServe(conf.ListenAddress, h)
	}()

	// Watchdog for systemd
	go func() {
		interval, err := daemon.SdWatchdogEnabled(false)
		if err != nil || interval == 0 {
			return
		}
		logger.Info("Activating systemd watchdog goroutine")
		port := strings.Split(conf.ListenAddress, ":")[1]
		url := fmt.Sprintf("http://127.0.0.1:%s/alive", port)
		for {
			if _, err := http.Get(url); err == nil {
				daemon.SdNotify(false, "WATCHDOG=1")
			}
			time.Sleep(interval / 3)
		}
	}()

	// Notify systemd that we are ready to go (if available)
	daemon.SdNotify(false, "READY=1")

	logger.WithError(<-errs).Error("Shutdown complete")
}
