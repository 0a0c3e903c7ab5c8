package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/threatdash/app/enum"
	"github.com/umputun/threatdash/app/server"
	"github.com/umputun/threatdash/app/store"
)

var opts struct {
	DB        string `short:"d" long:"db" env:"THREATDASH_DB" default:"threatdash.db" description:"database URL (sqlite file or postgres://...)"`
	Prefs     string `long:"prefs" env:"THREATDASH_PREFS" default:"cookie" choice:"cookie" choice:"db" description:"theme preference backend"`
	CacheSize int    `long:"cache-size" env:"THREATDASH_CACHE_SIZE" default:"1000" description:"max cached preferences for db backend, 0 disables cache"`

	Server struct {
		Address     string        `long:"address" env:"ADDRESS" default:":8080" description:"server listen address"`
		ReadTimeout time.Duration `long:"read-timeout" env:"READ_TIMEOUT" default:"5s" description:"read timeout"`
		BaseURL     string        `long:"base-url" env:"BASE_URL" default:"" description:"base URL path for reverse proxy (e.g., /dash)"`
	} `group:"server" namespace:"server" env-namespace:"THREATDASH_SERVER"`

	Auth struct {
		PasswordHash string `long:"password-hash" env:"PASSWORD_HASH" description:"bcrypt hash for admin password (enables basic auth)"`
	} `group:"auth" namespace:"auth" env-namespace:"THREATDASH_AUTH"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `long:"version" description:"show version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("threatdash %s\n", revision)

	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	p.SubcommandsOptional = true
	if _, err := p.AddCommand("import", "import threats", "load threat records from a yaml or json file into the database",
		&ImportCmd{}); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(os.Stderr)
			os.Exit(2)
		}
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	if opts.Version {
		os.Exit(0)
	}
	if p.Active != nil {
		return // subcommand executed by the parser
	}

	setupLogs(opts.Debug)

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel)

	if err := runServer(ctx); err != nil {
		log.Printf("[ERROR] failed: %v", err)
		os.Exit(1)
	}
}

// prefsCachedStore reads threats from the db and preferences through the cache.
type prefsCachedStore struct {
	*store.Cached
	threats *store.Store
}

func (s prefsCachedStore) SearchThreats(ctx context.Context, f store.ThreatFilter) ([]store.Threat, error) {
	return s.threats.SearchThreats(ctx, f) //nolint:wrapcheck // pass-through
}

func runServer(ctx context.Context) error {
	backend, err := enum.ParsePrefsBackend(opts.Prefs)
	if err != nil {
		return fmt.Errorf("invalid prefs backend: %w", err)
	}
	baseURL, err := validateBaseURL(opts.Server.BaseURL)
	if err != nil {
		return err
	}

	log.Printf("[INFO] starting threatdash server on %s, prefs backend %s", opts.Server.Address, backend)
	if opts.Auth.PasswordHash != "" {
		log.Printf("[INFO] basic authentication enabled for user %s", server.AdminUser)
	}

	db, err := store.New(opts.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	var st server.Store = db
	if backend == enum.PrefsBackendDB && opts.CacheSize > 0 {
		cached, cerr := store.NewCached(db, opts.CacheSize)
		if cerr != nil {
			return fmt.Errorf("failed to initialize cache: %w", cerr)
		}
		defer cached.Close()
		st = prefsCachedStore{Cached: cached, threats: db}
		log.Printf("[DEBUG] preference cache enabled, max %d keys", opts.CacheSize)
	}

	srv, err := server.New(st, server.Config{
		Address:      opts.Server.Address,
		ReadTimeout:  opts.Server.ReadTimeout,
		Version:      revision,
		BaseURL:      baseURL,
		PasswordHash: opts.Auth.PasswordHash,
		PrefsBackend: backend,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// validateBaseURL normalizes base URL to "/path" form without trailing slash.
func validateBaseURL(u string) (string, error) {
	u = strings.TrimSpace(u)
	if u == "" || u == "/" {
		return "", nil
	}
	if !strings.HasPrefix(u, "/") {
		return "", fmt.Errorf("base URL must start with /, got %q", u)
	}
	if strings.ContainsAny(u, "?#") {
		return "", fmt.Errorf("base URL must be a path, got %q", u)
	}
	return strings.TrimRight(u, "/"), nil
}

func setupLogs(debug bool) io.Writer {
	log.Setup(log.Msec)
	if debug {
		log.Setup(log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	return os.Stdout
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			switch sig {
			case syscall.SIGQUIT:
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
			case syscall.SIGTERM, syscall.SIGINT:
				cancel()
			}
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
