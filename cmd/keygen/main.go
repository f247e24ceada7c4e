// Command keygen issues API keys. Without -store it prints a key and a
// hashed key-file entry; with -store it writes the key to the database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/Flarenzy/keygate/internal/auth"
	appdb "github.com/Flarenzy/keygate/internal/db"
	sqlcdb "github.com/Flarenzy/keygate/internal/db/sqlc"
	"github.com/Flarenzy/keygate/internal/db/sqlite"
	"github.com/Flarenzy/keygate/internal/domain"
	"github.com/Flarenzy/keygate/internal/keyfile"
	"gopkg.in/yaml.v3"
)

type options struct {
	user       string
	name       string
	store      string
	dsn        string
	sqlitePath string
	claims     []auth.Claim
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("keygen: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if opts.store == "" {
		return printEntry(stdout, opts)
	}

	repo, closeRepo, err := openRepository(ctx, opts)
	if err != nil {
		return err
	}
	defer closeRepo()

	issued, err := domain.NewKeyService(repo, nil).CreateKey(ctx, domain.CreateKeyInput{
		UserID: opts.user,
		Name:   opts.name,
		Claims: opts.claims,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "id:  %s\nkey: %s\n", issued.ID, issued.Plaintext)
	return err
}

func parseFlags(args []string) (options, error) {
	opts := options{}
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.StringVar(&opts.user, "user", "", "user id the key authenticates as")
	fs.StringVar(&opts.name, "name", "default", "label for the key")
	fs.StringVar(&opts.store, "store", "", "persist to postgres or sqlite; empty prints a key file entry")
	fs.StringVar(&opts.dsn, "dsn", os.Getenv("DB_CONN"), "postgres connection string")
	fs.StringVar(&opts.sqlitePath, "sqlite", envOr("SQLITE_PATH", "keygate.db"), "sqlite database path")
	fs.Func("claim", "additional claim as type=value, repeatable", func(raw string) error {
		claimType, value, ok := strings.Cut(raw, "=")
		if !ok || claimType == "" {
			return fmt.Errorf("claim must look like type=value")
		}
		opts.claims = append(opts.claims, auth.Claim{Type: claimType, Value: value})
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.user == "" {
		return options{}, fmt.Errorf("-user is required")
	}
	return opts, nil
}

func printEntry(w io.Writer, opts options) error {
	key, _, err := auth.GenerateKey()
	if err != nil {
		return err
	}

	entry, err := yaml.Marshal(map[string][]keyfile.Entry{
		"keys": {{Hash: auth.HashKey(key), UserID: opts.user, Claims: opts.claims}},
	})
	if err != nil {
		return fmt.Errorf("encode key file entry: %w", err)
	}

	_, err = fmt.Fprintf(w, "key: %s\n\n# key file entry\n%s", key, entry)
	return err
}

func openRepository(ctx context.Context, opts options) (domain.KeyRepository, func(), error) {
	switch opts.store {
	case "postgres":
		if opts.dsn == "" {
			return nil, nil, fmt.Errorf("-dsn or DB_CONN is required for postgres")
		}
		pool, err := appdb.NewPool(ctx, opts.dsn)
		if err != nil {
			return nil, nil, err
		}
		return appdb.NewKeyRepository(sqlcdb.New(pool)), pool.Close, nil

	case "sqlite":
		db, err := sqlite.Open(opts.sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := sqlite.NewKeyRepository(db)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", opts.store)
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
