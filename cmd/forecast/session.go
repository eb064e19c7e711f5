package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"

	"github.com/supawave/pos-ecosystem/backend-go/internal/cache"
	"github.com/supawave/pos-ecosystem/backend-go/internal/config"
	"github.com/supawave/pos-ecosystem/backend-go/internal/drive"
	"github.com/supawave/pos-ecosystem/backend-go/internal/forecast"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository/memory"
	"github.com/supawave/pos-ecosystem/backend-go/internal/repository/postgres"
	"github.com/supawave/pos-ecosystem/backend-go/internal/service"
	"github.com/supawave/pos-ecosystem/backend-go/internal/storage"
)

const todayLayout = "2006-01-02"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "business",
			Usage:    "Business id to scope the run",
			Required: true,
			EnvVars:  []string{"BUSINESS_ID"},
		},
		&cli.StringFlag{
			Name:    "today",
			Usage:   "Pin the clock to a date (YYYY-MM-DD, UTC)",
			EnvVars: []string{"FORECAST_TODAY"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "warn",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "Postgres connection string; when set, CSV sources are ignored",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{Name: "sales-csv", Usage: "Local sales CSV (business_id,product_id,date,quantity)"},
		&cli.StringFlag{Name: "products-csv", Usage: "Local product catalog CSV"},
		&cli.StringFlag{Name: "drive-sales-id", Usage: "Google Drive file id of a sales export (CSV or XLSX)"},
		&cli.StringFlag{Name: "drive-products-id", Usage: "Google Drive file id of a catalog export (CSV or XLSX)"},
		&cli.StringFlag{
			Name:    "drive-credentials",
			Usage:   "Service account JSON for Google Drive",
			EnvVars: []string{"GOOGLE_DRIVE_CREDENTIALS_JSON"},
		},
		&cli.StringFlag{Name: "storage-sales-key", Usage: "Object key of a sales CSV in the storage bucket"},
		&cli.StringFlag{Name: "storage-products-key", Usage: "Object key of a catalog CSV in the storage bucket"},
		&cli.StringFlag{Name: "storage-endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}},
		&cli.StringFlag{Name: "storage-access-key", EnvVars: []string{"STORAGE_ACCESS_KEY"}},
		&cli.StringFlag{Name: "storage-secret-key", EnvVars: []string{"STORAGE_SECRET_KEY"}},
		&cli.StringFlag{Name: "storage-bucket", EnvVars: []string{"STORAGE_BUCKET"}},
		&cli.StringFlag{Name: "storage-region", Value: "us-east-1", EnvVars: []string{"STORAGE_REGION"}},
		&cli.BoolFlag{Name: "storage-use-ssl", Value: true, EnvVars: []string{"STORAGE_USE_SSL"}},
		&cli.StringFlag{
			Name:    "export-dir",
			Usage:   "Local export directory used when no storage endpoint is set",
			Value:   "./data/output",
			EnvVars: []string{"APP_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Cache dashboards in Redis (redis://host:port/db)",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Usage:   "Products evaluated in parallel",
			Value:   forecast.DefaultParams().Concurrency,
			EnvVars: []string{"FORECAST_CONCURRENCY"},
		},
	}
}

type session struct {
	businessID string
	service    *service.ForecastService
	closers    []func() error
}

func (rt *session) Close() {
	for _, closeFn := range rt.closers {
		_ = closeFn()
	}
}

func newSession(c *cli.Context) (*session, error) {
	now, err := parseToday(c.String("today"))
	if err != nil {
		return nil, err
	}

	params := forecast.DefaultParams()
	params.Concurrency = c.Int("concurrency")
	engine, err := forecast.NewEngine(params)
	if err != nil {
		return nil, err
	}

	rt := &session{businessID: c.String("business")}

	exports, err := exportStorage(c)
	if err != nil {
		return nil, err
	}

	var (
		catalog repository.InventoryCatalog
		history repository.SalesHistoryProvider
	)
	if dbURL := c.String("db-url"); dbURL != "" {
		db, err := postgres.Open(c.Context, "pgx", dbURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		catalog = postgres.NewCatalogRepository(db)
		history = postgres.NewSalesRepository(db, now)
	} else {
		store, err := loadStore(c, now)
		if err != nil {
			return nil, err
		}
		catalog, history = store, store
	}

	dashboards, err := dashboardCache(c)
	if err != nil {
		return nil, err
	}

	rt.service = service.NewForecastService(engine, catalog, history, dashboards, exports, now)
	return rt, nil
}

// dashboardCache returns the Redis dashboard cache, or nil when --redis-url
// is not set.
func dashboardCache(c *cli.Context) (cache.ForecastDashboardCache, error) {
	url := strings.TrimSpace(c.String("redis-url"))
	if url == "" {
		return nil, nil
	}
	return cache.NewDashboardCache(config.CacheConfig{Enabled: true, RedisURL: url})
}

// parseToday returns a clock pinned to the given day, or the wall clock when
// the value is empty.
func parseToday(value string) (service.Clock, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now, nil
	}
	day, err := time.Parse(todayLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --today %q: expected YYYY-MM-DD", value)
	}
	return func() time.Time { return day }, nil
}

func storageConfigured(c *cli.Context) bool {
	return c.String("storage-endpoint") != ""
}

func minioClient(c *cli.Context) (*storage.MinioClient, error) {
	return storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  c.String("storage-endpoint"),
		AccessKey: c.String("storage-access-key"),
		SecretKey: c.String("storage-secret-key"),
		Bucket:    c.String("storage-bucket"),
		Region:    c.String("storage-region"),
		UseSSL:    c.Bool("storage-use-ssl"),
	})
}

func exportStorage(c *cli.Context) (storage.ObjectStorage, error) {
	if storageConfigured(c) {
		return minioClient(c)
	}
	return storage.NewLocalStorage(c.String("export-dir")), nil
}

// loadStore fills an in-memory store from whichever sources were given.
// Several sources of the same kind are merged.
func loadStore(c *cli.Context, now service.Clock) (*memory.Store, error) {
	store := memory.NewStore(now)
	ctx := c.Context
	var loaded bool

	if err := loadLocal(store, c.String("products-csv"), c.String("sales-csv"), &loaded); err != nil {
		return nil, err
	}

	salesKey, productsKey := c.String("storage-sales-key"), c.String("storage-products-key")
	if salesKey != "" || productsKey != "" {
		if !storageConfigured(c) {
			return nil, fmt.Errorf("--storage-endpoint is required to read object keys")
		}
		client, err := minioClient(c)
		if err != nil {
			return nil, err
		}
		if err := loadFromStorage(ctx, client, store, productsKey, salesKey); err != nil {
			return nil, err
		}
		loaded = true
	}

	driveSales, driveProducts := c.String("drive-sales-id"), c.String("drive-products-id")
	if driveSales != "" || driveProducts != "" {
		creds := c.String("drive-credentials")
		if strings.TrimSpace(creds) == "" {
			return nil, fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is required to read Drive files")
		}
		driveSvc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, err
		}
		ingest := drive.NewIngestService(driveSvc, store)
		if driveProducts != "" {
			if _, err := ingest.IngestProducts(ctx, driveProducts); err != nil {
				return nil, err
			}
		}
		if driveSales != "" {
			if _, err := ingest.IngestSales(ctx, driveSales); err != nil {
				return nil, err
			}
		}
		loaded = true
	}

	if !loaded {
		return nil, fmt.Errorf("no data source: set --db-url, --products-csv/--sales-csv, --drive-*-id or --storage-*-key")
	}
	return store, nil
}

func loadLocal(store *memory.Store, productsPath, salesPath string, loaded *bool) error {
	if productsPath != "" {
		if err := loadFile(productsPath, store.LoadProductsCSV); err != nil {
			return err
		}
		*loaded = true
	}
	if salesPath != "" {
		if err := loadFile(salesPath, store.LoadSalesCSV); err != nil {
			return err
		}
		*loaded = true
	}
	return nil
}

func loadFromStorage(ctx context.Context, client storage.ObjectStorage, store *memory.Store, productsKey, salesKey string) error {
	tmpDir, err := os.MkdirTemp("", "forecast-sources-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var productsPath, salesPath string
	if productsKey != "" {
		productsPath = filepath.Join(tmpDir, "products.csv")
		if err := client.DownloadObject(ctx, productsKey, productsPath); err != nil {
			return err
		}
	}
	if salesKey != "" {
		salesPath = filepath.Join(tmpDir, "sales.csv")
		if err := client.DownloadObject(ctx, salesKey, salesPath); err != nil {
			return err
		}
	}

	var loaded bool
	return loadLocal(store, productsPath, salesPath, &loaded)
}

func loadFile(path string, load func(io.Reader) (int, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := load(f); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
