//go:build integration

package persistence

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/catalogo/backend/internal/domain/catalog"
	"github.com/catalogo/backend/internal/infrastructure/config"
	"github.com/catalogo/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresRepo starts a PostgreSQL container, applies the embedded
// migrations and connects through the given driver
func newPostgresRepo(t *testing.T, driver string) *GormProdutoRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("catalogo_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:       driver,
		Host:         host,
		Port:         portNum,
		User:         "postgres",
		Password:     "admin123",
		DBName:       "catalogo_test",
		SSLMode:      "disable",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return NewGormProdutoRepository(db.DB)
}

func TestGormProdutoRepository_Postgres(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverPQ} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			repo := newPostgresRepo(t, driver)

			a := insertTestProduto(t, repo, "COMP-A")
			b := insertTestProduto(t, repo, "COMP-B")
			c := insertTestProduto(t, repo, "COMP-C")
			insertKit(t, repo, "KIT-1", a, b)

			err := repo.Insert(ctx, newTestProduto(t, "COMP-A"))
			assert.True(t, errors.Is(err, catalog.ErrProdutoJaExiste))

			kit, err := repo.FindBySku(ctx, "KIT-1")
			require.NoError(t, err)
			lineB, err := kit.GetKitItem(b.ID)
			require.NoError(t, err)

			require.NoError(t, kit.InsertKitItems([]catalog.ItemKitDetalhe{detalhe(t, c.ID, 1, 10, 8)}))
			require.NoError(t, kit.RemoveKitItem(a.ID))
			require.NoError(t, kit.UpdateKitItem(b.ID, 3, testPreco(t, 12, 6)))
			require.NoError(t, repo.Update(ctx, kit))

			lines := kitByProduto(kit.Kit())
			require.Len(t, lines, 2)
			assert.Equal(t, lineB.ID, lines[b.ID].ID)
			assert.Equal(t, 1, lines[b.ID].Version)
			assert.Equal(t, 0, lines[c.ID].Version)

			// concurrent writers from the same snapshot
			const writers = 4
			copies := make([]*catalog.Produto, writers)
			for i := range copies {
				p, err := repo.FindBySku(ctx, "KIT-1")
				require.NoError(t, err)
				require.NoError(t, p.UpdateKitItem(c.ID, i+2, testPreco(t, 10, 8)))
				copies[i] = p
			}
			var wg sync.WaitGroup
			errs := make([]error, writers)
			for i := range copies {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = repo.Update(ctx, copies[i])
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				assert.True(t, errors.Is(err, catalog.ErrProdutoDesatualizado), err)
			}
			assert.Equal(t, 1, succeeded)

			require.NoError(t, repo.Delete(ctx, "KIT-1"))
			_, err = repo.FindBySku(ctx, "KIT-1")
			assert.True(t, errors.Is(err, catalog.ErrProdutoNaoEncontrado))
		})
	}
}
