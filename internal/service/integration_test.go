//go:build integration

// Run with: go test -tags integration ./internal/service/... -v
package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/infra"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"
	"pharmacyos/internal/service"
	"pharmacyos/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type pgEnv struct {
	db   *gorm.DB
	rdb  *redis.Client
	auth service.AuthContext
	svc  service.SaleService
}

func setupPG(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("pharmacyos_test"),
		tcPostgres.WithUsername("pharmacy"),
		tcPostgres.WithPassword("pharmacy"),
		testcontainers.WithEnv(map[string]string{"TZ": "UTC"}),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := infra.NewDatabase(dsn, false)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)

	org := &model.Organization{Name: "Integration Pharmacy", Slug: "integration", OwnerEmail: "owner@it.test", IsActive: true}
	require.NoError(t, repository.NewOrganizationRepository(db).Create(ctx, org))
	user := &model.User{
		OrganizationID: org.ID, Username: "it", Email: "it@it.test",
		PasswordHash: "x", FullName: "Integration", Role: model.RolePharmacist, IsActive: true,
	}
	require.NoError(t, repository.NewUserRepository(db).Create(ctx, user))

	svc := service.NewSaleService(
		repository.NewTxRunner(db),
		repository.NewSaleRepository(db),
		repository.NewDrugRepository(db),
		repository.NewBatchRepository(db),
		repository.NewCustomerRepository(db),
		infra.NewRedisCache(rdb),
		worker.NewDispatcher(rdb),
		service.SaleOptions{EnforceCreditLimit: true},
	)

	return &pgEnv{
		db:   db,
		rdb:  rdb,
		auth: service.AuthContext{OrganizationID: org.ID, UserID: user.ID, Role: model.RolePharmacist},
		svc:  svc,
	}
}

func (e *pgEnv) drug(t *testing.T, name, price string) model.Drug {
	t.Helper()
	d := model.Drug{OrganizationID: e.auth.OrganizationID, Name: name, Form: "tablet", Price: decimal.RequireFromString(price), ReorderLevel: 10}
	require.NoError(t, repository.NewDrugRepository(e.db).Create(context.Background(), &d))
	return d
}

func (e *pgEnv) batch(t *testing.T, d model.Drug, lot string, qty int, expiry time.Time) model.InventoryBatch {
	t.Helper()
	b := model.InventoryBatch{DrugID: d.ID, LotNumber: lot, QuantityOnHand: qty, ExpiryDate: expiry, Status: model.BatchActive}
	require.NoError(t, repository.NewBatchRepository(e.db).Create(context.Background(), &b))
	return b
}

func (e *pgEnv) quantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var b model.InventoryBatch
	require.NoError(t, e.db.First(&b, "id = ?", id).Error)
	return b.QuantityOnHand
}

func TestIntegration_PostSaleAllocatesFEFOAndCommits(t *testing.T) {
	env := setupPG(t)
	ctx := context.Background()
	now := time.Now().UTC()

	d := env.drug(t, "Paracetamol 500mg", "4.50")
	late := env.batch(t, d, "LOT-LATE", 10, now.AddDate(1, 0, 0))
	early := env.batch(t, d, "LOT-EARLY", 3, now.AddDate(0, 2, 0))

	resp, err := env.svc.PostSale(ctx, env.auth, dto.PostSaleRequest{
		PaymentMethod: "cash",
		LineItems:     []dto.SaleLineRequest{{DrugID: d.ID.String(), Quantity: 5}},
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("22.50").Equal(resp.Total))
	assert.Equal(t, 0, env.quantity(t, early.ID))
	assert.Equal(t, 8, env.quantity(t, late.ID))
	require.Len(t, resp.LineItems, 1)
	require.Len(t, resp.LineItems[0].Allocations, 2)
	assert.Equal(t, early.ID.String(), resp.LineItems[0].Allocations[0].BatchID)

	var drained model.InventoryBatch
	require.NoError(t, env.db.First(&drained, "id = ?", early.ID).Error)
	assert.Equal(t, model.BatchLowStock, drained.Status)

	n, err := env.rdb.LLen(ctx, worker.QueueReceipt).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "no email known, no receipt job")

	saleID, err := uuid.Parse(resp.SaleID)
	require.NoError(t, err)
	stored, err := env.svc.GetSale(ctx, env.auth, saleID)
	require.NoError(t, err)
	var lots []string
	for _, a := range stored.LineItems[0].Allocations {
		lots = append(lots, a.LotNumber)
	}
	assert.ElementsMatch(t, []string{"LOT-EARLY", "LOT-LATE"}, lots)
}

func TestIntegration_InsufficientStockRollsBack(t *testing.T) {
	env := setupPG(t)
	ctx := context.Background()
	now := time.Now().UTC()

	d1 := env.drug(t, "Ibuprofen 400mg", "3.00")
	d2 := env.drug(t, "Cetirizine 10mg", "2.00")
	b1 := env.batch(t, d1, "IBU-1", 10, now.AddDate(0, 6, 0))
	b2 := env.batch(t, d2, "CET-1", 1, now.AddDate(0, 6, 0))

	_, err := env.svc.PostSale(ctx, env.auth, dto.PostSaleRequest{
		PaymentMethod: "cash",
		LineItems: []dto.SaleLineRequest{
			{DrugID: d1.ID.String(), Quantity: 4},
			{DrugID: d2.ID.String(), Quantity: 2},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInsufficientStock))

	assert.Equal(t, 10, env.quantity(t, b1.ID))
	assert.Equal(t, 1, env.quantity(t, b2.ID))
	var count int64
	require.NoError(t, env.db.Model(&model.SalesOrder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIntegration_CreditSaleUpdatesBalance(t *testing.T) {
	env := setupPG(t)
	ctx := context.Background()

	d := env.drug(t, "Insulin Pen", "100.00")
	env.batch(t, d, "INS-1", 5, time.Now().UTC().AddDate(0, 3, 0))
	cust := model.Customer{
		OrganizationID: env.auth.OrganizationID, FirstName: "Ada", LastName: "Lovelace",
		AllowCredit: true, CreditLimit: decimal.NewFromInt(500),
	}
	require.NoError(t, repository.NewCustomerRepository(env.db).Create(ctx, &cust))

	paid := decimal.NewFromInt(20)
	custID := cust.ID.String()
	resp, err := env.svc.PostSale(ctx, env.auth, dto.PostSaleRequest{
		CustomerID:    &custID,
		PaymentMethod: "credit",
		AmountPaid:    &paid,
		LineItems:     []dto.SaleLineRequest{{DrugID: d.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(80).Equal(resp.Balance))

	got, err := repository.NewCustomerRepository(env.db).FindByID(ctx, env.auth.OrganizationID, cust.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(80).Equal(got.CurrentBalance))
}

func TestIntegration_ConcurrentPostingsNeverOversell(t *testing.T) {
	env := setupPG(t)
	ctx := context.Background()

	d := env.drug(t, "Amoxicillin 250mg", "6.00")
	b := env.batch(t, d, "AMX-1", 5, time.Now().UTC().AddDate(0, 4, 0))

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.PostSale(ctx, env.auth, dto.PostSaleRequest{
				PaymentMethod: "card",
				LineItems:     []dto.SaleLineRequest{{DrugID: d.ID.String(), Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, service.ErrInsufficientStock) || errors.Is(err, service.ErrConcurrencyConflict), err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, committed, 5)
	assert.Equal(t, 5-committed, env.quantity(t, b.ID))

	var allocated int64
	require.NoError(t, env.db.Table("sales_batch_allocations").Select("COALESCE(SUM(quantity), 0)").Scan(&allocated).Error)
	assert.Equal(t, int64(committed), allocated)
}

func TestIntegration_ExpiringWithinUsesCalendarDays(t *testing.T) {
	env := setupPG(t)
	ctx := context.Background()
	ahead := time.FixedZone("LINT", 14*3600)

	d := env.drug(t, "Metformin 850mg", "3.20")
	edge := env.batch(t, d, "MET-EDGE", 4, time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC))
	env.batch(t, d, "MET-LATE", 4, time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC))

	from := time.Date(2026, 10, 18, 0, 0, 0, 0, ahead)
	got, err := repository.NewBatchRepository(env.db).ExpiringWithin(ctx, env.auth.OrganizationID, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 1, "the last day of the window is inclusive in the caller's calendar")
	assert.Equal(t, edge.ID, got[0].ID)

	behind := time.FixedZone("HST", -10*3600)
	n, err := repository.NewBatchRepository(env.db).MarkExpired(ctx, time.Date(2026, 10, 25, 20, 0, 0, 0, behind))
	require.NoError(t, err)
	assert.Zero(t, n, "a batch expiring on the caller's today stays sellable")
	assert.Equal(t, 4, env.quantity(t, edge.ID))
}
