package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/promarket/promarket/internal/config"
	"github.com/promarket/promarket/internal/domain"
	"github.com/promarket/promarket/internal/models"
	"github.com/promarket/promarket/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return &Service{Repo: repo.New(db)}, db
}

func seedProduct(t *testing.T, db *gorm.DB, price float64) *models.Product {
	t.Helper()

	m := models.Manufacturer{
		Email:        uuid.NewString() + "@factory.test",
		PasswordHash: "x",
		CompanyName:  "Test Factory",
		TaxNumber:    uuid.NewString(),
		Active:       true,
	}
	require.NoError(t, db.Create(&m).Error)

	p := models.Product{
		ManufacturerID: m.ID,
		Title:          "Ceramic Tile",
		Description:    "60x60 matte",
		Category:       "tiles",
		Price:          price,
		Stock:          100,
		Images:         []string{"/uploads/products/tile.jpg"},
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func professionalIdentity() domain.Identity {
	return domain.Identity{SubjectID: uuid.New(), Role: domain.RoleProfessional}
}

func TestGetActiveCart_CreatesEmptyCartOnce(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()

	first, err := svc.GetActiveCart(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.CartActive, first.Status)
	assert.Empty(t, first.Items)
	assert.Zero(t, first.Total)

	second, err := svc.GetActiveCart(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetActiveCart_SeparatePerRole(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	subjectID := uuid.New()

	pro, err := svc.GetActiveCart(ctx, domain.Identity{SubjectID: subjectID, Role: domain.RoleProfessional})
	require.NoError(t, err)
	man, err := svc.GetActiveCart(ctx, domain.Identity{SubjectID: subjectID, Role: domain.RoleManufacturer})
	require.NoError(t, err)

	assert.NotEqual(t, pro.ID, man.ID)
}

func TestAddItem_ComputesTotal(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p1 := seedProduct(t, db, 100)
	p2 := seedProduct(t, db, 19.5)

	_, err := svc.AddItem(ctx, id, p1.ID, 2)
	require.NoError(t, err)

	c, err := svc.AddItem(ctx, id, p2.ID, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 2)
	assert.InDelta(t, 2*100+3*19.5, c.Total, 1e-9)
}

func TestAddItem_ConsolidatesDuplicateLines(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 50)

	_, err := svc.AddItem(ctx, id, p.ID, 1)
	require.NoError(t, err)

	c, err := svc.AddItem(ctx, id, p.ID, 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, uint(3), c.Items[0].Quantity)
	assert.InDelta(t, 150, c.Total, 1e-9)
}

// Adding an already carted product refreshes the line's price snapshot to
// the current catalog price, and the total follows.
func TestAddItem_RefreshesPriceSnapshot(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 100)

	c, err := svc.AddItem(ctx, id, p.ID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 200, c.Total, 1e-9)

	require.NoError(t, db.Model(p).Update("price", 150).Error)

	c, err = svc.AddItem(ctx, id, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, uint(3), c.Items[0].Quantity)
	assert.InDelta(t, 150, c.Items[0].Price, 1e-9)
	assert.InDelta(t, 450, c.Total, 1e-9)
}

func TestAddItem_RejectsBadInput(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 10)

	_, err := svc.AddItem(ctx, id, p.ID, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	_, err = svc.AddItem(ctx, id, uuid.New(), 1)
	assert.True(t, errors.Is(err, domain.ErrProductNotFound))
}

func TestAddItem_ConcurrentAddsBothLand(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 25)

	_, err := svc.GetActiveCart(ctx, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, id, p.ID, 1)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	c, err := svc.GetActiveCart(ctx, id)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, uint(2), c.Items[0].Quantity)
	assert.InDelta(t, 50, c.Total, 1e-9)
}

func TestUpdateQuantity(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 40)

	_, err := svc.AddItem(ctx, id, p.ID, 1)
	require.NoError(t, err)

	c, err := svc.UpdateQuantity(ctx, id, p.ID, 5)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, uint(5), c.Items[0].Quantity)
	assert.InDelta(t, 200, c.Total, 1e-9)

	_, err = svc.UpdateQuantity(ctx, id, p.ID, -1)
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	_, err = svc.UpdateQuantity(ctx, id, uuid.New(), 2)
	assert.True(t, errors.Is(err, domain.ErrCartItemNotFound))
}

// Setting quantity to zero removes the line, same as an explicit remove.
func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 40)

	_, err := svc.AddItem(ctx, id, p.ID, 3)
	require.NoError(t, err)

	c, err := svc.UpdateQuantity(ctx, id, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Total)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 12)

	_, err := svc.AddItem(ctx, id, p.ID, 2)
	require.NoError(t, err)

	c, err := svc.RemoveItem(ctx, id, p.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Total)

	c, err = svc.RemoveItem(ctx, id, p.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestClear(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p1 := seedProduct(t, db, 10)
	p2 := seedProduct(t, db, 20)

	_, err := svc.AddItem(ctx, id, p1.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, id, p2.ID, 1)
	require.NoError(t, err)

	c, err := svc.Clear(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Total)
	assert.Equal(t, domain.CartActive, c.Status)
}

func TestComplete(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 30)

	_, err := svc.AddItem(ctx, id, p.ID, 2)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.CartCompleted, done.Status)
	assert.InDelta(t, 60, done.Total, 1e-9)

	// The completed cart is terminal; the next operation starts fresh.
	fresh, err := svc.GetActiveCart(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, done.ID, fresh.ID)
	assert.Empty(t, fresh.Items)

	var kept models.Cart
	require.NoError(t, db.First(&kept, "id = ?", done.ID).Error)
	assert.Equal(t, domain.CartCompleted, kept.Status)
	assert.InDelta(t, 60, kept.Total, 1e-9)
}

func TestComplete_EmptyCart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()

	_, err := svc.Complete(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrEmptyCart))
}

func TestAbandon(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 30)

	_, err := svc.AddItem(ctx, id, p.ID, 1)
	require.NoError(t, err)

	gone, err := svc.Abandon(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.CartAbandoned, gone.Status)

	// Abandoning with no open cart closes a brand new empty one.
	gone2, err := svc.Abandon(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, gone.ID, gone2.ID)
	assert.Equal(t, domain.CartAbandoned, gone2.Status)
}

// A terminal cart never changes again even if an item mutation and a close
// race each other; the next mutation lands on a fresh cart.
func TestTerminalCartStaysTerminal(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	id := professionalIdentity()
	p := seedProduct(t, db, 15)

	_, err := svc.AddItem(ctx, id, p.ID, 1)
	require.NoError(t, err)
	done, err := svc.Complete(ctx, id)
	require.NoError(t, err)

	c, err := svc.AddItem(ctx, id, p.ID, 4)
	require.NoError(t, err)
	assert.NotEqual(t, done.ID, c.ID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, uint(4), c.Items[0].Quantity)

	var kept models.Cart
	require.NoError(t, db.Preload("Items").First(&kept, "id = ?", done.ID).Error)
	assert.Equal(t, domain.CartCompleted, kept.Status)
	require.Len(t, kept.Items, 1)
	assert.Equal(t, uint(1), kept.Items[0].Quantity)
}
