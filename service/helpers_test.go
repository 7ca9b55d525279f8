package service

import (
	"context"
	"sync"
	"testing"

	"food-marketplace-api/apperr"
	"food-marketplace-api/audit"
	"food-marketplace-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type captureLog struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureLog) Record(_ context.Context, e audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureLog) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Action
	}
	return out
}

// fixture is a seeded marketplace: two owners with a restaurant each, a
// customer, two riders and an admin.
type fixture struct {
	db     *gorm.DB
	audit  *captureLog
	orders *OrderService

	customer, otherCustomer Caller
	riderA, riderB          Caller
	owner, otherOwner       Caller
	admin                   Caller

	restaurant, otherRestaurant models.Restaurant
	burger, fries, salad        models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	capture := &captureLog{}
	f := &fixture{
		db:     db,
		audit:  capture,
		orders: NewOrderService(db, capture, zap.NewNop()),
	}

	f.customer = createUser(t, db, "Cathy", models.RoleUser)
	f.otherCustomer = createUser(t, db, "Carl", models.RoleUser)
	f.riderA = createUser(t, db, "Rita", models.RoleRider)
	f.riderB = createUser(t, db, "Rob", models.RoleRider)
	f.owner = createUser(t, db, "Olga", models.RoleOwner)
	f.otherOwner = createUser(t, db, "Omar", models.RoleOwner)
	f.admin = createUser(t, db, "Ada", models.RoleAdmin)

	f.restaurant = createRestaurant(t, db, f.owner, "Burger Barn", "American")
	f.otherRestaurant = createRestaurant(t, db, f.otherOwner, "Green Bowl", "Healthy")

	f.burger = createMenuItem(t, db, f.restaurant.ID, "Burger", "10.00")
	f.fries = createMenuItem(t, db, f.restaurant.ID, "Fries", "15.00")
	f.salad = createMenuItem(t, db, f.otherRestaurant.ID, "Salad", "8.50")
	return f
}

func createUser(t *testing.T, db *gorm.DB, name string, role models.UserRole) Caller {
	t.Helper()
	user := models.User{
		Name:         name,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Phone:        "555-0100",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return Caller{UserID: user.ID, Role: role}
}

func createRestaurant(t *testing.T, db *gorm.DB, owner Caller, name, cuisine string) models.Restaurant {
	t.Helper()
	r := models.Restaurant{
		OwnerID: owner.UserID,
		Name:    name,
		Address: "1 Main St",
		Phone:   "555-0199",
		Cuisine: cuisine,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	return r
}

func createMenuItem(t *testing.T, db *gorm.DB, restaurantID uint, name, price string) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		RestaurantID: restaurantID,
		Name:         name,
		Price:        decimal.RequireFromString(price),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create menu item: %v", err)
	}
	return item
}

func (f *fixture) placeOrder(t *testing.T, caller Caller, items ...LineRequest) *PlacedOrder {
	t.Helper()
	placed, err := f.orders.PlaceOrder(context.Background(), caller, PlaceOrderRequest{
		RestaurantID:    f.restaurant.ID,
		DeliveryAddress: "42 Elm St",
		Items:           items,
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	return placed
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
