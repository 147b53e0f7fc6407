package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/gym_revenue/database"
	"github.com/anjiri1684/gym_revenue/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestDB opens a private in-memory database. One connection means
// transactions from concurrent goroutines run one after another, the same
// serialization row locks give on postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type recordingPusher struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (p *recordingPusher) Push(n models.Notification, recipient models.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, n)
}

func (p *recordingPusher) pushed() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Notification(nil), p.notes...)
}

func (p *recordingPusher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = nil
}

type fixture struct {
	db         *gorm.DB
	admin      AuthContext
	pusher     *recordingPusher
	rates      *RateTable
	settlement *SettlementService
	ledger     *WithdrawalLedger
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRecorder(t, nil)
}

func newFixtureWithRecorder(t *testing.T, recorder ActivityRecorder) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := zerolog.Nop()

	admin := models.User{FullName: "Site Admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	pusher := &recordingPusher{}
	rates := NewRateTable(db, recorder, log)
	return &fixture{
		db:         db,
		admin:      AuthContext{ActorID: admin.ID, Role: models.RoleAdmin, IP: "127.0.0.1", UserAgent: "go-test"},
		pusher:     pusher,
		rates:      rates,
		settlement: NewSettlementService(db, rates, log),
		ledger:     NewWithdrawalLedger(db, NewNotifier(db, log, pusher), recorder, log),
	}
}

type gymFixture struct {
	owner  models.User
	gym    models.Gym
	method models.PaymentMethod
}

func (f *fixture) ownerAuth(g gymFixture) AuthContext {
	return AuthContext{ActorID: g.owner.ID, Role: models.RoleGymOwner}
}

func (f *fixture) addGym(t *testing.T, balance string) gymFixture {
	t.Helper()

	owner := models.User{
		FullName: "Owner " + uuid.NewString()[:8],
		Email:    uuid.NewString() + "@gyms.example.com",
		Password: "x",
		Role:     models.RoleGymOwner,
	}
	if err := f.db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	gym := models.Gym{OwnerID: owner.ID, Name: "Iron Temple", Balance: d(balance)}
	if err := f.db.Create(&gym).Error; err != nil {
		t.Fatalf("create gym: %v", err)
	}
	account := "001122334455"
	method := models.PaymentMethod{GymID: gym.GymID, MethodType: "bank", AccountName: owner.FullName, AccountNumber: &account, IsPrimary: true}
	if err := f.db.Create(&method).Error; err != nil {
		t.Fatalf("create payment method: %v", err)
	}
	return gymFixture{owner: owner, gym: gym, method: method}
}

// addPending inserts a request whose amount was already reserved from the
// gym balance.
func (f *fixture) addPending(t *testing.T, g gymFixture, amount string, createdAt time.Time) models.WithdrawalRequest {
	t.Helper()
	req := models.WithdrawalRequest{
		GymID:           g.gym.GymID,
		Amount:          d(amount),
		PaymentMethodID: g.method.ID,
		Status:          models.WithdrawalPending,
		CreatedAt:       createdAt,
	}
	if err := f.db.Create(&req).Error; err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	return req
}

func (f *fixture) balance(t *testing.T, gymID uuid.UUID) decimal.Decimal {
	t.Helper()
	var gym models.Gym
	if err := f.db.First(&gym, "gym_id = ?", gymID).Error; err != nil {
		t.Fatalf("load gym: %v", err)
	}
	return gym.Balance
}

func (f *fixture) withdrawal(t *testing.T, id uuid.UUID) models.WithdrawalRequest {
	t.Helper()
	var req models.WithdrawalRequest
	if err := f.db.First(&req, "id = ?", id).Error; err != nil {
		t.Fatalf("load withdrawal: %v", err)
	}
	return req
}

func (f *fixture) count(t *testing.T, model any, where ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func assertBalance(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("balance: got %s, want %s", got, want)
	}
}
