package database

import (
	"errors"

	config "github.com/anjiri1684/gym_revenue/configs"
	"github.com/anjiri1684/gym_revenue/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDB(log zerolog.Logger) {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	log.Info().Msg("database connected")
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Gym{},
		&models.PaymentMethod{},
		&models.Payment{},
		&models.RevenueRule{},
		&models.FeeRule{},
		&models.WithdrawalRequest{},
		&models.Notification{},
		&models.ActivityLog{},
	)
}

func Migrate(log zerolog.Logger) {
	if err := AutoMigrate(DB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("database migration successful")
}

// SeedAdmin creates the bootstrap admin account from the environment if no
// user with that email exists yet.
func SeedAdmin(db *gorm.DB, email, password, fullName string) (bool, error) {
	if email == "" || password == "" {
		return false, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	admin := models.User{
		FullName: fullName,
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}
