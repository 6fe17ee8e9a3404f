package store

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db}

	// Seed default data
	if err := store.seedData(); err != nil {
		log.Printf("Warning: failed to seed data: %v", err)
	}

	return store, nil
}

// generateRandomPassword generates a random password of specified length
func generateRandomPassword(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	// Use base64 URL encoding to get a safe, printable password
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

func (s *Store) seedData() error {
	// Create default admin user if no users exist
	var userCount int64
	s.db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		password, err := generateRandomPassword(16)
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := &models.User{
			ID:           uuid.New().String(),
			Username:     "admin",
			Email:        "admin@localhost",
			PasswordHash: string(hash),
			Role:         "admin",
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
		log.Printf("Created default user: admin / %s (role: admin)", password)
	}

	return nil
}

// User operations

func (s *Store) CreateUser(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// GetUserByEmail finds a user by email address
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

func (s *Store) DeleteUser(id string) error {
	return s.db.Delete(&models.User{}, "id = ?", id).Error
}

// Account operations

func (s *Store) CreateAccount(account *models.Account) error {
	return s.db.Create(account).Error
}

func (s *Store) GetAccountByID(id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &account, nil
}

// GetAccountsByUserID returns a page of accounts owned by userID
func (s *Store) GetAccountsByUserID(userID string, skip, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

// ListAccounts returns a page of all accounts (elevated callers only)
func (s *Store) ListAccounts(skip, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

// FindAccountByUserAndType finds the single account of the given type
// owned by userID. Rideshare connect flows rely on this query to upsert
// rather than duplicate linkages.
func (s *Store) FindAccountByUserAndType(
	userID string,
	accountType models.AccountType,
) (*models.Account, error) {
	var account models.Account
	err := s.db.Where("user_id = ? AND type = ?", userID, accountType).
		First(&account).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &account, nil
}

func (s *Store) UpdateAccount(account *models.Account) error {
	return s.db.Save(account).Error
}

func (s *Store) DeleteAccount(id string) error {
	return s.db.Delete(&models.Account{}, "id = ?", id).Error
}

// CountAccountsByType returns the number of accounts per type, used by
// the metrics gauge update job.
func (s *Store) CountAccountsByType(accountType models.AccountType) (int64, error) {
	var count int64
	err := s.db.Model(&models.Account{}).
		Where("type = ?", accountType).
		Count(&count).Error
	return count, err
}

// CountConnectedByType returns the number of accounts of the given type
// holding a live provider token.
func (s *Store) CountConnectedByType(accountType models.AccountType) (int64, error) {
	var count int64
	err := s.db.Model(&models.Account{}).
		Where("type = ? AND is_active = ?", accountType, true).
		Count(&count).Error
	return count, err
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}

// translateNotFound maps GORM's not found error to the package sentinel
// so callers never depend on gorm directly.
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return fmt.Errorf("database query failed: %w", err)
}
