// Package session persists the staff login and small UI preference
// flags across process restarts, and rehydrates them at startup before
// the first order load.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/chefdesk/internal/models"
)

const deviceIDKey = "device_id"

// ErrNoSession means no staff member is logged in.
var ErrNoSession = errors.New("no active session")

// Store is the local key-value state backed by sqlite. The current
// session is cached in memory so the hot Token() path never touches
// disk.
type Store struct {
	db  *gorm.DB
	log *zap.Logger

	mu      sync.RWMutex
	current *models.Session
}

// Open initializes the local database, runs migrations and rehydrates
// the persisted session. An expired token is discarded so the process
// starts logged out rather than failing its first request.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	if err := db.AutoMigrate(&models.Session{}, &models.Preference{}); err != nil {
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.rehydrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) rehydrate() error {
	var session models.Session
	err := s.db.Order("created_at desc").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if tokenExpired(session.Token) {
		s.log.Info("persisted session expired, starting logged out")
		return s.clearLocked()
	}

	s.current = &session
	return nil
}

// Save replaces any persisted session with the freshly issued one.
func (s *Store) Save(token, staffName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Where("1 = 1").Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("clear previous session: %w", err)
	}

	session := models.Session{Token: token, StaffName: staffName}
	if err := s.db.Create(&session).Error; err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.current = &session
	return nil
}

// Current returns the active session.
func (s *Store) Current() (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, ErrNoSession
	}
	return *s.current, nil
}

// Token implements the gateway's token supply. Empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Logout clears the persisted session. It is the sink the gateway
// fires on HTTP 401, so teardown is centralized here.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.clearLocked(); err != nil {
		s.log.Error("session teardown failed", zap.Error(err))
	}
}

func (s *Store) clearLocked() error {
	s.current = nil
	return s.db.Where("1 = 1").Delete(&models.Session{}).Error
}

// DeviceID returns the stable per-install identifier, generating one
// on first run.
func (s *Store) DeviceID() (string, error) {
	var pref models.Preference
	err := s.db.Where("key = ?", deviceIDKey).First(&pref).Error
	if err == nil {
		return pref.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("load device id: %w", err)
	}

	pref = models.Preference{Key: deviceIDKey, Value: uuid.NewString()}
	if err := s.db.Create(&pref).Error; err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	return pref.Value, nil
}

// SetFlag persists a boolean UI preference.
func (s *Store) SetFlag(key string, on bool) error {
	value := "false"
	if on {
		value = "true"
	}
	pref := models.Preference{Key: key, Value: value}
	err := s.db.Where("key = ?", key).
		Assign(models.Preference{Value: value}).
		FirstOrCreate(&pref).Error
	if err != nil {
		return fmt.Errorf("persist flag %s: %w", key, err)
	}
	return nil
}

// Flag reads a boolean UI preference; unset flags are false.
func (s *Store) Flag(key string) bool {
	var pref models.Preference
	if err := s.db.Where("key = ?", key).First(&pref).Error; err != nil {
		return false
	}
	return pref.Value == "true"
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; the client never holds the signing secret. Opaque or
// claimless tokens are treated as non-expiring and left to the server
// to reject.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
