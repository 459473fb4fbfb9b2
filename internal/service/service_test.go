package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tweetapp/internal/database"
	"tweetapp/internal/models"
	"tweetapp/internal/repository"
	"tweetapp/internal/session"
	"tweetapp/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

// fakeMailer records outbound mail for assertions.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestSessions(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return session.NewStore(rdb, 30*time.Minute), mr
}

// createUser inserts a verified account directly, bypassing the OTP flow.
func createUser(t *testing.T, db *gorm.DB, username, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Username: username, Email: email, Password: string(hash)}
	repo := repository.NewUserRepository(db)
	require.NoError(t, repo.CreateWithProfile(context.Background(), user))
	return user
}

func newTestTweetService(t *testing.T, db *gorm.DB) (*TweetService, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return NewTweetService(repository.NewTweetRepository(db), store), store
}
