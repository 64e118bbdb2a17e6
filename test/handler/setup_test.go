package handler_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/mont-sinai/chorale/internal/config"
	"github.com/mont-sinai/chorale/internal/filestore"
	"github.com/mont-sinai/chorale/internal/handler"
	"github.com/mont-sinai/chorale/internal/middleware"
	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/otp"
	"github.com/mont-sinai/chorale/internal/pkg/jwt"
	"github.com/mont-sinai/chorale/internal/pkg/password"
	"github.com/mont-sinai/chorale/internal/pkg/timeutil"
	"github.com/mont-sinai/chorale/internal/repo"
	"github.com/mont-sinai/chorale/internal/service"
	"github.com/mont-sinai/chorale/test/testutil"
)

const testOTPCode = "123456"

var testAccessSecret = []byte("test-access-secret")

type noopSender struct{}

func (noopSender) Send(to, subject, body string) error {
	return nil
}

func newTestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

type fixture struct {
	router  http.Handler
	users   *repo.UserRepo
	cleanup func()
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, dbCleanup := testutil.OpenTestDB(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	userRepo := repo.NewUserRepo(db)
	catalogueRepo := repo.NewCatalogueRepo(db)
	categoryRepo := repo.NewCategoryRepo(db)
	subCategoryRepo := repo.NewSubCategoryRepo(db)
	plancheRepo := repo.NewPlancheRepo(db)

	codeStore := otp.NewStore(redisClient)
	authService := service.NewAuthService(
		userRepo,
		codeStore,
		noopSender{},
		func() (string, error) { return testOTPCode, nil },
		testAccessSecret,
		[]byte("test-refresh-secret"),
		15*time.Minute,
		time.Hour,
	)
	userService := service.NewUserService(userRepo)
	catalogueService := service.NewCatalogueService(catalogueRepo, categoryRepo, subCategoryRepo, plancheRepo)
	plancheService, err := service.NewPlancheService(plancheRepo, subCategoryRepo)
	require.NoError(t, err)

	tmpDir, err := os.MkdirTemp("", "chorale-upload-*")
	require.NoError(t, err)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": tmpDir,
		},
	})
	require.NoError(t, err)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Users:         handler.NewUserHandler(userService),
		Categories:    handler.NewCategoryHandler(catalogueService),
		SubCategories: handler.NewSubCategoryHandler(catalogueService),
		Planches:      handler.NewPlancheHandler(plancheService, store),
		Files:         handler.NewFileHandler(store),
		AccessSecret:  testAccessSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return &fixture{
		router: engine,
		users:  userRepo,
		cleanup: func() {
			_ = redisClient.Close()
			dbCleanup()
			_ = os.RemoveAll(tmpDir)
		},
	}
}

// seedUser inserts an account directly and returns it with a valid
// access token for its role.
func (f *fixture) seedUser(t *testing.T, role, status string) (*model.User, string) {
	t.Helper()
	hash, err := password.Hash("secret123")
	require.NoError(t, err)
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newTestID(),
		Email:        newTestID() + "@example.com",
		PasswordHash: hash,
		FullName:     "Test Choriste",
		Role:         role,
		Status:       status,
		Ctime:        now,
		Mtime:        now,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	token, err := jwt.GenerateAccessToken(user.ID, user.Role, testAccessSecret, time.Hour)
	require.NoError(t, err)
	return user, token
}
