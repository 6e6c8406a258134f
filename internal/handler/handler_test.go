package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/memberdir/admin_api/internal/middleware"
	"github.com/memberdir/admin_api/internal/models"
	"github.com/memberdir/admin_api/internal/service"
	"github.com/memberdir/admin_api/internal/testutil"
	"github.com/memberdir/admin_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	router   *gin.Engine
	db       *testutil.DB
	notifier *testutil.Notifier
	photos   *testutil.PhotoStore
	clock    *testutil.Clock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{
		db:       testutil.NewDB(),
		notifier: &testutil.Notifier{},
		photos:   &testutil.PhotoStore{},
		clock:    testutil.NewClock(time.Now().UTC().Truncate(time.Second)),
	}
	app.db.Now = app.clock.Now

	tokens := service.NewTokenService("handler-secret", app.db.Accounts()).WithClock(app.clock.Now)
	accounts := service.NewAccountService(app.db.Accounts(), tokens)
	resets := service.NewPasswordResetService(app.db.Accounts(), app.db.Resets(), app.notifier, nil).WithClock(app.clock.Now)
	members := service.NewMemberService(app.db.Members(), app.photos)
	notes := service.NewSubRecordService[models.SpecialNote](app.db.Members(), testutil.NewSubRecordStore[models.SpecialNote](app.db))

	authH := NewAuthHandler(accounts, resets, nil)
	accountH := NewAccountHandler(accounts)
	memberH := NewMemberHandler(members)
	dashboardH := NewDashboardHandler(service.NewDashboardService(app.db.Accounts(), app.db.Members()))
	jwt := middleware.NewJWTMiddleware(tokens, nil)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	v1 := r.Group("/v1")
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/forgot-password", authH.ForgotPassword)
	v1.POST("/auth/verify-otp", authH.VerifyOTP)
	v1.POST("/auth/reset-password", authH.ResetPassword)

	self := v1.Group("", jwt.Handle(), middleware.RequireScope(models.ScopeSelf))
	self.POST("/auth/logout", authH.Logout)
	self.GET("/auth/profile", authH.GetProfile)
	self.PUT("/auth/profile", authH.UpdateProfile)
	self.GET("/dashboard", dashboardH.GetDashboard)

	acc := v1.Group("/accounts", jwt.Handle(), middleware.RequireScope(models.ScopeAccounts))
	acc.GET("", accountH.ListAccounts)
	acc.POST("", accountH.CreateAccount)

	mem := v1.Group("/members", jwt.Handle(), middleware.RequireScope(models.ScopeDirectory))
	mem.GET("", memberH.ListMembers)
	mem.POST("", memberH.CreateMember)
	mem.GET("/:member_id", memberH.GetMember)
	mem.PUT("/:member_id", memberH.UpdateMember)
	mem.DELETE("/:member_id", memberH.DeleteMember)
	mem.POST("/:member_id/photo", memberH.UploadPhoto)
	NewSubRecordHandler("special-notes", notes).Register(mem.Group("/:member_id"))

	app.router = r
	return app
}

func (a *testApp) seed(t *testing.T, id, email, password string, role models.Role) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	a.db.SeedAccount(&models.AdminAccount{AccountID: id, Email: email, Name: "Operator " + id, PasswordHash: string(hash), Role: role})
}

func (a *testApp) call(t *testing.T, method, path, token string, body any) (int, utils.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	code, resp := a.call(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, 200, code)
	return resp.Data.(map[string]any)["token"].(string)
}

func dataMap(t *testing.T, resp utils.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestLoginEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "a-1", "ops@example.org", "correct-horse", models.RoleSuperAdmin)

	code, resp := app.call(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "ops@example.org", "password": "correct-horse"})
	require.Equal(t, 200, code)
	data := dataMap(t, resp)
	assert.NotEmpty(t, data["token"])
	account := data["account"].(map[string]any)
	assert.Equal(t, "a-1", account["account_id"])
	assert.Equal(t, "superadmin", account["role"])
	assert.NotContains(t, account, "password_hash")

	code, resp = app.call(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "ops@example.org", "password": "nope"})
	assert.Equal(t, 401, code)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)

	code, resp = app.call(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, 400, code)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Rule
	}
	assert.Equal(t, map[string]string{"email": "email", "password": "required"}, fields)
}

func TestProfileAndDashboard(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "a-1", "ops@example.org", "correct-horse", models.RoleAdmin)
	token := app.login(t, "ops@example.org", "correct-horse")

	code, resp := app.call(t, http.MethodGet, "/v1/auth/profile", token, nil)
	require.Equal(t, 200, code)
	assert.Equal(t, "ops@example.org", dataMap(t, resp)["email"])

	code, resp = app.call(t, http.MethodPut, "/v1/auth/profile", token, gin.H{"name": "Night Shift"})
	require.Equal(t, 200, code)
	assert.Equal(t, "Night Shift", dataMap(t, resp)["name"])

	code, resp = app.call(t, http.MethodGet, "/v1/dashboard", token, nil)
	require.Equal(t, 200, code)
	assert.Equal(t, "Hello, Night Shift", dataMap(t, resp)["greeting"])

	code, _ = app.call(t, http.MethodPost, "/v1/auth/logout", token, nil)
	assert.Equal(t, 200, code)

	code, resp = app.call(t, http.MethodGet, "/v1/auth/profile", "", nil)
	assert.Equal(t, 401, code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestTokenExpiryOverHTTP(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "a-1", "ops@example.org", "correct-horse", models.RoleAdmin)
	token := app.login(t, "ops@example.org", "correct-horse")

	app.clock.Advance(24 * time.Hour)
	code, resp := app.call(t, http.MethodGet, "/v1/auth/profile", token, nil)
	assert.Equal(t, 401, code)
	assert.Equal(t, "TOKEN_EXPIRED", resp.Error.Code)
}

func TestAccountManagement(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "root", "root@example.org", "root-password", models.RoleSuperAdmin)
	app.seed(t, "a-1", "ops@example.org", "correct-horse", models.RoleAdmin)
	root := app.login(t, "root@example.org", "root-password")
	admin := app.login(t, "ops@example.org", "correct-horse")

	newAccount := gin.H{
		"email": "new@example.org", "name": "New", "password": "password-1",
		"confirm_password": "password-1", "role": "admin",
	}

	code, resp := app.call(t, http.MethodPost, "/v1/accounts", admin, newAccount)
	assert.Equal(t, 403, code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	code, resp = app.call(t, http.MethodPost, "/v1/accounts", root, newAccount)
	require.Equal(t, 201, code)
	assert.Equal(t, "new@example.org", dataMap(t, resp)["email"])

	code, resp = app.call(t, http.MethodPost, "/v1/accounts", root, newAccount)
	assert.Equal(t, 409, code)
	assert.Equal(t, "EMAIL_EXISTS", resp.Error.Code)

	mismatch := gin.H{
		"email": "other@example.org", "name": "Other", "password": "password-1",
		"confirm_password": "password-2", "role": "admin",
	}
	code, resp = app.call(t, http.MethodPost, "/v1/accounts", root, mismatch)
	assert.Equal(t, 400, code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "confirm_password", resp.Error.Details[0].Field)
	assert.Equal(t, "eqfield", resp.Error.Details[0].Rule)

	code, resp = app.call(t, http.MethodGet, "/v1/accounts", root, nil)
	require.Equal(t, 200, code)
	assert.EqualValues(t, 3, dataMap(t, resp)["total"])
}

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "a-1", "ops@example.org", "old-password", models.RoleAdmin)

	code, known := app.call(t, http.MethodPost, "/v1/auth/forgot-password", "", gin.H{"email": "ops@example.org"})
	require.Equal(t, 200, code)
	code, unknown := app.call(t, http.MethodPost, "/v1/auth/forgot-password", "", gin.H{"email": "ghost@example.org"})
	require.Equal(t, 200, code)
	assert.Equal(t, known.Message, unknown.Message)
	assert.Equal(t, known.Data, unknown.Data)
	require.Len(t, app.notifier.Sent(), 1)

	otp := app.notifier.Last()
	code, resp := app.call(t, http.MethodPost, "/v1/auth/verify-otp", "", gin.H{"email": "ops@example.org", "otp_code": otp})
	require.Equal(t, 200, code)
	assert.Equal(t, true, dataMap(t, resp)["valid"])

	reset := gin.H{"email": "ops@example.org", "otp_code": otp, "new_password": "new-password", "confirm_password": "new-password"}
	code, _ = app.call(t, http.MethodPost, "/v1/auth/reset-password", "", reset)
	require.Equal(t, 200, code)

	code, resp = app.call(t, http.MethodPost, "/v1/auth/reset-password", "", reset)
	assert.Equal(t, 400, code)
	assert.Equal(t, "OTP_INVALID", resp.Error.Code)

	app.login(t, "ops@example.org", "new-password")
}

func TestPasswordResetExpiredAndDeliveryFailure(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "a-1", "ops@example.org", "old-password", models.RoleAdmin)

	code, _ := app.call(t, http.MethodPost, "/v1/auth/forgot-password", "", gin.H{"email": "ops@example.org"})
	require.Equal(t, 200, code)
	otp := app.notifier.Last()

	app.clock.Advance(10*time.Minute + time.Second)
	code, resp := app.call(t, http.MethodPost, "/v1/auth/verify-otp", "", gin.H{"email": "ops@example.org", "otp_code": otp})
	assert.Equal(t, 400, code)
	assert.Equal(t, "OTP_EXPIRED", resp.Error.Code)

	app.notifier.Err = assert.AnError
	code, resp = app.call(t, http.MethodPost, "/v1/auth/forgot-password", "", gin.H{"email": "ops@example.org"})
	assert.Equal(t, 500, code)
	assert.Equal(t, "NOTIFICATION_FAILED", resp.Error.Code)
}

func TestOTPAttemptsAreLimited(t *testing.T) {
	db := testutil.NewDB()
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	db.SeedAccount(&models.AdminAccount{AccountID: "a-1", Email: "ops@example.org", Name: "Ops", PasswordHash: string(hash), Role: models.RoleAdmin})

	notifier := &testutil.Notifier{}
	tokens := service.NewTokenService("handler-secret", db.Accounts())
	authH := NewAuthHandler(
		service.NewAccountService(db.Accounts(), tokens),
		service.NewPasswordResetService(db.Accounts(), db.Resets(), notifier, nil),
		middleware.NewInvalidAuthRateLimiter(3, time.Minute),
	)
	r := gin.New()
	r.POST("/v1/auth/forgot-password", authH.ForgotPassword)
	r.POST("/v1/auth/verify-otp", authH.VerifyOTP)
	r.POST("/v1/auth/reset-password", authH.ResetPassword)
	app := &testApp{router: r, db: db, notifier: notifier}

	code, _ := app.call(t, http.MethodPost, "/v1/auth/forgot-password", "", gin.H{"email": "ops@example.org"})
	require.Equal(t, 200, code)
	otp := notifier.Last()
	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}

	for i := 0; i < 3; i++ {
		code, resp := app.call(t, http.MethodPost, "/v1/auth/verify-otp", "", gin.H{"email": "ops@example.org", "otp_code": wrong})
		require.Equal(t, 400, code)
		assert.Equal(t, "OTP_INVALID", resp.Error.Code)
	}

	code, resp := app.call(t, http.MethodPost, "/v1/auth/verify-otp", "", gin.H{"email": "ops@example.org", "otp_code": wrong})
	assert.Equal(t, 429, code)
	assert.Equal(t, "TOO_MANY_REQUESTS", resp.Error.Code)

	code, _ = app.call(t, http.MethodPost, "/v1/auth/verify-otp", "", gin.H{"email": "ops@example.org", "otp_code": otp})
	assert.Equal(t, 429, code, "a locked client cannot confirm a correct guess")

	reset := gin.H{"email": "ops@example.org", "otp_code": otp, "new_password": "new-password", "confirm_password": "new-password"}
	code, _ = app.call(t, http.MethodPost, "/v1/auth/reset-password", "", reset)
	assert.Equal(t, 429, code)

	otps := db.OTPs("a-1")
	require.Len(t, otps, 1)
	assert.False(t, otps[0].Used)
	assert.Equal(t, string(hash), db.Account("a-1").PasswordHash)
}

func validMember() gin.H {
	return gin.H{
		"full_name": "Kim Jisoo", "region": "North", "nation": "Korea", "nationality": "Korean",
		"gender": "Female", "blessing": "1982", "date_of_joining": "2020-01-15",
		"email": "jisoo@example.org", "phone_no": "010-0000-0000", "address": "1 Main St",
		"birthday": "1990-05-02",
	}
}

func TestMemberEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "root", "root@example.org", "root-password", models.RoleSuperAdmin)
	app.seed(t, "a-1", "ops@example.org", "correct-horse", models.RoleAdmin)
	root := app.login(t, "root@example.org", "root-password")
	admin := app.login(t, "ops@example.org", "correct-horse")

	code, _ := app.call(t, http.MethodPost, "/v1/members", admin, validMember())
	assert.Equal(t, 403, code)

	invalid := validMember()
	invalid["gender"] = "Unknown"
	delete(invalid, "email")
	code, resp := app.call(t, http.MethodPost, "/v1/members", root, invalid)
	assert.Equal(t, 400, code)
	assert.Len(t, resp.Error.Details, 2)

	code, resp = app.call(t, http.MethodPost, "/v1/members", root, validMember())
	require.Equal(t, 201, code)
	created := dataMap(t, resp)
	memberID := created["member_id"].(string)
	assert.Equal(t, "1990-05-02", created["birthday"])

	code, resp = app.call(t, http.MethodGet, "/v1/members/"+memberID, admin, nil)
	require.Equal(t, 200, code)
	assert.Equal(t, "Kim Jisoo", dataMap(t, resp)["full_name"])

	code, resp = app.call(t, http.MethodPut, "/v1/members/"+memberID, root, gin.H{"region": "South"})
	require.Equal(t, 200, code)
	assert.Equal(t, "South", dataMap(t, resp)["region"])
	assert.Equal(t, "Kim Jisoo", dataMap(t, resp)["full_name"])

	code, resp = app.call(t, http.MethodGet, "/v1/members?search=kim&limit=10", admin, nil)
	require.Equal(t, 200, code)
	require.NotNil(t, resp.Meta.Pagination)
	assert.Equal(t, 1, resp.Meta.Pagination.TotalItems)

	code, _ = app.call(t, http.MethodPost, "/v1/members/"+memberID+"/special-notes", root, gin.H{"details": "Prefers email", "date_written": "2024-02-01"})
	require.Equal(t, 201, code)

	code, resp = app.call(t, http.MethodGet, "/v1/members/"+memberID+"/special-notes", admin, nil)
	require.Equal(t, 200, code)
	assert.Len(t, resp.Data, 1)

	code, _ = app.call(t, http.MethodDelete, "/v1/members/"+memberID, root, nil)
	require.Equal(t, 200, code)

	code, resp = app.call(t, http.MethodGet, "/v1/members/"+memberID, admin, nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "MEMBER_NOT_FOUND", resp.Error.Code)

	code, resp = app.call(t, http.MethodGet, "/v1/members/"+memberID+"/special-notes", admin, nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "MEMBER_NOT_FOUND", resp.Error.Code)
}

func TestSubRecordEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "root", "root@example.org", "root-password", models.RoleSuperAdmin)
	root := app.login(t, "root@example.org", "root-password")

	_, resp := app.call(t, http.MethodPost, "/v1/members", root, validMember())
	memberID := dataMap(t, resp)["member_id"].(string)
	base := "/v1/members/" + memberID + "/special-notes"

	code, resp := app.call(t, http.MethodPost, base, root, gin.H{"details": "First", "note_id": "forged"})
	require.Equal(t, 201, code)
	noteID := dataMap(t, resp)["note_id"].(string)
	assert.NotEqual(t, "forged", noteID)

	code, resp = app.call(t, http.MethodPut, base+"/"+noteID, root, gin.H{"details": "Second"})
	require.Equal(t, 200, code)
	assert.Equal(t, "Second", dataMap(t, resp)["details"])
	assert.Equal(t, memberID, dataMap(t, resp)["member_id"])

	code, resp = app.call(t, http.MethodGet, "/v1/members/other/special-notes/"+noteID, root, nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "MEMBER_NOT_FOUND", resp.Error.Code)

	code, _ = app.call(t, http.MethodDelete, base+"/"+noteID, root, nil)
	require.Equal(t, 200, code)

	code, resp = app.call(t, http.MethodGet, base+"/"+noteID, root, nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "RECORD_NOT_FOUND", resp.Error.Code)
}

func TestUploadPhoto(t *testing.T) {
	app := newTestApp(t)
	app.seed(t, "root", "root@example.org", "root-password", models.RoleSuperAdmin)
	root := app.login(t, "root@example.org", "root-password")

	_, resp := app.call(t, http.MethodPost, "/v1/members", root, validMember())
	memberID := dataMap(t, resp)["member_id"].(string)

	upload := func(content []byte) (int, utils.Response) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("photo", "photo.bin")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/members/"+memberID+"/photo", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+root)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		var out utils.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return w.Code, out
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	code, resp := upload(png)
	require.Equal(t, 200, code)
	assert.Equal(t, "https://cdn.test/members/"+memberID+"/photo.jpg", dataMap(t, resp)["profile_photo_url"])
	assert.Equal(t, png, app.photos.Uploaded[memberID])

	code, resp = upload([]byte("plain text, not an image"))
	assert.Equal(t, 400, code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", resp.Error.Code)

	app.photos.Err = errors.New("bucket unreachable")
	code, resp = upload(png)
	assert.Equal(t, 503, code)
	assert.Equal(t, "STORAGE_UNAVAILABLE", resp.Error.Code)
}
