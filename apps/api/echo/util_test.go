package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	. "github.com/sonhodourado/secretaria/apps/api/echo"
	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/dashboard"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/notice"
	"github.com/sonhodourado/secretaria/core/school"
	"github.com/sonhodourado/secretaria/core/session"
	"github.com/sonhodourado/secretaria/core/settings"
	"github.com/sonhodourado/secretaria/core/user"
	emailsvc "github.com/sonhodourado/secretaria/services/email"
	"github.com/sonhodourado/secretaria/services/messaging"
	"github.com/sonhodourado/secretaria/services/metrics"
	sqlxrepos "github.com/sonhodourado/secretaria/storage/database/sqlx"
	sessionstore "github.com/sonhodourado/secretaria/storage/session"
	"github.com/sonhodourado/secretaria/tests"
)

// testNow is noon, so "today" is 2024-03-10 in UTC.
var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

var errUnauthorized = httpErr{Error: "user not authenticated"}

type testApp struct {
	db     *sqlx.DB
	server *Server
	mailer *emailsvc.ConsoleServiceMock
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	msgtemplate.InitValidators(validate, translator)
	return validate, translator
}

func setup(t *testing.T) *testApp {
	conf := &core.Config{
		AppName:   "Secretaria",
		SecretKey: "test-secret",
		TestMode:  true,
		Server:    core.ServerConfig{SessionTTL: time.Hour},
	}

	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)

	// set up services
	validate, translator := newValidator()
	usrSvc := user.NewService(usrRepo)
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db))
	billingSvc := billing.NewService(sqlxrepos.NewChargeRepository(db), schoolSvc)
	templateSvc := msgtemplate.NewService(sqlxrepos.NewTemplateRepository(db))
	settingsSvc := settings.NewService(sqlxrepos.NewSettingsRepository(db))
	mailer := emailsvc.NewConsoleServiceMock(conf)
	m := metrics.NewMetrics()

	engine := notice.NewEngine(notice.Options{
		Charges:   billingSvc,
		Contacts:  schoolSvc,
		Templates: templateSvc,
		Log:       sqlxrepos.NewSendLogRepository(db),
		Mailer:    mailer,
		Links:     messaging.NewLinkBuilder(conf),
		Recorder:  m,
		Location:  time.UTC,
		Now:       func() time.Time { return testNow },
	})

	// set up server
	server := NewServer(Options{
		Conf:           conf,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SessionSvc:     session.NewService(sessionstore.NewInmemStore(), usrSvc, conf.Server.SessionTTL),
		SchoolSvc:      schoolSvc,
		BillingSvc:     billingSvc,
		TemplateSvc:    templateSvc,
		SettingsSvc:    settingsSvc,
		DashboardSvc:   dashboard.NewService(sqlxrepos.NewDashboardRepository(db)),
		Notices:        engine,
		Metrics:        m,
	})
	return &testApp{db: db, server: server, mailer: mailer}
}

// serve runs one request through the server.
func (app *testApp) serve(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.server.ServeHTTP(rec, req)
	return rec
}

// login creates a user of `sector` and returns a session token for it.
func (app *testApp) login(t *testing.T, uname, sector string) string {
	testutil.CreateUser(t, app.db, uname, "s3nh@-forte", sector, true)
	rec := app.serve(http.MethodPost, "/v1/auth/login", "", marchallObj(t, LoginRequest{Username: uname, Password: "s3nh@-forte"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
