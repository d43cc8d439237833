package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
	"github.com/scibridge/scibridge/core/console"
	"github.com/scibridge/scibridge/core/forum"
	logsvc "github.com/scibridge/scibridge/services/logger"
	inmemdb "github.com/scibridge/scibridge/storage/inmem"
	"github.com/scibridge/scibridge/testutil"
)

const testPassword = "Gr8-Experiments!"

type fixture struct {
	app     Server
	deps    ServerDeps
	conf    *core.Config
	outbox  *testutil.Outbox
	accRepo account.Repository
	tokens  *tokenIssuer

	admin   account.Account
	teacher account.Account
	student account.Account
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "SciBridge Forum",
		Env:       "test",
		TestMode:  true,
		SecretKey: "secret",
		Server: core.ServerConfig{
			AllowedOrigins:      []string{"http://localhost:5173"},
			TrustIdentityHeader: true,
			BodyLimit:           "1M",
			JWTExpiration:       time.Hour,
		},
	}
}

func setup(t *testing.T, opts ...account.Options) fixture {
	t.Helper()

	var opt account.Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	opt.Hasher = account.NewBcryptHasher(4)

	seed, err := forum.DefaultPosts()
	require.NoError(t, err)
	db := inmemdb.Open(seed...)
	accRepo := inmemdb.NewAccountRepository(db)

	conf := testConfig()
	outbox := new(testutil.Outbox)
	validate, translator := testutil.NewValidator()
	accSvc := account.NewService(accRepo, outbox, validate, translator, opt)

	deps := ServerDeps{
		Conf:       conf,
		Logger:     logsvc.NewNop(),
		AccountSvc: accSvc,
		ConsoleSvc: console.NewService(inmemdb.NewConsoleRepository(db), accSvc, validate, translator),
		ForumSvc:   forum.NewService(inmemdb.NewForumRepository(db), validate, translator),
		MailSvc:    outbox,
	}
	app := NewServer(deps)
	srv := app.(*server)

	return fixture{
		app:     app,
		deps:    deps,
		conf:    conf,
		outbox:  outbox,
		accRepo: accRepo,
		tokens:  newTokenIssuer(conf, srv.jwtConf),
		admin: testutil.CreateAccount(t, accRepo, "Admin", "admin@scibridge.org", testPassword, testutil.AccountOpts{
			Role: authz.RoleAdmin,
		}),
		teacher: testutil.CreateAccount(t, accRepo, "Ms. Lopez", "lopez@lincoln.edu", testPassword, testutil.AccountOpts{
			Role: authz.RoleTeacher, Organization: "Lincoln High",
		}),
		student: testutil.CreateAccount(t, accRepo, "Leo", "leo@lincoln.edu", testPassword, testutil.AccountOpts{
			Organization: "Lincoln High",
		}),
	}
}

type httpErr struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	email    string // identity header
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

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do runs tt against app and returns the recorder.
func do(app http.Handler, tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	if tt.email != "" {
		req.Header.Set(headerUserEmail, tt.email)
	}
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, f fixture, acc account.Account) string {
	t.Helper()
	token, err := f.tokens.GenerateToken(acc.Profile())
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
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
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
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

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
