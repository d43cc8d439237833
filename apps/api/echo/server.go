package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/console"
	"github.com/scibridge/scibridge/core/forum"
	"github.com/scibridge/scibridge/services/metrics"
)

type (
	AccountService interface {
		Register(ctx context.Context, na account.NewAccount) (account.Profile, error)
		Verify(ctx context.Context, email, code string) (account.Profile, error)
		ResendCode(ctx context.Context, email string) error
		Login(ctx context.Context, email, pwd string) (account.Profile, error)
		GetByID(ctx context.Context, id string) (account.Account, error)
		GetByEmail(ctx context.Context, email string) (account.Account, error)
	}

	ConsoleService interface {
		FetchDashboard(ctx context.Context, actor account.Account) (console.Dashboard, error)
		UpdateUserRole(ctx context.Context, actor account.Account, ur console.UpdateRole) (account.Profile, error)
		UpdateUserStatus(ctx context.Context, actor account.Account, us console.UpdateStatus) (account.Profile, error)
		CreateAnnouncement(ctx context.Context, actor account.Account, na console.NewAnnouncement) (console.Announcement, error)
		CreateContest(ctx context.Context, actor account.Account, nc console.NewContest) (console.Contest, error)
		CreatePracticeSet(ctx context.Context, actor account.Account, np console.NewPracticeSet) (console.PracticeSet, error)
	}

	ForumService interface {
		ListPosts(ctx context.Context) ([]forum.Post, error)
		CreatePost(ctx context.Context, author account.Account, np forum.NewPost) (forum.Post, error)
		AddComment(ctx context.Context, author account.Account, postID string, nc forum.NewComment) (forum.Comment, error)
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		AccountSvc AccountService
		ConsoleSvc ConsoleService
		ForumSvc   ForumService
		MailSvc    core.EmailService
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		jwtConf  middleware.JWTConfig
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.AccountSvc, "AccountSvc"),
		vala.IsNotNil(deps.ConsoleSvc, "ConsoleSvc"),
		vala.IsNotNil(deps.ForumSvc, "ForumSvc"),
		vala.IsNotNil(deps.MailSvc, "MailSvc"),
	).CheckAndPanic()

	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			headerUserEmail,
		},
	}))
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}
	s.app.Use(metricsMiddleware)

	s.jwtConf = middleware.JWTConfig{
		Skipper:       noBearerToken,
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}

	s.app.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := s.app.Group("/api")
	api.GET("/health", s.health)

	actor := []echo.MiddlewareFunc{
		middleware.JWTWithConfig(s.jwtConf),
		actorMiddleware(s.deps.AccountSvc, conf.Server.TrustIdentityHeader),
	}
	registerAuthAPI(api, s.deps.AccountSvc, newTokenIssuer(conf, s.jwtConf))
	registerAdminAPI(api, actor, s.deps.ConsoleSvc)
	registerForumAPI(api, actor, s.deps.ForumSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // a shutdown is already pending
	}
}

type healthResponse struct {
	Status          string `json:"status"`
	EmailConfigured bool   `json:"emailConfigured"`
}

func (s *server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, healthResponse{Status: "ok", EmailConfigured: s.deps.MailSvc.Configured()})
}
