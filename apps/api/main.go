package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/scibridge/scibridge/apps/api/echo"
	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/console"
	"github.com/scibridge/scibridge/core/forum"
	emailsvc "github.com/scibridge/scibridge/services/email"
	logsvc "github.com/scibridge/scibridge/services/logger"
	"github.com/scibridge/scibridge/storage/filestore"
	inmemdb "github.com/scibridge/scibridge/storage/inmem"
)

type repositories struct {
	accounts account.Repository
	content  console.Repository
	posts    forum.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.New(conf)
	defer logger.Close()

	repos, err := openRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	mailSvc := emailsvc.New(conf, logger)
	if !conf.Mail.Configured() && conf.Mail.SendgridAPIKey == "" {
		logger.Warn("no mail transport configured; verification codes will be logged")
	}

	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)
	console.InitValidators(validate, translator)

	accSvc := account.NewService(repos.accounts, mailSvc, validate, translator, account.OptionsFromConfig(conf))
	consoleSvc := console.NewService(repos.content, accSvc, validate, translator)
	forumSvc := forum.NewService(repos.posts, validate, translator)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{
		"store": conf.StoreDriver,
		"addr":  conf.Server.Address(),
	})
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			AccountSvc: accSvc,
			ConsoleSvc: consoleSvc,
			ForumSvc:   forumSvc,
			MailSvc:    mailSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func openRepositories(conf *core.Config) (repositories, error) {
	switch conf.StoreDriver {
	case "memory":
		seed, err := forum.DefaultPosts()
		if err != nil {
			return repositories{}, err
		}
		db := inmemdb.Open(seed...)
		return repositories{
			accounts: inmemdb.NewAccountRepository(db),
			content:  inmemdb.NewConsoleRepository(db),
			posts:    inmemdb.NewForumRepository(db),
		}, nil

	case "file", "":
		db, err := filestore.Open(conf.DataDir)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			accounts: filestore.NewAccountRepository(db),
			content:  filestore.NewConsoleRepository(db),
			posts:    filestore.NewForumRepository(db),
		}, nil

	default:
		return repositories{}, errors.Errorf("unknown store driver %q", conf.StoreDriver)
	}
}
