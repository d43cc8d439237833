package main

import (
	"fmt"
	"os"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	emailsvc "github.com/scibridge/scibridge/services/email"
	logsvc "github.com/scibridge/scibridge/services/logger"
	"github.com/scibridge/scibridge/storage/filestore"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New(conf)

	if conf.StoreDriver == "memory" {
		logger.Fatal("admin commands need a persistent store; set STORE_DRIVER=file")
	}
	db, err := filestore.Open(conf.DataDir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening data dir: %v", err), err)
	}

	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		accSvc: account.NewService(
			filestore.NewAccountRepository(db),
			emailsvc.New(conf, logger),
			validate,
			translator,
			account.OptionsFromConfig(conf),
		),
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
