package main

import (
	"os"
	"path/filepath"

	"github.com/dagbft/dagmon/cmd/dagmon/commands"
	"github.com/dagbft/dagmon/config"
	"github.com/dagbft/dagmon/libs/cli"
	"github.com/dagbft/dagmon/libs/log"
	dmos "github.com/dagbft/dagmon/libs/os"
)

func main() {
	conf := config.DefaultConfig()
	logger, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
	if err != nil {
		dmos.Exit(err.Error())
	}

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.InitFilesCmd(conf, logger),
		commands.NewStartCmd(conf, logger),
		commands.VersionCmd,
	)

	cmd := cli.PrepareBaseCmd(rcmd, "DAGMON", defaultHome())
	if err := cmd.Execute(); err != nil {
		dmos.Exit(err.Error())
	}
}

func defaultHome() string {
	return os.ExpandEnv(filepath.Join("$HOME", config.DefaultDagmonDir))
}
