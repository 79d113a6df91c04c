package main

import (
	"strconv"

	"github.com/napthedev/edura/storage/database"
)

func (cli *commandLine) migrate(args []string) error {
	if len(args) >= 2 && args[0] == "up-to" {
		version, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return err
		}
		return database.MigrateTo(cli.db, cli.conf, version)
	}
	return database.Migrate(cli.db, cli.conf)
}
