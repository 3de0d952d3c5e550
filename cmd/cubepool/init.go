package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"code.cubepool.io/cube/config"

	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	config.RootPathFlag

	Force bool `short:"f" long:"force" description:"Erase an existing configuration at the specified path"`
}

var initCmd InitCmd

func Init(_ context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{
		RootPathFlag: config.NewRootPathFlag(),
	}
	_, err := parser.AddCommand("init", "Generate the configuration", "Generate the default configuration for a cube pool node", &initCmd)
	return err
}

func (opts *InitCmd) Execute(_ []string) error {
	if err := os.MkdirAll(opts.RootPath, 0o700); err != nil {
		return err
	}

	cfgPath := filepath.Join(opts.RootPath, "config.toml")
	if _, err := os.Stat(cfgPath); err == nil && !opts.Force {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", cfgPath)
	}

	if err := config.Write(opts.RootPath, config.NewDefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("configuration generated at %s\n", cfgPath)
	return nil
}
