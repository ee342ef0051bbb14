package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"coverart/internal/cover"
	"coverart/internal/database"
	"coverart/internal/logging"
	"coverart/internal/media"
	"coverart/internal/startup"
	"coverart/internal/vips"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag  string
		verboseFlag bool
	)

	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "coverctl",
		Short:         "Inspect, warm and index the cover art library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(verboseFlag)
			if configFlag != "" {
				return os.Setenv("CONFIG_FILE", strings.TrimSpace(configFlag))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(newGetCommand(ctx))
	rootCmd.AddCommand(newWarmCommand(ctx))
	rootCmd.AddCommand(newIndexCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// configureLogging keeps the CLI quiet unless asked otherwise.
func configureLogging(verbose bool) {
	switch {
	case verbose:
		logging.SetLevel(logging.LevelDebug)
	case os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "":
		logging.SetLevel(logging.LevelWarn)
	}
}

// commandContext lazily loads the configuration and opens the library
// database and cover service for the commands that need them.
type commandContext struct {
	configOnce sync.Once
	config     *startup.Config
	configErr  error

	db      *database.Database
	grabber *cover.Grabber
	vips    bool
}

func (c *commandContext) ensureConfig() (*startup.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = startup.Load()
	})
	return c.config, c.configErr
}

func (c *commandContext) database(ctx context.Context) (*database.Database, error) {
	if c.db != nil {
		return c.db, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.db, err = database.New(ctx, cfg.DatabasePath)
	return c.db, err
}

func (c *commandContext) covers(ctx context.Context) (*cover.Grabber, error) {
	if c.grabber != nil {
		return c.grabber, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := c.database(ctx)
	if err != nil {
		return nil, err
	}

	var codec media.Codec = media.NewImagingCodec(cfg.Cover.JPEGQuality)
	if cfg.Codec == startup.CodecVips {
		c.vips = true
		codec = vips.NewCodec(cfg.Cover.JPEGQuality)
	}

	c.grabber, err = cover.New(cfg.Cover, db, media.NewTagPictureSource(), codec)
	return c.grabber, err
}

// close releases whatever the command opened. Commands defer it.
func (c *commandContext) close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		}
		c.db = nil
	}
	if c.vips {
		vips.Shutdown()
		c.vips = false
	}
	c.grabber = nil
}
