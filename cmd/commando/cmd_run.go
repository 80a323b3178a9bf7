package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/keshon/commando/internal/argument"
	"github.com/keshon/commando/internal/client"
	"github.com/keshon/commando/internal/commands/core"
	"github.com/keshon/commando/internal/config"
	"github.com/keshon/commando/internal/discord"
	"github.com/keshon/commando/internal/status"
	"github.com/keshon/commando/internal/storage"
	"github.com/keshon/commando/pkg/jobmgr"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.SetLevel(cfg.Level())
	if err := cfg.Validate(); err != nil {
		return err
	}
	argument.DefaultWait = cfg.PromptTimeout

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newClient(cfg)
	if err != nil {
		return err
	}

	provider, err := openProvider(cfg)
	if err != nil {
		return err
	}
	c.SetProvider(provider)
	defer func() {
		if err := c.Close(); err != nil {
			log.Errorf("[Main] close settings: %v", err)
		}
	}()

	jobs := jobmgr.NewManager(ctx, nil)
	defer func() {
		stop()
		jobs.Wait()
	}()
	if err := jobs.Start("sweeper", func(ctx context.Context) error {
		c.Run(ctx)
		return nil
	}); err != nil {
		return err
	}
	if cfg.StatusAddr != "" {
		stats, unsubscribe := status.NewStats(c.Events())
		defer unsubscribe()
		srv := status.New(c.Registry(), stats)
		if err := jobs.Start("status", func(ctx context.Context) error {
			return srv.Serve(ctx, cfg.StatusAddr)
		}); err != nil {
			return err
		}
	}

	log.WithField("driver", cfg.SettingsDriver).Info("[Main] starting bot")
	bot := discord.NewBot(discord.Config{
		Token:          cfg.DiscordToken,
		GuildBlacklist: cfg.GuildBlacklist,
		Status:         cfg.Status,
	}, c)
	if err := bot.Run(ctx); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	log.Info("[Main] bot exited cleanly")
	return nil
}

// newClient builds the client with the built-in commands registered.
func newClient(cfg *config.Config) (*client.Client, error) {
	opts := client.DefaultOptions()
	opts.Owners = cfg.Owners
	opts.Invite = cfg.Invite
	opts.CommandPrefix = cfg.CommandPrefix
	if cfg.MentionOnly {
		opts.CommandPrefix = ""
	}
	opts.CommandEditableDuration = cfg.CommandEditableDuration
	opts.NonCommandEditable = cfg.NonCommandEditable
	opts.UnknownCommandResponse = cfg.UnknownCommandResponse
	opts.CommandBlockedMessagePattern = cfg.CommandBlockedMessagePattern
	opts.CommandThrottlingMessagePattern = cfg.CommandThrottlingMessagePattern
	opts.GuildBlacklist = cfg.GuildBlacklist

	c := client.New(opts)
	if err := core.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

func openProvider(cfg *config.Config) (storage.Provider, error) {
	if cfg.SettingsDriver == config.DriverSQLite {
		p, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite settings: %w", err)
		}
		return p, nil
	}
	p, err := storage.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	return p, nil
}
