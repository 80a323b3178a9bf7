package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keshon/commando/internal/config"
)

func newCommandsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the registered commands and their settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			c, err := newClient(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tCOMMAND\tALIASES\tFORMAT\tFLAGS")
			for _, g := range c.Registry().Groups() {
				for _, command := range g.Commands() {
					info := command.Info()
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						g.ID, info.Name, strings.Join(info.Aliases, ","), info.Format, flags(info.GuildOnly, info.OwnerOnly, info.Guarded, info.NSFW))
				}
			}
			return w.Flush()
		},
	}
}

func flags(guildOnly, ownerOnly, guarded, nsfw bool) string {
	var out []string
	for _, f := range []struct {
		on   bool
		name string
	}{{guildOnly, "guild-only"}, {ownerOnly, "owner-only"}, {guarded, "guarded"}, {nsfw, "nsfw"}} {
		if f.on {
			out = append(out, f.name)
		}
	}
	return strings.Join(out, ",")
}
