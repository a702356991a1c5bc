package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/enrich/config"
	enricherrors "github.com/randalmurphal/enrich/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write configuration",
		// Config commands must work while the config is invalid, so values
		// are resolved but not parsed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.resolve()
			return nil
		},
	}
	cmd.AddCommand(
		newConfigGetCmd(a),
		newConfigSetCmd(a),
		newConfigUnsetCmd(a),
		newConfigListCmd(a),
	)
	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print a value and where it came from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, source := a.resolved.GetWithSource(args[0])
			if source == "" {
				return enricherrors.NewInvalidInputError("config key "+args[0], nil)
			}
			fmt.Fprintf(a.stdout, "%s (%s)\n", value, source)
			return nil
		},
	}
}

func newConfigSetCmd(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Write a value to the local or global config file",
		Long: `Write a value to .enrich.yaml in the repository root, or with --global
to ~/.config/enrich/config.yaml.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			save := config.DefaultSaveConfig()
			key, value := args[0], args[1]
			if global {
				if err := save.SaveGlobal(key, value); err != nil {
					return err
				}
				path, _ := save.GlobalPath()
				fmt.Fprintf(a.stdout, "Set %s in %s\n", key, path)
				return nil
			}
			root := a.resolver.GitRoot()
			if root == "" {
				return enricherrors.NewNotInGitRepoError()
			}
			if err := save.SaveLocal(root, key, value); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Set %s in %s\n", key, a.resolver.LocalPath())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "write the global config file")
	return cmd
}

func newConfigUnsetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a value from the global config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.DefaultSaveConfig().DeleteGlobalKey(args[0])
		},
	}
}

func newConfigListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every value with its source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, key := range a.resolved.Keys() {
				value, source := a.resolved.GetWithSource(key)
				if secret(key) && value != "" {
					value = "********"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", key, value, source)
			}
			return tw.Flush()
		},
	}
}

func secret(key string) bool {
	return key == config.KeyServerJWTSecret || key == config.KeyServerAPIKeys
}
