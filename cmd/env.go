package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamhub-cli/streamhub/color"
	"github.com/streamhub-cli/streamhub/config"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/where"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Show only variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Show only variables that are unset")
	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")

	envCmd.SetOut(os.Stdout)
}

type envVar struct {
	name, key string
}

// envVars lists every variable streamhub reads, config fields first by key.
func envVars() []envVar {
	keys := lo.Keys(config.Default)
	slices.Sort(keys)

	vars := lo.Map(keys, func(k string, _ int) envVar {
		field := config.Default[k]
		return envVar{name: field.Env(), key: k}
	})
	return append(vars, envVar{name: where.EnvConfigPath})
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the environment variables streamhub reads",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			setOnly   = lo.Must(cmd.Flags().GetBool("set-only"))
			unsetOnly = lo.Must(cmd.Flags().GetBool("unset-only"))
			name      = style.New().Bold(true).Foreground(color.Purple).Render
		)

		for _, v := range envVars() {
			value, present := os.LookupEnv(v.name)
			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			line := name(v.name) + "="
			if present {
				line += style.Fg(color.Green)(value)
			} else {
				line += style.Fg(color.Red)("unset")
			}

			if v.key != "" {
				line += " " + style.Faint("# "+v.key)
			}
			cmd.Println(line)
		}
	},
}
