package version

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/color"
	"github.com/streamhub-cli/streamhub/constant"
	"github.com/streamhub-cli/streamhub/icon"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/util"
)

// Notify prints a banner when a newer release exists. Failures are silent.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx)
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/streamhub-cli/streamhub/releases/tag/v"+latest),
	)
}
