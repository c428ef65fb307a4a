package start

import (
	"github.com/spf13/cobra"

	"github.com/tabledine/session-manager/internal/business"
	"github.com/tabledine/session-manager/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"start",
		"Start a table session",
		"Start requests a session token for the configured tenant and table and prints the tenant metadata.",
		buildInfo,
		cmdutils.RunAsJob,
		business.StartMain,
	)
}
