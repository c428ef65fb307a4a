package watch

import (
	"github.com/spf13/cobra"

	"github.com/tabledine/session-manager/internal/business"
	"github.com/tabledine/session-manager/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"watch",
		"Watch the table session",
		"Watch ingests the scanned QR credentials, starts a session if none exists, and keeps it monitored until shutdown.",
		buildInfo,
		cmdutils.RunAsService,
		business.WatchMain,
	)
}
