package commands

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Register adds every command to root. fs is the file system uploads read
// from and exports write to.
func Register(root *cobra.Command, appFn AppFunc, fs afero.Fs) {
	AddOutputFlag(root)

	root.AddCommand(
		NewLoginCmd(appFn),
		NewRegisterCmd(appFn),
		NewLogoutCmd(appFn),
		NewWhoamiCmd(appFn),
		NewRefreshCmd(appFn),
		NewForgotPasswordCmd(appFn),
		NewResetPasswordCmd(appFn),
		NewProfileCmd(appFn),
		NewCreatorsCmd(appFn),
		NewPlatformsCmd(appFn),
		NewContentsCmd(appFn, fs),
		NewAnalyticsCmd(appFn),
		NewSubscribersCmd(appFn, fs),
		NewDashboardCmd(appFn),
	)
}
