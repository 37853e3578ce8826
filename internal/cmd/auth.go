package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/dormdesk/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Sign in to and out of the dormitory administration API",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the browser",
	Long: `Open the dormitory sign-in page and wait for it to call back to
dormdesk on a loopback address. With --no-browser the address is
printed instead of opened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		returnTo, _ := cmd.Flags().GetString("return")
		noBrowser, _ := cmd.Flags().GetBool("no-browser")
		return app.authService().Login(cmd.Context(), returnTo, !noBrowser)
	},
}

var callbackCmd = &cobra.Command{
	Use:   "callback <callback-url>",
	Short: "Complete a sign-in from a pasted callback address",
	Long: `Complete a sign-in started on another machine. Paste the address
the browser was sent to after signing in, or pass --code and --state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cb auth.Callback
		if len(args) == 1 {
			parsed, err := auth.ParseCallbackURL(args[0])
			if err != nil {
				return err
			}
			cb = parsed
		} else {
			cb.Code, _ = cmd.Flags().GetString("code")
			cb.State, _ = cmd.Flags().GetString("state")
			if cb.Code == "" {
				return cmd.Usage()
			}
		}
		_, err := app.authService().Callback(cmd.Context(), cb)
		return err
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out here and in every other dormdesk process",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.authService().Logout(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the session is still valid",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.authService().Status(cmd.Context(), configDirLabel())
	},
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(callbackCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().String("return", auth.DefaultRedirect, "Command route to continue with after signing in, e.g. /rollcall/show")
	loginCmd.Flags().Bool("no-browser", false, "Print the sign-in address instead of opening it")
	callbackCmd.Flags().String("code", "", "Authorization code")
	callbackCmd.Flags().String("state", "", "State returned with the code")
}
