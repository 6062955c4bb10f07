// -- cmd/profiles.go --
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/streamsift/internal/observability"
	"github.com/xkilldash9x/streamsift/internal/profile"
)

// newProfilesCmd creates the `profiles` command, which lists the browser
// profiles installed on this machine. Chromium family profiles can back a
// capture session directly; firefox profiles are listed so their cookies
// can be exported and passed with --cookies.
func newProfilesCmd() *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Lists browser profiles found on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			profiles, err := profile.Discover(logger)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				json := jsoniter.ConfigCompatibleWithStandardLibrary
				data, err := json.MarshalIndent(profiles, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode profiles: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if len(profiles) == 0 {
				fmt.Println("No browser profiles found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BROWSER\tFAMILY\tPROFILE\tNAME\tUSER DATA DIR")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Browser, p.Family, p.Dir, p.Name, p.UserDataDir)
			}
			return w.Flush()
		},
	}

	profilesCmd.Flags().Bool("json", false, "Emit the profile list as JSON")

	return profilesCmd
}
