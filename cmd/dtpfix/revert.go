package dtpfix

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var revertCmd = &cobra.Command{
	Use:   "revert <path>",
	Short: "Revert a session log or a directory of session logs",
	Long: `Replay the structural inverse of every mutation recorded in a session
log, most recent first. Given a directory, every session log in it is
reverted in filename (chronological) order. Re-reverting an already
reverted log is harmless.`,
	Args: cobra.ExactArgs(1),
	RunE: runRevert,
}

func init() {
	rootCmd.AddCommand(revertCmd)
}

func runRevert(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s should be a path to either a file or directory: %w", path, err)
	}

	_, log, client, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if info.IsDir() {
		if err := client.RevertLogsInDir(ctx, path); err != nil {
			return err
		}
	} else {
		if err := client.RevertLog(ctx, path); err != nil {
			return err
		}
	}
	log.Info("revert complete", "path", path)
	return nil
}
