package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"financescrapper/sink"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TICKER",
		Short: "Print the latest stored record for a ticker",
		Long:  `Show reads the most recent record for TICKER from the sqlite sink database.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // nothing opened beyond the store

	store, err := sink.OpenSQLite(a.cfg.Sinks.SQLite.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ticker := strings.ToUpper(args[0])
	rec, ok, err := store.Latest(cmd.Context(), ticker)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no stored record for %s in %s", ticker, a.cfg.Sinks.SQLite.Path)
	}

	n, err := store.Count(cmd.Context(), ticker)
	if err != nil {
		return err
	}
	a.logger.Debug("stored records", "ticker", ticker, "count", n)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "    ")
	return enc.Encode(rec)
}
