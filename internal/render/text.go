package render

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText prints the table as aligned columns followed by the summary line
func WriteText(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	withStake := t.Bankroll.IsPositive()
	header := "#\tMATCH\tOUTCOME\tODDS\tIMPLIED\tNORMALIZED\tKELLY\tFRACTIONAL KELLY"
	if withStake {
		header += "\tSTAKE"
	}
	fmt.Fprintln(tw, header)

	for _, r := range t.Rows {
		line := fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s",
			r.Index, r.Match, r.Outcome, r.Odds, r.Implied, r.Normalized, r.Kelly, r.Fractional)
		if withStake {
			line += "\t" + r.Stake
		}
		fmt.Fprintln(tw, line)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if t.Summary != "" {
		if _, err := fmt.Fprintln(w, t.Summary); err != nil {
			return err
		}
	}
	return nil
}
