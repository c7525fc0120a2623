// Package report renders leaderboard snapshots for terminal and machine use.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/okian/rankboard/internal/domain/types"
)

// Lookup is the outcome of one rank query.
type Lookup struct {
	Name  string       `json:"name"`
	Found bool         `json:"found"`
	Entry *types.Entry `json:"entry,omitempty"`
}

// Summary is everything the driver prints after a run.
type Summary struct {
	Game    string        `json:"game"`
	Size    int           `json:"size"`
	Levels  int           `json:"levels"`
	Top     []types.Entry `json:"top"`
	Lookups []Lookup      `json:"lookups,omitempty"`
	Skipped int           `json:"skipped,omitempty"`
}

// FormatScore prints integral scores without a fraction.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// WriteStructure prints every level of the index, top level first:
//
//	Leaderboard structure for game: MyGame
//	Level 1: b(20)
//	Level 0: b(20) -> c(20) -> a(10)
func WriteStructure(w io.Writer, game string, levels [][]types.Entry) error {
	if _, err := fmt.Fprintf(w, "Leaderboard structure for game: %s\n", game); err != nil {
		return err
	}

	parts := make([]string, 0, 16)
	for i, row := range levels {
		parts = parts[:0]
		for _, e := range row {
			parts = append(parts, e.Name+"("+FormatScore(e.Score)+")")
		}
		if _, err := fmt.Fprintf(w, "Level %d: %s\n", len(levels)-1-i, strings.Join(parts, " -> ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteText prints a summary as aligned columns.
func WriteText(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Game:\t%s\n", s.Game)
	fmt.Fprintf(tw, "Total players:\t%d\n", s.Size)
	if s.Skipped > 0 {
		fmt.Fprintf(tw, "Skipped rows:\t%d\n", s.Skipped)
	}

	fmt.Fprintf(tw, "\nTop %d:\n", len(s.Top))
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE")
	for _, e := range s.Top {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Rank, e.Name, FormatScore(e.Score))
	}

	if len(s.Lookups) > 0 {
		fmt.Fprintln(tw)
		for _, l := range s.Lookups {
			if !l.Found {
				fmt.Fprintf(tw, "%s not found\n", l.Name)
				continue
			}
			fmt.Fprintf(tw, "%s found with score %s at rank %d\n", l.Name, FormatScore(l.Entry.Score), l.Entry.Rank)
		}
	}

	return tw.Flush()
}

// WriteJSON prints a summary as one indented JSON document.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}
