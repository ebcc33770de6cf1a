package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/message"
)

func newListCmd() *cobra.Command {
	var (
		limit   int
		offset  int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history entries, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := roundTrip(&message.Message{
				Type:   message.TypeList,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}
			return printEntries(resp.Entries, jsonOut)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip from the front")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search history by substring, case-insensitive",
		Long: `Searches each entry's text: the decoded content for text, HTML and RTF
entries, the joined path list for file entries. Image entries match only
the empty query.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := roundTrip(&message.Message{
				Type:  message.TypeSearch,
				Query: args[0],
				Limit: limit,
			})
			if err != nil {
				return err
			}
			return printEntries(resp.Entries, jsonOut)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 = all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}
