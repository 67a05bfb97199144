package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"pdf-annotator/internal/document"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <document>",
		Short: "Print document metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, args[0], nil)
			if err != nil {
				return err
			}
			defer s.close()

			meta := document.MetadataOrNA(ctx, s.document())
			kind := "PDF"
			if s.viewer.IsComic() {
				kind = "comic archive"
			}
			w := cmd.OutOrStdout()
			printField(w, "File", args[0])
			printField(w, "Type", kind)
			printField(w, "Title", meta.Title)
			printField(w, "Author", meta.Author)
			printField(w, "Pages", strconv.Itoa(meta.Pages))
			return nil
		},
	}
}
