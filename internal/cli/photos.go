package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var mediaOutFlag string

var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "List the photo collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(); err != nil {
			return err
		}
		// The restore event already fetched the collection once; surface its
		// outcome instead of fetching again.
		if err := a.collection.Err(); err != nil {
			return fmt.Errorf("failed to fetch photos: %w", err)
		}

		photos := a.collection.Photos()
		if formatFlag == "json" {
			return printJSON(photos)
		}
		if len(photos) == 0 {
			fmt.Println("No photos yet.")
			return nil
		}
		for _, p := range photos {
			fmt.Printf("%6d  %-40s  %s\n", p.ID, p.Filename, p.UploadDate)
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(); err != nil {
			return err
		}
		if err := a.uploader.Upload(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		stats := a.collection.Stats()
		fmt.Printf("Uploaded %s. Collection now holds %d photos.\n",
			filepath.Base(args[0]), stats.PhotoCount)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard aggregates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(); err != nil {
			return err
		}
		if err := a.collection.Err(); err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}

		stats := a.collection.Stats()
		if formatFlag == "json" {
			return printJSON(stats)
		}
		fmt.Printf("Photos:  %d\nPeople:  %d\nHistory: %d\n",
			stats.PhotoCount, stats.PersonCount, stats.HistoryCount)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the activity history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(); err != nil {
			return err
		}
		list, err := a.client.History(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch history: %w", err)
		}

		if formatFlag == "json" {
			return printJSON(list)
		}
		if list.Count == 0 {
			fmt.Println("No history yet.")
			return nil
		}
		for _, item := range list.History {
			fmt.Printf("%6d  %-20s  %-10s  %s\n", item.ID, item.Action, item.Status, item.Timestamp)
		}
		return nil
	},
}

var mediaCmd = &cobra.Command{
	Use:   "media <filename>",
	Short: "Download a stored photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.requireSession(); err != nil {
			return err
		}
		data, contentType, err := a.client.Media(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to download media: %w", err)
		}

		out := mediaOutFlag
		if out == "" {
			out = filepath.Base(args[0])
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("Wrote %s (%d bytes, %s)\n", out, len(data), contentType)
		return nil
	},
}

func init() {
	mediaCmd.Flags().StringVarP(&mediaOutFlag, "out", "o", "", "Output file (default: the media filename)")
	RootCmd.AddCommand(photosCmd, uploadCmd, statsCmd, historyCmd, mediaCmd)
}
