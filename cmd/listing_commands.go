package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shorts/internal/models"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and their file counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			organizer, _, err := ctx.organizer()
			if err != nil {
				return err
			}
			categories, err := organizer.ListCategories()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, "No categories")
				return nil
			}
			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				rows = append(rows, []string{c.Name, strconv.Itoa(c.FileCount), c.Path})
			}
			fmt.Fprintln(out, renderTable(categoryColumns, rows))
			return nil
		},
	}
}

func newDownloadsCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "downloads",
		Short: "List media files waiting in the downloads folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			organizer, _, err := ctx.organizer()
			if err != nil {
				return err
			}

			var files []models.MediaFile
			if category != "" {
				files, err = organizer.ListCategoryFiles(category)
			} else {
				files, err = organizer.ListDownloads()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No media files")
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{
					f.Name,
					string(f.Type),
					humanize.IBytes(uint64(f.Size)),
					humanize.Time(f.Modified),
				})
			}
			fmt.Fprintln(out, renderTable(mediaColumns, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "List a category instead of downloads")
	return cmd
}
