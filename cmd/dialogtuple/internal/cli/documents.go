package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newtuple/dialogtuple/internal/commands"
	"github.com/newtuple/dialogtuple/internal/documents"
)

func (a *app) documentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Upload and list stored DOCX documents",
	}
	cmd.AddCommand(a.documentsUploadCommand(), a.documentsListCommand())
	return cmd
}

func (a *app) documentsUploadCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "upload <file.docx>",
		Short: "Store a DOCX file in the object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			result := &documents.UploadResult{}
			msg := commands.UploadDocumentCommand{
				FileName:   name,
				FileBase64: base64.StdEncoding.EncodeToString(data),
				Result:     result,
			}
			if err := container.Handlers().Upload.Execute(cmd.Context(), msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", result.Message, result.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Object name, defaults to the file's base name")
	return cmd
}

func (a *app) documentsListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Convert and list stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := a.container(cmd.Context())
			if err != nil {
				return err
			}
			defer container.Close()

			contents, err := container.DocumentService().Contents(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), contents)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMODIFIED\tWARNINGS")
			for _, file := range contents.Files {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", file.Name, file.LastModified.Format("2006-01-02 15:04"), len(file.Warnings))
			}
			fmt.Fprintf(tw, "\n%d of %d documents converted\n", contents.TotalProcessed, contents.TotalFound)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print converted documents as JSON")
	return cmd
}
