package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateFlags struct {
	schemaDir string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every object schema without contacting remote services",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.schemaDir, "schema-dir", ".", "Directory holding object schema files")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	inventory, err := loadInventory(cmd.Context(), validateFlags.schemaDir)
	if err != nil {
		return err
	}

	for _, desc := range inventory.Descriptors {
		fmt.Printf("ok\t%s\t(%s)\n", desc.Name, desc.SourceFile)
	}
	for _, parseErr := range inventory.Errors {
		fmt.Printf("error\t%s\t%v\n", parseErr.File, parseErr.Err)
	}

	fmt.Printf("\n%d valid, %d invalid\n", len(inventory.Descriptors), len(inventory.Errors))
	if len(inventory.Errors) > 0 {
		return &exitError{code: exitPartial}
	}
	return nil
}
