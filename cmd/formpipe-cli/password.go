package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formpipe/pkg/secret"
)

func passwordCmd() *cobra.Command {
	var (
		length int
		count  int
	)
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Print generated alphanumeric passwords",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := secret.Generator{}
			for i := 0; i < count; i++ {
				value, err := gen.Generate(length)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", secret.DefaultLength, "password length")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many passwords to print")
	return cmd
}
