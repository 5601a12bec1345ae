package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hexcast/internal/hexagram"
)

// deriveCmd prints the coordinate for three numbers
var deriveCmd = &cobra.Command{
	Use:   "derive [first] [second] [third]",
	Short: "Derive the hexagram coordinate for three numbers",
	Long: `Reduces three integers to their hexagram coordinate without touching
the database or the model. Negative numbers wrap into range.

Example:
  hexcast derive 17 10 13`,
	Args: cobra.ExactArgs(3),
	RunE: runDerive,
}

func runDerive(cmd *cobra.Command, args []string) error {
	nums := make([]int, 3)
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("argument %d is not an integer: %q", i+1, arg)
		}
		nums[i] = n
	}

	coord := hexagram.Derive(nums[0], nums[1], nums[2])
	fmt.Printf("%s %s\n", labelStyle.Render("Parent:"), coord.Parent())
	fmt.Printf("%s  %s\n", labelStyle.Render("Child:"), coord.Child())
	return nil
}
