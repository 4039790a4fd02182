package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rabahbelksier/Offers365/internal/aliexpress"
)

var shapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "List the fixed offer shapes",
	Run:   runShapes,
}

func init() {
	rootCmd.AddCommand(shapesCmd)
}

func runShapes(cmd *cobra.Command, args []string) {
	fmt.Printf("Offer shapes (%d, response order):\n\n", len(aliexpress.OfferShapes))
	for i, shape := range aliexpress.OfferShapes {
		fmt.Printf(" %d. %-16s %s\n", i+1, shape.Name, shape.TargetURL("<productId>"))
	}
}
