package cmd

import (
	"fmt"
	"os"

	"github.com/Rabahbelksier/Offers365/internal/models"
)

// printResponseTable prints one resolved product in a human-friendly
// card layout.
func printResponseTable(resp *models.ProductResponse) {
	fmt.Fprintf(os.Stdout, " %s\n", truncate(resp.Title, 80))
	fmt.Fprintf(os.Stdout, "    Product ID: %s\n", resp.ProductID)

	priceLine := "    Price: " + resp.Price
	if resp.OriginalPrice != resp.Price && resp.Discount != "0%" {
		priceLine += fmt.Sprintf("  (was %s, -%s)", resp.OriginalPrice, resp.Discount)
	}
	priceLine += "  |  Store: " + resp.StoreName
	fmt.Fprintln(os.Stdout, priceLine)

	if resp.Rating != "" {
		fmt.Fprintf(os.Stdout, "    Rating: %s", resp.Rating)
		if resp.Orders != "" {
			fmt.Fprintf(os.Stdout, "  |  %s", resp.Orders)
		}
		fmt.Fprintln(os.Stdout)
	}
	if resp.ImageURL != "" {
		fmt.Fprintf(os.Stdout, "    Image: %s\n", resp.ImageURL)
	}

	fmt.Fprintln(os.Stdout, "    Offers:")
	for i, offer := range resp.Offers {
		mark := "x"
		if offer.Success {
			mark = "ok"
		}
		fmt.Fprintf(os.Stdout, "     %d. [%-2s] %-16s %s\n", i+1, mark, offer.Name, truncate(offer.Link, 90))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
