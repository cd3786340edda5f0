package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nashcompany/storefront/internal/domain"
)

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.view.Print()
		},
	}

	cmd.AddCommand(cartAddCmd(a))
	cmd.AddCommand(cartRemoveCmd(a))
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.view.Print()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Clear(cmd.Context())
			return a.view.Print()
		},
	})
	return cmd
}

func cartAddCmd(a *app) *cobra.Command {
	var p domain.Product
	var sel domain.Selection

	cmd := &cobra.Command{
		Use:   "add [product-id]",
		Short: "Add one unit of a product in the chosen color and size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.ID = args[0]
			if p.Name == "" {
				p.Name = p.ID
			}
			if p.Price <= 0 {
				return fmt.Errorf("--price must be positive")
			}
			line := a.store.Add(cmd.Context(), p, sel)
			fmt.Fprintf(cmd.OutOrStdout(), "Adicionado: %s (%s / %s) x%d\n\n", line.Name, line.Color, line.Size, line.Quantity)
			return a.view.Print()
		},
	}

	cmd.Flags().StringVarP(&p.Name, "name", "n", "", "Product name")
	cmd.Flags().Float64VarP(&p.Price, "price", "p", 0, "Unit price")
	cmd.Flags().StringVar(&p.Img, "img", "", "Image path")
	cmd.Flags().StringVarP(&sel.Color, "color", "c", "", "Color (default Padrão)")
	cmd.Flags().StringVarP(&sel.Size, "size", "s", "", "Size (default Único)")
	return cmd
}

func cartRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [cart-item-id]",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.store.Remove(cmd.Context(), args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "Item %q não está no carrinho.\n\n", args[0])
			}
			return a.view.Print()
		},
	}
}
