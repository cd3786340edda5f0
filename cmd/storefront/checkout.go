package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nashcompany/storefront/internal/checkout"
	"github.com/nashcompany/storefront/internal/config"
	"github.com/nashcompany/storefront/internal/domain"
)

func checkoutCmd(a *app) *cobra.Command {
	var (
		customer domain.Customer
		address  domain.Address
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Finish the order and print the payment or chat link",
		Long: `Sends the cart to the order relay (CHECKOUT_MODE=relay) or builds a
pre-filled WhatsApp message to the shop (CHECKOUT_MODE=whatsapp).
The cart is kept until it is cleared explicitly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			buyer := checkout.Buyer{}
			if customer.Name != "" || customer.Phone != "" {
				buyer.Customer = &customer
			}
			if address != (domain.Address{}) {
				buyer.Address = &address
			}

			initiator := checkout.NewInitiator(a.store, a.strategy(), a.log)
			link, err := initiator.Checkout(cmd.Context(), buyer)
			if err != nil {
				return errors.New(checkout.UserMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&customer.Name, "name", "", "Buyer name")
	f.StringVar(&customer.Phone, "phone", "", "Buyer phone")
	f.StringVar(&address.Street, "street", "", "Street")
	f.StringVar(&address.Number, "number", "", "Number")
	f.StringVar(&address.Neighborhood, "neighborhood", "", "Neighborhood")
	f.StringVar(&address.City, "city", "", "City")
	f.StringVar(&address.State, "state", "", "State")
	f.StringVar(&address.ZipCode, "zip", "", "Zip code (CEP)")
	return cmd
}

func (a *app) strategy() checkout.Strategy {
	if a.cfg.CheckoutMode == config.CheckoutModeWhatsApp {
		return checkout.MessagingLinkStrategy{ShopPhone: a.cfg.ShopPhone}
	}
	return checkout.NewRelayStrategy(checkout.RelayConfig{
		BaseURL: a.cfg.RelayURL,
		Sandbox: a.cfg.UseSandbox,
		Timeout: a.cfg.ClientTimeout,
	})
}
