package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nashcompany/storefront/internal/promo"
)

func countdownCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Show the launch promotion countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := promo.StartCountdown(cmd.Context(), a.local, time.Now)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !watch {
				text, _ := c.Text()
				fmt.Fprintln(out, text)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			tasks := promo.NewTasks(ctx)
			ended := c.Run(tasks, time.Second, func(text string) {
				fmt.Fprintf(out, "\r%s", text)
			})
			select {
			case <-ended:
			case <-ctx.Done():
			}
			tasks.Stop()
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep updating until the promotion ends or the command is interrupted")
	return cmd
}

func popupCmd(a *app) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "popup",
		Short: "Show the VIP list popup once per session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shown := make(chan struct{})
			tasks := promo.NewTasks(ctx)
			defer tasks.Stop()

			popup := promo.NewPopup(a.session)
			scheduled := popup.ShowAfter(ctx, tasks, delay, nil, func() {
				fmt.Fprintln(cmd.OutOrStdout(), "Entre para a lista VIP da NASH COMPANY e receba os lançamentos em primeira mão!")
				close(shown)
			})
			if !scheduled {
				return nil
			}

			select {
			case <-shown:
			case <-ctx.Done():
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", promo.PopupDelay, "Delay before showing the popup")
	return cmd
}
