package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"honeyScope/internal/amm"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	amountIn, err := bigIntFlag(cmd, "amount-in")
	if err != nil {
		return err
	}
	reserveIn, err := bigIntFlag(cmd, "reserve-in")
	if err != nil {
		return err
	}
	reserveOut, err := bigIntFlag(cmd, "reserve-out")
	if err != nil {
		return err
	}

	amountOut, err := amm.QuoteOutput(amountIn, reserveIn, reserveOut)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, amountOut.String())
	return nil
}

func bigIntFlag(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, fmt.Errorf("%s is required", name)
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return value, nil
}
