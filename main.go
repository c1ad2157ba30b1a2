package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sadopc/focusring/internal/cli"
)

func main() {
	if err := cli.New().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
