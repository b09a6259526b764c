package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-contractgen/pkg/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err, tagged with its failure kind when it has one.
func reportError(w io.Writer, err error) {
	if kind, ok := validation.KindOf(err); ok {
		fmt.Fprintf(w, "Error [%s]: %v\n", kind, err)
		return
	}
	fmt.Fprintln(w, "Error:", err)
}
