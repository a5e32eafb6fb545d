package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/skosovsky/mcptoolkit"
	"github.com/skosovsky/mcptoolkit/tools"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run every typed facade against the sample tools",
		Args:  cobra.NoArgs,
		RunE:  runDemo,
	}
}

func runDemo(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if err := demoFacades(ctx, out, a.dispatcher); err != nil {
		return exitError(1, "%s: %v", mcptoolkit.KindOf(err), err)
	}
	if err := demoLoop(ctx, out, a); err != nil {
		return exitError(1, "%v", err)
	}
	if a.tracker != nil {
		fmt.Fprint(out, a.tracker.Summary())
	}
	return a.reportMetrics(ctx, out)
}

func demoFacades(ctx context.Context, w io.Writer, c tools.Caller) error {
	weather, err := tools.GetWeather(ctx, c, "Tokyo")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "weather  Tokyo: %v°C %s\n", deref(weather.Temperature), deref(weather.Condition))

	price, err := tools.GetCryptocurrencyPrice(ctx, c, "bitcoin")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "crypto   bitcoin: %v %s\n", deref(price.Price), price.Currency)

	added, err := tools.AddNoteToFile(ctx, c, "Check the bitcoin price again tomorrow")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "notes    add: %v %s\n", added.Success, added.Message)

	read, err := tools.ReadNotes(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "notes    read: %q\n", read.Content)

	search, err := tools.PerformWebSearch(ctx, c, "model context protocol")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "search   results:\n%s\n", search.Results)
	return nil
}

// demoLoop shows the synchronous entry point from inside a running loop: inline is refused,
// worker succeeds.
func demoLoop(ctx context.Context, w io.Writer, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.loop.Run(ctx) }()

	err := a.loop.Do(ctx, func(jobCtx context.Context) error {
		fmt.Fprintf(w, "loop     cooperative host detected: %v\n", a.reg.Status().CooperativeHostDetected)
		_, err := tools.GetWeatherSync(jobCtx, a.dispatcher, mcptoolkit.ExecInline, "London")
		if !errors.Is(err, mcptoolkit.ErrNestedScheduler) {
			return fmt.Errorf("inline call inside the loop: got %v, want a nested scheduler conflict", err)
		}
		fmt.Fprintf(w, "loop     inline: %s\n", mcptoolkit.KindOf(err))
		res, err := tools.GetWeatherSync(jobCtx, a.dispatcher, mcptoolkit.ExecWorker, "London")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "loop     worker: %v°C %s\n", deref(res.Temperature), deref(res.Condition))
		return nil
	})
	a.loop.Close()
	<-done
	return err
}

func deref[T any](p *T) any {
	if p == nil {
		return "n/a"
	}
	return *p
}
