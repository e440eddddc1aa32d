package main

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/uk-petitions/pkg/logging"
	"github.com/Sternrassler/uk-petitions/pkg/monitor"
	"github.com/Sternrassler/uk-petitions/pkg/notify"
	"github.com/Sternrassler/uk-petitions/pkg/queries"
	"github.com/spf13/cobra"
)

func newMonitorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Report petition changes until interrupted",
		Long: `Poll the petition list and report new petitions, signature milestones,
government responses and debates. The first pass catches up quietly; changes
are printed from then on. With Redis configured every event is also published
on the events channel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd, map[string]string{
				"detail":           "monitor.load_detail",
				"interval":         "monitor.interval",
				"initial-interval": "monitor.initial_interval",
				"channel":          "redis.channel",
			}); err != nil {
				return err
			}
			defer a.close()
			return a.monitor(cmd)
		},
	}

	cmd.Flags().Bool("detail", false, "load each changed petition's detail record")
	cmd.Flags().Duration("interval", 0, "delay before each request once caught up")
	cmd.Flags().Duration("initial-interval", 0, "delay before each request while catching up")
	cmd.Flags().String("channel", "", "Redis channel events are published on")
	return cmd
}

func (a *app) monitor(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.serveMetrics(ctx)

	m, err := monitor.New(a.loader, a.loader, a.cfg.MonitorConfig(), logging.NewLogger("monitor"))
	if err != nil {
		return err
	}

	milestones := slices.DeleteFunc(slices.Clone(a.cfg.Monitor.Milestones), func(n int) bool {
		return n == queries.ResponseThreshold || n == queries.DebateThreshold
	})
	m.WithStandardEvents()
	if len(milestones) > 0 {
		m.WithSignatureMilestones(milestones...)
	}

	notify.Attach(m, notify.NewLogSink(logging.NewLogger("events")))
	if a.redis != nil {
		publisher, err := notify.NewRedisPublisher(a.redis, a.cfg.Redis.Channel, logging.NewLogger("notify"))
		if err != nil {
			return err
		}
		notify.Attach(m, publisher)
		a.logger.Info().Str("channel", publisher.Channel()).Msg("Publishing events")
	}

	newConsole(cmd.OutOrStdout(), milestones).attach(m)

	if err := m.Start(ctx); err != nil {
		return err
	}
	defer m.Stop()

	<-ctx.Done()
	a.logger.Info().Msg("Shutting down")
	return nil
}

// console prints changes once the first traversal has completed.
type console struct {
	mu         sync.Mutex
	w          io.Writer
	milestones []int
	ready      atomic.Bool
}

func newConsole(w io.Writer, milestones []int) *console {
	return &console{w: w, milestones: milestones}
}

func (c *console) attach(m *monitor.Monitor) {
	m.On(monitor.EventInitialLoad, func(ev monitor.Event) {
		c.ready.Store(true)
		c.printf("Tracking %d petitions\n", ev.View.Count())
	})

	c.on(m, monitor.EventNewPetition, func(ev monitor.Event) string {
		return fmt.Sprintf("New petition '%s'", ev.Petition.Action)
	})
	c.on(m, monitor.EventUpdatedPetition, func(ev monitor.Event) string {
		return fmt.Sprintf("Updated petition '%s' has %d signatures", ev.Petition.Action, ev.Petition.SignatureCount)
	})
	c.on(m, monitor.EventRemovedPetition, func(ev monitor.Event) string {
		return fmt.Sprintf("Petition '%s' is now %s", ev.Petition.Action, ev.Petition.State)
	})
	for _, n := range c.milestones {
		n := n
		c.on(m, monitor.MilestoneEvent(n), func(ev monitor.Event) string {
			return fmt.Sprintf("Petition '%s' has reached %d signatures", ev.Petition.Action, n)
		})
	}
	c.on(m, monitor.EventResponseThreshold, func(ev monitor.Event) string {
		return fmt.Sprintf("Petition '%s' has reached the threshold for a response", ev.Petition.Action)
	})
	c.on(m, monitor.EventDebateThreshold, func(ev monitor.Event) string {
		return fmt.Sprintf("Petition '%s' has reached the threshold for a debate", ev.Petition.Action)
	})
	c.on(m, monitor.EventGovernmentResponse, func(ev monitor.Event) string {
		return fmt.Sprintf("Response to '%s' %s", ev.Petition.Action, ev.Petition.HTMLResponseURL)
	})
	c.on(m, monitor.EventDebateTranscript, func(ev monitor.Event) string {
		return fmt.Sprintf("Debate of '%s' %s", ev.Petition.Action, ev.Petition.Debate.TranscriptURL)
	})
	c.on(m, monitor.EventDebateScheduled, func(ev monitor.Event) string {
		return fmt.Sprintf("Debate of '%s' scheduled for %s", ev.Petition.Action, ev.Petition.ScheduledDebateDate.Format("2 January 2006"))
	})
	c.on(m, monitor.EventDebateRescheduled, func(ev monitor.Event) string {
		return fmt.Sprintf("Debate of '%s' moved from %s to %s", ev.Petition.Action,
			ev.Old.ScheduledDebateDate.Format("2 January 2006"),
			ev.Petition.ScheduledDebateDate.Format("2 January 2006"))
	})
}

func (c *console) on(m *monitor.Monitor, name string, format func(monitor.Event) string) {
	m.On(name, func(ev monitor.Event) {
		if !c.ready.Load() {
			return
		}
		c.printf("%s\n", format(ev))
	})
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}
