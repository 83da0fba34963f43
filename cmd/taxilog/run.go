package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/taxilog/taxilog/internal/backend"
	"github.com/taxilog/taxilog/internal/connectivity"
	syncq "github.com/taxilog/taxilog/internal/sync"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background sync daemon",
		Long: `Watches backend reachability and drains the queue on a fixed interval
and whenever connectivity comes back. With MQTT_BROKER set, the terminal's
online state is also published for the dispatch desk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			var notifier connectivity.Notifier
			if cfg.MQTTBroker != "" {
				deviceID, err := st.DeviceID(ctx)
				if err != nil {
					return err
				}
				mq, err := connectivity.NewMQTTNotifier(cfg.MQTTBroker, deviceID)
				if err != nil {
					log.WithError(err).Warn("Presence broker unavailable, continuing without it")
				} else {
					defer mq.Close()
					notifier = mq
				}
			}

			prober := backend.New(cfg.BackendURL, cfg.HTTPTimeout)
			monitor := connectivity.NewMonitor(prober, cfg.ProbeInterval, notifier)
			monitor.Start(ctx)
			defer monitor.Stop()

			runner := syncq.NewRunner(a.Queue(), cfg.DrainInterval, monitor.Events())
			runner.Start(ctx)
			defer runner.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			log.Info("Shutting down")
			return nil
		},
	}
}
