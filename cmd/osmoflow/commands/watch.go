package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/osmoflow/osmoflow/pkg/config"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-solve the case whenever its file changes",
		Long: `Watch the case file and re-run the build-and-solve sequence on
every write. Failures are logged and watching continues; interrupt to
stop.`,
		Example: `  osmoflow watch --case seawater.cue`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if casePath == "" {
				return fmt.Errorf("watch requires --case")
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			// Watch the directory: editors often replace the file, which
			// drops a watch on the file itself.
			if err := watcher.Add(filepath.Dir(casePath)); err != nil {
				return err
			}

			solveOnce := func() {
				c, err := config.NewParser().Load(casePath)
				if err != nil {
					log.Error().Err(err).Msg("Case file invalid")
					return
				}
				// runSolve logs the build and solve outcome itself.
				if _, err := runSolve(cmd.Context(), c, ""); err != nil {
					log.Error().Err(err).Msg("Re-solve failed, watching continues")
				}
			}

			log.Info().Str("case", casePath).Msg("Watching case file")
			solveOnce()

			target := filepath.Clean(casePath)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != target {
						continue
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					log.Debug().Str("event", event.Op.String()).Msg("Case file changed")
					solveOnce()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Error().Err(err).Msg("Watcher error")
				}
			}
		},
	}

	return cmd
}
