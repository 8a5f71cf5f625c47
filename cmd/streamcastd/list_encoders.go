package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanternops/streamcast/internal/config"
	"github.com/lanternops/streamcast/internal/encode"
)

var listEncodersCmd = &cobra.Command{
	Use:   "list-encoders",
	Short: "Show which codec backend would be selected for the active config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			cfg = config.Default()
		}

		enc, err := encode.New(cfg.Video)
		if err != nil {
			return fmt.Errorf("no usable encoder backend: %w", err)
		}
		defer enc.Close()

		fmt.Printf("selected backend: %s\n", enc.BackendName())
		if enc.BackendIsPlaceholder() {
			fmt.Println("note: this is a non-conforming passthrough placeholder, not a real codec")
		}
		return nil
	},
}
