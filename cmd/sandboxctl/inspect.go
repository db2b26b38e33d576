package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/memsandbox/internal/hexdump"
)

var (
	inspectWidth     int
	inspectCharmap   string
	inspectNoSqueeze bool
)

// charmaps selectable for the glyph column.
var charmaps = map[string]*charmap.Charmap{
	"cp437":   charmap.CodePage437,
	"latin1":  charmap.ISO8859_1,
	"cp1252":  charmap.Windows1252,
	"koi8r":   charmap.KOI8R,
	"cp850":   charmap.CodePage850,
	"mac":     charmap.Macintosh,
	"latin15": charmap.ISO8859_15,
}

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <scenario.yaml>",
		Short: "Hex-dump the arena after running a scenario",
		Long: `The inspect command runs a scenario and dumps the arena from offset 1 up
to the last allocated byte. Offsets in the dump are arena addresses.

Example:
  sandboxctl inspect testdata/reference.yaml
  sandboxctl inspect testdata/reference.yaml --charmap latin1 --width 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	cmd.Flags().IntVar(&inspectWidth, "width", 16, "Bytes per row")
	cmd.Flags().StringVar(&inspectCharmap, "charmap", "cp437", "Code page for the glyph column")
	cmd.Flags().BoolVar(&inspectNoSqueeze, "no-squeeze", false, "Print repeated rows instead of '*'")
	return cmd
}

type inspectResult struct {
	Name string `json:"name"`
	Base int    `json:"base"`
	Len  int    `json:"len"`
	Hex  string `json:"hex"`
}

func runInspect(args []string) error {
	cm, ok := charmaps[inspectCharmap]
	if !ok {
		return fmt.Errorf("unknown charmap %q", inspectCharmap)
	}

	s, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	rep, err := s.Run(allocOptions()...)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(inspectResult{
			Name: rep.Name,
			Base: 1,
			Len:  len(rep.Inner),
			Hex:  hex.EncodeToString(rep.Inner),
		})
	}

	printInfo("Scenario: %s (%d bytes in use window)\n", rep.Name, len(rep.Inner))
	for _, r := range rep.TouchedLines {
		printVerbose("  rows %08x..%08x handed out\n", r.Off, r.End()-1)
	}
	if quiet {
		return nil
	}
	return hexdump.DumpWith(os.Stdout, rep.Inner, hexdump.Options{
		Width:   inspectWidth,
		Base:    1,
		Charmap: cm,
		Squeeze: !inspectNoSqueeze,
	})
}
