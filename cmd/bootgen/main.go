package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"omibyte.io/bootcore/targets"
)

var (
	targetsFile string
	printer     *message.Printer

	rootCmd = &cobra.Command{
		Use:   "bootgen",
		Short: "Cortex-M stage 1 boot generator",
		Long: `bootgen emits the vector table, reset entry and linker script of a
Cortex-M device, verifies linked images and runs the reset sequence on a
simulated core.`,
		SilenceUsage: true,
	}
)

func init() {
	log.SetFlags(0)
	printer = message.NewPrinter(message.MatchLanguage(locales()...))

	rootCmd.PersistentFlags().StringVar(&targetsFile, "targets", "", "additional target database (yaml)")
	rootCmd.AddCommand(devicesCmd, genCmd, checkCmd, simCmd)
}

// locales returns the languages of the environment, most specific first.
func locales() []string {
	var tags []string
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(env)
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		if len(v) > 0 && v != "C" && v != "POSIX" {
			tags = append(tags, strings.ReplaceAll(v, "_", "-"))
		}
	}
	return append(tags, "en-US")
}

// database returns the embedded targets, merged with --targets if given.
func database() (*targets.Database, error) {
	db := targets.All()
	if len(targetsFile) == 0 {
		return db, nil
	}

	f, err := os.Open(targetsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	extra, err := targets.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", targetsFile, err)
	}
	return db.Merge(extra), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
