package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/lessbuild/internal/version"
)

// NewRootCmd builds the lessbuild command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lessbuild [source] [destination]",
		Short: "Incremental LESS compiler",
		Long: `Compile LESS stylesheets, skipping those whose output is up to date.

With only a source the result is printed to stdout. With a destination the
source is compiled when it or one of its imports changed since the last run.`,
		RunE:         runBuild,
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(2),
		Version:      version.String(),
	}

	// Shared with the cache command
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.String("log-format", "", "Log format: auto, console or json")
	flags.String("cache-dir", "", "Dependency cache directory")
	flags.String("cache-backend", "", "Dependency cache backend: file or bolt")

	build := rootCmd.Flags()
	build.String("lessc", "", "Path to the lessc executable")
	build.BoolP("silent", "s", false, "Suppress output of error messages")
	build.BoolP("depends", "M", false, "Print the import dependency list instead of compiling")
	build.Bool("daemon", false, "Keep recompiling changed sources until q is pressed")
	build.Duration("interval", 0, "Daemon polling interval")
	build.StringP("manifest", "f", "", "Compile the units listed in a manifest file")
	build.StringP("encoding", "e", "", "Character encoding of sources and destinations")
	build.StringSlice("include-path", nil, "Additional import search paths")
	build.String("custom-js", "", "lessc plugin script")
	build.IntP("parallelism", "j", 0, "Number of units compiled at once")

	build.BoolP("compress", "x", false, "Compress output by removing some whitespace")
	build.Bool("minify", false, "Minify output with clean-css")
	build.IntP("optimization-level", "O", 1, "Parser optimization level")
	build.Bool("strict-imports", false, "Force evaluation of imports")
	build.Bool("strict-math", false, "Only evaluate math in parentheses")
	build.Bool("strict-units", false, "Fail on incompatible units")
	build.String("rootpath", "", "Rootpath for URL rewriting in relative imports and URLs")
	build.Bool("relative-urls", true, "Rewrite relative URLs to the base less file")
	build.String("line-numbers", "", "Emit source line information: comments, mediaquery or all")
	build.StringArray("global-var", nil, "Define a variable NAME=VALUE before compiling")
	build.StringArray("modify-var", nil, "Override a variable NAME=VALUE after compiling")

	rootCmd.AddCommand(newCacheCmd())

	return rootCmd
}

func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
