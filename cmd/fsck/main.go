package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/xv6-fsck/fsck"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: fsck [flags] fs.img\n")
	flag.PrintDefaults()
}

func main() {
	var verbose bool
	flag.BoolVar(&verbose, "v", false, "print a summary of a clean image")

	var dumpStats bool
	flag.BoolVar(&dumpStats, "stats", false, "dump phase timings to stderr at end")

	flag.Uint64Var(&util.Debug, "debug", 0, "debug level (higher is more verbose)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	report, err := fsck.CheckFile(path)
	if dumpStats && report != nil {
		report.WriteStats(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		if fsck.KindOf(err) == 0 {
			os.Exit(2)
		}
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("%s: clean, %v\n", path, report)
		report.WriteTable(os.Stdout)
	}
}
