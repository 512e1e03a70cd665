package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mit-pdos/go-journal/util"

	"github.com/mit-pdos/xv6-fsck/mkfs"
)

func main() {
	cfg := mkfs.DefaultConfig()
	flag.Uint64Var(&cfg.Size, "size", cfg.Size, "size of file system (in blocks)")
	flag.Uint64Var(&cfg.Ninodes, "ninodes", cfg.Ninodes, "number of inodes")
	flag.Uint64Var(&cfg.Nlog, "nlog", cfg.Nlog, "number of log blocks")
	flag.Uint64Var(&util.Debug, "debug", 0, "debug level (higher is more verbose)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: mkfs [flags] fs.img files...\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	b, err := mkfs.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	for _, path := range flag.Args()[1:] {
		// xv6 user programs are built as _name
		name := strings.TrimPrefix(filepath.Base(path), "_")
		util.DPrintf(1, "mkfs: add %s as %s\n", path, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := b.Create(b.Root(), name, data); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
	}
	if err := b.WriteFile(flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}
