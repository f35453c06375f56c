// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"log"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

func newCmdStats() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "stats",
		Short:    "Show the partitions of a BED file with their interval and base counts",
		ArgsName: "path",
	}
	oneBased := cmd.Flags.Bool("one-based", false, "Interpret the input as 1-based closed intervals")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("stats takes one pathname argument, but got %v", argv)
		}
		return stats(vcontext.Background(), env.Stdout, argv[0], readOpts(*oneBased))
	})
	return cmd
}

func newCmdSubset() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "subset",
		Short:    "Extract the intervals of a BED file that fall in a region",
		ArgsName: "srcpath [destpath]",
	}
	region := cmd.Flags.String("region", "", `Region to extract.  One of
  +  or  -                          all intervals on a strand
  chr                               all intervals on a chromosome
  chr:strand                        all intervals on a chromosome strand
  chr:pos                           intervals covering a 1-based position
  chr:first-last                    intervals intersecting a 1-based closed range
  chr:strand:first-last             both of the above
If destpath is omitted, the result is written to stdout.`)
	oneBased := cmd.Flags.Bool("one-based", false, "Interpret the input as 1-based closed intervals")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 && len(argv) != 2 {
			return fmt.Errorf("subset takes srcpath [destpath], but got %v", argv)
		}
		dest := ""
		if len(argv) == 2 {
			dest = argv[1]
		}
		return subset(vcontext.Background(), env.Stdout, argv[0], dest, *region, readOpts(*oneBased))
	})
	return cmd
}

func newCmdUnstrand() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "unstrand",
		Short:    "Drop the strand of every interval of a BED file",
		ArgsName: "srcpath destpath",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("unstrand takes srcpath destpath, but got %v", argv)
		}
		return unstrand(vcontext.Background(), argv[0], argv[1])
	})
	return cmd
}

func newCmdChecksum() *cmdline.Command {
	cmd := &cmdline.Command{
		Name: "checksum",
		Short: `Compute a checksum of a BED file.
The checksum covers partition keys, column names and values, and does not
depend on line order across chromosomes or on the coordinate width.`,
		ArgsName: "path...",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("checksum takes at least one path")
		}
		return checksum(vcontext.Background(), env.Stdout, argv)
	})
	return cmd
}

// Run is the entry point of bio-ranges.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-ranges",
			Short:    "Tools for working with genomic interval files",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdStats(),
				newCmdSubset(),
				newCmdUnstrand(),
				newCmdChecksum(),
			},
		})
}
