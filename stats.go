package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"git.arvados.org/countog.git/genome"
)

// genomeStats loads an input file and prints what the count command
// would see: the detected format, symbol tallies and buffer digest.
type genomeStats struct{}

func (cmd *genomeStats) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	opts := genome.DefaultOptions()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Int64Var(&opts.MaxSize, "max-genome", genome.DefaultMaxSize, "maximum genome size in `bytes`")
	flags.IntVar(&opts.MinQuality, "min-quality", genome.DefaultMinQuality, "minimum FASTQ quality `score`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return exitUsage
	} else if flags.NArg() != 1 {
		err = errors.New("specify one input FASTA or FASTQ file (\"-\" for stdin)")
		return exitUsage
	}

	var buf *genome.Buffer
	if infile := flags.Arg(0); infile == "-" {
		buf, err = genome.Load(stdin, opts)
	} else {
		buf, err = genome.LoadFile(infile, opts)
	}
	if err != nil {
		return exitCode(err)
	}
	fmt.Fprintf(stdout, "format\t%s\nvalid\t%d\ntotal\t%d\nblake2b\t%x\n", buf.Format, buf.Valid, buf.Total(), buf.Digest())
	return 0
}
