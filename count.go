package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"time"

	"git.arvados.org/arvados.git/sdk/go/arvados"
	"git.arvados.org/countog.git/genome"
	"git.arvados.org/countog.git/kmer"
	"git.arvados.org/countog.git/sampler"
	log "github.com/sirupsen/logrus"
)

// exit codes for fatal errors, by kind
const (
	exitFailure   = 1
	exitUsage     = 2
	exitFormat    = 3
	exitResource  = 4
	exitInvariant = 5
)

// npy rows are buffered until the matrix is complete; warn above this
// many bytes.
var npyWarnSize int64 = 1 << 30

type countog struct {
	genomeOpts  genome.Options
	cfg         sampler.Config
	rows        int
	header      bool
	label       string
	format      string
	outputFile  string
	runLocal    bool
	projectUUID string
}

func (cmd *countog) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.IntVar(&cmd.cfg.K, "k", sampler.DefaultK, "oligonucleotide length `k`")
	flags.IntVar(&cmd.cfg.CountingSize, "count", sampler.DefaultCountingSize, "count `N` oligonucleotides for each row")
	flags.IntVar(&cmd.rows, "rows", sampler.DefaultRows, "output `N` rows")
	flags.IntVar(&cmd.cfg.Shift, "shift", sampler.DefaultShift, "shift `N` bp for the next round at the end of the genome")
	flags.BoolVar(&cmd.cfg.Merge, "merge-complementary", false, "merge complementary oligonucleotides")
	flags.Int64Var(&cmd.genomeOpts.MaxSize, "max-genome", genome.DefaultMaxSize, "maximum genome size in `bytes`")
	flags.IntVar(&cmd.genomeOpts.MinQuality, "min-quality", genome.DefaultMinQuality, "minimum FASTQ quality `score`")
	flags.BoolVar(&cmd.header, "header", false, "print the header line")
	flags.StringVar(&cmd.label, "label", "", "add a label `text` column for training data")
	flags.StringVar(&cmd.format, "format", "tsv", "output `format`: tsv or npy (npy holds all rows in memory)")
	flags.StringVar(&cmd.outputFile, "o", "-", "output `file`")
	flags.BoolVar(&cmd.runLocal, "local", true, "run on local host (-local=false runs in an arvados container)")
	flags.StringVar(&cmd.projectUUID, "project", "", "project `UUID` for containers and output data")
	priority := flags.Int("priority", 500, "container request priority")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	loglevel := flags.String("log-level", "info", "logging `level` (debug, info, warn, error)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return exitUsage
	} else if flags.NArg() != 1 {
		err = errors.New("specify one input FASTA or FASTQ file (\"-\" for stdin)")
		return exitUsage
	} else if cmd.format != "tsv" && cmd.format != "npy" {
		err = fmt.Errorf("unknown output format %q", cmd.format)
		return exitUsage
	} else if cmd.rows < 0 {
		err = fmt.Errorf("invalid row count %d", cmd.rows)
		return exitUsage
	} else if err = cmd.cfg.Validate(); err != nil {
		return exitUsage
	}
	lvl, err := log.ParseLevel(*loglevel)
	if err != nil {
		return exitUsage
	}
	log.SetLevel(lvl)
	log.SetOutput(stderr)

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	infile := flags.Arg(0)

	if !cmd.runLocal {
		if cmd.outputFile != "-" {
			err = errors.New("cannot specify output file in container mode: not implemented")
			return exitUsage
		}
		runner := arvadosContainerRunner{
			Name:        "countog",
			Client:      arvados.NewClientFromEnv(),
			ProjectUUID: cmd.projectUUID,
			RAM:         cmd.genomeOpts.MaxSize + 4<<30,
			VCPUs:       1,
			Priority:    *priority,
		}
		err = runner.TranslatePaths(&infile)
		if err != nil {
			return exitUsage
		}
		outname := "features." + cmd.format
		runner.Args = append(cmd.remoteArgs(), "-o", "/mnt/output/"+outname, infile)
		var output string
		output, err = runner.Run()
		if err != nil {
			return exitFailure
		}
		fmt.Fprintln(stdout, output+"/"+outname)
		return 0
	}

	err = cmd.run(infile, stdin, stdout)
	if err != nil {
		log.WithField("kind", errorKind(err)).Error("count failed")
		return exitCode(err)
	}
	return 0
}

// remoteArgs returns the arguments that reproduce this command's
// settings inside a container.
func (cmd *countog) remoteArgs() []string {
	args := []string{
		"count", "-local=true",
		fmt.Sprintf("-k=%d", cmd.cfg.K),
		fmt.Sprintf("-count=%d", cmd.cfg.CountingSize),
		fmt.Sprintf("-rows=%d", cmd.rows),
		fmt.Sprintf("-shift=%d", cmd.cfg.Shift),
		fmt.Sprintf("-max-genome=%d", cmd.genomeOpts.MaxSize),
		fmt.Sprintf("-min-quality=%d", cmd.genomeOpts.MinQuality),
		fmt.Sprintf("-merge-complementary=%v", cmd.cfg.Merge),
		fmt.Sprintf("-header=%v", cmd.header),
		"-format=" + cmd.format,
	}
	if cmd.label != "" {
		args = append(args, "-label="+cmd.label)
	}
	return args
}

func (cmd *countog) run(infile string, stdin io.Reader, stdout io.Writer) error {
	log.Printf("%s load starting", infile)
	var buf *genome.Buffer
	var err error
	if infile == "-" {
		buf, err = genome.Load(stdin, cmd.genomeOpts)
	} else {
		buf, err = genome.LoadFile(infile, cmd.genomeOpts)
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"format":  buf.Format,
		"valid":   buf.Valid,
		"total":   buf.Total(),
		"blake2b": fmt.Sprintf("%x", buf.Digest()),
	}).Printf("%s load done", infile)

	pipeline, err := sampler.New(buf, cmd.cfg)
	if err != nil {
		return err
	}
	if pipeline.Shift() != int64(cmd.cfg.Shift) {
		log.Printf("genome shorter than shift size %d, using shift size %d", cmd.cfg.Shift, pipeline.Shift())
	}
	width, err := pipeline.Width()
	if err != nil {
		return err
	}

	if cmd.outputFile == "-" {
		err = cmd.emit(pipeline, width, nopCloser{stdout})
	} else {
		err = writeFileAtomic(cmd.outputFile, func(output io.WriteCloser) error {
			return cmd.emit(pipeline, width, output)
		})
	}
	if err != nil {
		return err
	}
	log.Printf("%d rows of %d columns done", cmd.rows, width)
	return nil
}

// emit writes the optional header and cmd.rows rows to output, then
// closes it.
func (cmd *countog) emit(pipeline *sampler.Pipeline, width int, output io.WriteCloser) error {
	var sink rowSink
	if cmd.format == "npy" {
		if cmd.header || cmd.label != "" {
			log.Warn("npy output has no header or label column; ignoring -header and -label")
		}
		if size := int64(cmd.rows) * int64(width) * 4; size > npyWarnSize {
			log.Warnf("npy output holds all %d rows in memory (%d bytes)", cmd.rows, size)
		}
		sink = newNpySink(output, width)
	} else {
		sink = newTSVSink(output, cmd.label)
	}

	if cmd.header {
		cols, err := pipeline.Columns()
		if err != nil {
			return err
		}
		if err = sink.WriteHeader(cols); err != nil {
			return err
		}
	}
	starttime := time.Now()
	lastlog := starttime
	for i := 0; i < cmd.rows; i++ {
		row, err := pipeline.NextRow()
		if err != nil {
			return err
		}
		if err = sink.WriteRow(row); err != nil {
			return err
		}
		if time.Since(lastlog) > 10*time.Second {
			lastlog = time.Now()
			log.Printf("progress %d/%d rows, cursor %d, %v", i+1, cmd.rows, pipeline.Cursor(), time.Since(starttime))
		}
	}
	return sink.Close()
}

// writeFileAtomic calls write with a temporary file in the same
// directory as path, and renames it to path only if write succeeds.
// On failure the temporary file is removed and path is left as it
// was.
func writeFileAtomic(path string, write func(io.WriteCloser) error) error {
	f, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	err = write(f)
	if err != nil {
		f.Close()
		return err
	}
	// write normally closes f; a second Close reports os.ErrClosed
	if err = f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	if err = os.Chmod(f.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func errorKind(err error) string {
	var ferr *genome.FormatError
	var rerr *genome.ResourceError
	var ierr *kmer.InvariantError
	var perr *os.PathError
	var cerr *sampler.ConfigError
	switch {
	case errors.As(err, &ferr):
		return "input format"
	case errors.As(err, &rerr):
		return "resource"
	case errors.As(err, &ierr):
		return "encoding invariant"
	case errors.As(err, &perr), errors.As(err, &cerr):
		return "argument"
	default:
		return "other"
	}
}

func exitCode(err error) int {
	switch errorKind(err) {
	case "input format":
		return exitFormat
	case "resource":
		return exitResource
	case "encoding invariant":
		return exitInvariant
	case "argument":
		return exitUsage
	default:
		return exitFailure
	}
}
