package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/ibootdbg/recfg/api"
	"github.com/ibootdbg/recfg/config"
	"github.com/ibootdbg/recfg/debugger"
	"github.com/ibootdbg/recfg/loader"
	"github.com/ibootdbg/recfg/recfg"
	"github.com/ibootdbg/recfg/scan"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		searchMode  = flag.Bool("s", false, "Scan the image for embedded sequences via the descriptor table")
		alignment   = flag.String("alignment", "", "64-bit payload alignment mode: extracted or volatile (default: the config's codec.alignment)")
		access      = flag.String("access", "", "Tape memory-access strategy: normal or volatile (default: the config's codec.access)")
		configPath  = flag.String("config", "", "Path to a TOML config file (default: platform config dir)")
		uiMode      = flag.Bool("ui", false, "Launch the terminal inspector instead of printing")
		guiMode     = flag.Bool("gui", false, "Launch the graphical inspector instead of printing")
		serveAddr   = flag.String("serve", "", "Run the decode-as-a-service HTTP server on this address instead of decoding a file")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-s] [-alignment=mode] [-access=mode] [-ui|-gui] file [off [len]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("recfg %s (%s)\n", Version, Commit)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *alignment != "" {
		cfg.Codec.Alignment = *alignment
	}
	if *access != "" {
		cfg.Codec.Access = *access
	}

	if *serveAddr != "" {
		cfg.Service.ListenAddr = *serveAddr
		if err := api.ListenAndServe(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	infile := args[0]
	var off, length uint64
	if len(args) > 1 {
		if off, err = strconv.ParseUint(args[1], 0, 64); err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad offset: %s\n", args[1])
			os.Exit(1)
		}
	}
	if len(args) > 2 {
		if length, err = strconv.ParseUint(args[2], 0, 64); err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad length: %s\n", args[2])
			os.Exit(1)
		}
	}
	if len(args) > 3 {
		flag.Usage()
		os.Exit(1)
	}

	opts, err := cfg.TapeOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	img, err := loader.Open(infile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	region, err := img.Slice(off, length)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *uiMode || *guiMode {
		insp, err := debugger.New(region, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *guiMode {
			err = insp.RunGUI()
		} else {
			err = insp.RunTUI()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var ranges []namedRange
	if *searchMode {
		seqs, err := scan.Find(region)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, s := range seqs {
			end := s.Off + s.Len
			if end > uint64(len(region)) {
				fmt.Fprintf(os.Stderr, "Error: sequence at 0x%x extends past end of region\n", s.Off)
				os.Exit(1)
			}
			ranges = append(ranges, namedRange{base: s.Off, buf: region[s.Off:end]})
		}
	} else {
		ranges = []namedRange{{base: 0, buf: region}}
	}

	for _, r := range ranges {
		if *searchMode {
			fmt.Printf("# range at 0x%x\n", r.base)
		}
		if err := decodeAndPrint(r.buf, opts); err != nil {
			printDecodeError(r.base, err)
			os.Exit(1)
		}
		fmt.Println()
	}
}

type namedRange struct {
	base uint64
	buf  []byte
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// printDecodeError prints a single red error line the way the original
// CLI's ERR macro does ("\x1b[1;91m...\x1b[0m"), naming both the failing
// command's offset relative to the containing sequence and the
// sequence's own offset within the file, per the CLI's documented
// error-reporting contract.
func printDecodeError(seqBase uint64, err error) {
	var fe *recfg.FailureError
	relOff := uint64(0)
	if errors.As(err, &fe) {
		relOff = fe.Offset
	}
	fmt.Fprintf(os.Stderr, "\x1b[1;91mError at offset 0x%x (sequence 0x%x): %v\x1b[0m\n", relOff, seqBase, err)
}

// decodeAndPrint runs Check then Walk against buf, printing each command in
// the same format as the original CLI's callbacks (recfg_end_cb,
// recfg_delay_cb, recfg_read32_cb, recfg_read64_cb, recfg_write32_cb,
// recfg_write64_cb in main.c).
func decodeAndPrint(buf []byte, opts recfg.Options) error {
	tape := recfg.NewTape(buf, opts)
	if _, err := recfg.Check(tape); err != nil {
		return err
	}

	h := recfg.Handlers{
		End: func(ctx any) (recfg.Disposition, error) {
			fmt.Println("end")
			return recfg.Success, nil
		},
		Delay: func(ctx any, ticks *uint32) (recfg.Disposition, error) {
			fmt.Printf("delay %d\n", *ticks)
			return recfg.Success, nil
		},
		Read32: func(ctx any, e *recfg.ReadEntry32) (recfg.Disposition, error) {
			if e.Retry {
				fmt.Printf("rd32 0x%09x & 0x%08x == 0x%08x, retry = %d\n", e.Addr, e.Mask, e.Data, e.Recnt)
			} else {
				fmt.Printf("rd32 0x%09x & 0x%08x == 0x%08x\n", e.Addr, e.Mask, e.Data)
			}
			return recfg.Success, nil
		},
		Read64: func(ctx any, e *recfg.ReadEntry64) (recfg.Disposition, error) {
			if e.Retry {
				fmt.Printf("rd64 0x%09x & 0x%016x == 0x%016x, retry = %d\n", e.Addr, e.Mask, e.Data, e.Recnt)
			} else {
				fmt.Printf("rd64 0x%09x & 0x%016x == 0x%016x\n", e.Addr, e.Mask, e.Data)
			}
			return recfg.Success, nil
		},
		Write32: func(ctx any, i int, e *recfg.WriteEntry32) (recfg.Disposition, error) {
			fmt.Printf("wr32 0x%09x = 0x%08x\n", e.Addr, e.Data)
			return recfg.Success, nil
		},
		Write64: func(ctx any, i int, e *recfg.WriteEntry64) (recfg.Disposition, error) {
			fmt.Printf("wr64 0x%x = 0x%016x\n", e.Addr, e.Data)
			return recfg.Success, nil
		},
	}

	_, err := recfg.Walk(tape, h, nil)
	return err
}
