// Command itchygen generates a synthetic ITCH/MoldUDP64/PCAP capture,
// grounded on original_source/itchygen.c's CLI surface (spec.md §6)
// and the teacher's main.go (flag parsing, automaxprocs, signal-driven
// shutdown shape), retargeted from an HTTP/WebSocket server to a
// one-shot batch generator.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/time/rate"

	"github.com/nezhinsky/itchygen/internal/cliargs"
	"github.com/nezhinsky/itchygen/internal/crcpoly"
	"github.com/nezhinsky/itchygen/internal/generator"
	"github.com/nezhinsky/itchygen/internal/itchmodel"
	"github.com/nezhinsky/itchygen/internal/itcherr"
	"github.com/nezhinsky/itchygen/internal/netframe"
	"github.com/nezhinsky/itchygen/internal/obslog"
	"github.com/nezhinsky/itchygen/internal/randgen"
	"github.com/nezhinsky/itchygen/internal/symboltab"
	"github.com/nezhinsky/itchygen/internal/telemetry"
)

const version = "itchygen 1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		symbolFile    = flag.String("symbol-file", "", "symbol file (required)")
		runTime       = flag.Float64("run-time", 0, "capture run time in seconds")
		ordersRate    = flag.Float64("orders-rate", 0, "ADD events per second")
		ordersNum     = flag.Int("orders-num", 0, "number of ADD orders to generate")
		time2Update   = flag.Float64("time2update", 0, "mean modify interarrival time, ms (required)")
		minTime2Upd   = flag.Float64("min-time2upd", 10, "floor modify interarrival time, ms")
		listFile      = flag.String("list-file", "", "optional subscription symbol file")
		listRatio     = flag.Int("list-ratio", 0, "percent of orders drawn from --list-file")
		probExec      = flag.Int("prob-exec", -1, "percent of modifies that are EXEC")
		probCancel    = flag.Int("prob-cancel", -1, "percent of modifies that are CANCEL")
		probReplace   = flag.Int("prob-replace", -1, "percent of modifies that are REPLACE")
		dstMAC        = flag.String("dst-mac", "", "destination MAC (required)")
		srcMAC        = flag.String("src-mac", "", "source MAC (required)")
		dstIP         = flag.String("dst-ip", "", "destination IPv4 (required)")
		srcIP         = flag.String("src-ip", "", "source IPv4 (required)")
		dstPort       = flag.String("dst-port", "", "destination UDP port, 1024-65535 (required)")
		srcPort       = flag.String("src-port", "", "source UDP port, 1024-65535 (required)")
		file          = flag.String("file", "itchygen.pcap", "output PCAP file")
		seq           = flag.Bool("seq", false, "allocate order refs sequentially instead of randomly")
		firstRef      = flag.Uint64("first-ref", 1, "first ref number in --seq mode")
		firstSeq      = flag.Uint64("first-seq", 1, "first MoldUDP64 sequence number")
		randSeed      = flag.Uint64("rand-seed", 0, "PRNG seed (0 = seed from wall clock)")
		noHashDel     = flag.Bool("no-hash-del", false, "never delete refs from the hash when an order chain closes")
		hashWidth     = flag.Uint("hash-width", 20, "ref hash bucket index width in bits")
		rateLimit     = flag.Float64("rate-limit", 0, "optional wall-clock pacing of ADD emission, events/sec")
		memWarnBytes  = flag.Uint64("mem-warn-bytes", 0, "log a warning if process RSS exceeds this many bytes (0 = disabled)")
		debug         = flag.Bool("debug", false, "enable debug logging")
		verbose       = flag.Bool("verbose", false, "enable verbose logging")
		showVersion   = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	level := obslog.LevelInfo
	if *debug {
		level = obslog.LevelDebug
	}
	logger := obslog.New(obslog.Config{Level: level, Format: obslog.FormatPretty, Component: "itchygen"})

	cfg, dst, src, err := buildConfig(buildConfigArgs{
		symbolFile:  *symbolFile,
		runTime:     *runTime,
		ordersRate:  *ordersRate,
		ordersNum:   *ordersNum,
		time2Update: *time2Update,
		minTime2Upd: *minTime2Upd,
		listFile:    *listFile,
		listRatio:   *listRatio,
		probExec:    *probExec,
		probCancel:  *probCancel,
		probReplace: *probReplace,
		dstMAC:      *dstMAC,
		srcMAC:      *srcMAC,
		dstIP:       *dstIP,
		srcIP:       *srcIP,
		dstPort:     *dstPort,
		srcPort:     *srcPort,
		seq:         *seq,
		firstRef:    *firstRef,
		firstSeq:    *firstSeq,
		randSeed:    *randSeed,
		noHashDel:   *noHashDel,
		hashWidth:   uint32(*hashWidth),
		verbose:     *verbose,
		debug:       *debug,
	})
	if err != nil {
		logger.Error().Err(err).Msg("invalid arguments")
		return itcherr.ExitCode(itcherr.ErrInvalidArgument)
	}

	gen, err := generator.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build generator")
		return itcherr.ExitCode(itcherr.ErrInvalidArgument)
	}
	if *rateLimit > 0 {
		gen.Limiter = rate.NewLimiter(rate.Limit(*rateLimit), 1)
	}
	if *memWarnBytes > 0 {
		sampler, err := generator.NewRSSSampler()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to start RSS sampler, --mem-warn-bytes disabled")
		} else {
			gen.RSSSampler = sampler
			gen.RSSWarnBytes = *memWarnBytes
		}
	}

	start := time.Now()
	result, err := gen.Run(*file, dst, src)
	if err != nil {
		logger.Error().Err(err).Msg("generation failed")
		return itcherr.ExitCode(itcherr.ErrIO)
	}

	telemetry.OrdersGenerated.Add(float64(result.Stats.Orders))
	telemetry.EventsGenerated.WithLabelValues("ADD").Add(float64(result.Stats.Orders))
	telemetry.EventsGenerated.WithLabelValues("EXEC").Add(float64(result.Stats.Execs))
	telemetry.EventsGenerated.WithLabelValues("CANCEL").Add(float64(result.Stats.Cancels))
	telemetry.EventsGenerated.WithLabelValues("REPLACE").Add(float64(result.Stats.Replaces))
	telemetry.RefHashOverflows.Add(float64(result.RefOverflows))

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Uint64("records_written", result.RecordsWritten).
		Uint64("last_seq_num", result.LastSeqNum).
		Uint64("orders", result.Stats.Orders).
		Uint64("execs", result.Stats.Execs).
		Uint64("cancels", result.Stats.Cancels).
		Uint64("replaces", result.Stats.Replaces).
		Uint32("ref_overflows", result.RefOverflows).
		Uint64("effective_seed", result.EffectiveSeed).
		Msg("generation complete")

	if summary, err := telemetry.DumpText(); err == nil {
		logger.Debug().Str("metrics", summary).Msg("final metrics")
	}

	return 0
}

type buildConfigArgs struct {
	symbolFile                       string
	runTime, ordersRate              float64
	ordersNum                        int
	time2Update, minTime2Upd         float64
	listFile                         string
	listRatio                        int
	probExec, probCancel, probReplace int
	dstMAC, srcMAC, dstIP, srcIP     string
	dstPort, srcPort                 string
	seq                              bool
	firstRef, firstSeq               uint64
	randSeed                         uint64
	noHashDel                        bool
	hashWidth                        uint32
	verbose, debug                   bool
}

// buildConfig validates and assembles a generator.Config plus the
// Ethernet/IPv4/UDP endpoints from the raw flag values, the Go
// counterpart of itchygen.c's argument-parsing + any-two-of-three
// inference for run-time/rate/orders-num and the probability triple.
func buildConfig(a buildConfigArgs) (generator.Config, netframe.Endpoint, netframe.Endpoint, error) {
	if a.symbolFile == "" {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, fmt.Errorf("itchygen: --symbol-file is required")
	}
	if a.time2Update <= 0 {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, fmt.Errorf("itchygen: --time2update is required")
	}

	numOrders, orderRate, err := resolveRateTriple(a.runTime, a.ordersRate, a.ordersNum)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}

	pctExec, pctCancel, pctReplace, err := resolveProbTriple(a.probExec, a.probCancel, a.probReplace)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}

	dstMAC, err := cliargs.ParseMAC(a.dstMAC)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}
	srcMAC, err := cliargs.ParseMAC(a.srcMAC)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}
	dstIP, err := cliargs.ParseIPv4(a.dstIP)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}
	srcIP, err := cliargs.ParseIPv4(a.srcIP)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}
	dstPort, err := cliargs.ParsePort(a.dstPort)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}
	srcPort, err := cliargs.ParsePort(a.srcPort)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}

	useSeed := a.randSeed != 0
	src, _ := randgen.New(useSeed, a.randSeed)

	symbols, warnings, err := symboltab.Load(a.symbolFile, src, a.verbose)
	if err != nil {
		return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	var subscriptionSymbols []itchmodel.Symbol
	if a.listFile != "" {
		subscriptionSymbols, warnings, err = symboltab.Load(a.listFile, src, a.verbose)
		if err != nil {
			return generator.Config{}, netframe.Endpoint{}, netframe.Endpoint{}, err
		}
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, w)
		}
	}

	refMode := generator.RefRandom
	if a.seq {
		refMode = generator.RefSequential
	}

	var session [10]byte
	copy(session[:], "sessionabc")

	cfg := generator.Config{
		NumOrders:           numOrders,
		Rate:                orderRate,
		MeanModifyMsec:      a.time2Update,
		FloorModifyMsec:     a.minTime2Upd,
		PctExec:             pctExec,
		PctCancel:           pctCancel,
		PctReplace:          pctReplace,
		Symbols:             symbols,
		SubscriptionSymbols: subscriptionSymbols,
		SubscriptionPct:     a.listRatio,
		UseSeed:             useSeed,
		Seed:                a.randSeed,
		RefMode:             refMode,
		RefSeqBase:          a.firstRef,
		NoDel:               a.noHashDel,
		HashWidth:           a.hashWidth,
		Polynomials:         defaultPolynomials(a.hashWidth),
		FirstSeqNum:         a.firstSeq,
		Session:             session,
	}

	dst := netframe.Endpoint{MAC: dstMAC, IP: dstIP, Port: dstPort}
	srcEp := netframe.Endpoint{MAC: srcMAC, IP: srcIP, Port: srcPort}
	return cfg, dst, srcEp, nil
}

// defaultPolynomials returns crcpoly.DefaultPolynomials's W=20 pair
// when hashWidth matches spec.md §4.2's documented default, otherwise
// falls back to the same pair (the CRC engine tolerates any width; the
// polynomials themselves only need enough bits to not collapse to 0).
func defaultPolynomials(hashWidth uint32) []uint32 {
	defaults := crcpoly.DefaultPolynomials()
	return []uint32{defaults[0], defaults[1]}
}

// resolveRateTriple infers the third of {run-time, orders-rate,
// orders-num} from the other two, per spec.md §6's "any two of three;
// the third is inferred by t·r=n".
func resolveRateTriple(runTime, ordersRate float64, ordersNum int) (int, float64, error) {
	haveTime := runTime > 0
	haveRate := ordersRate > 0
	haveNum := ordersNum > 0

	switch {
	case haveRate && haveNum:
		return ordersNum, ordersRate, nil
	case haveTime && haveRate:
		return int(runTime * ordersRate), ordersRate, nil
	case haveTime && haveNum:
		return ordersNum, float64(ordersNum) / runTime, nil
	default:
		return 0, 0, fmt.Errorf("itchygen: at least two of --run-time/--orders-rate/--orders-num are required")
	}
}

// resolveProbTriple fills in the third of {prob-exec, prob-cancel,
// prob-replace} so the three sum to 100, per spec.md §6.
func resolveProbTriple(pExec, pCancel, pReplace int) (int, int, int, error) {
	missing := 0
	if pExec < 0 {
		missing++
	}
	if pCancel < 0 {
		missing++
	}
	if pReplace < 0 {
		missing++
	}
	if missing > 1 {
		return 0, 0, 0, fmt.Errorf("itchygen: at least two of --prob-exec/--prob-cancel/--prob-replace are required")
	}

	sumKnown := 0
	if pExec >= 0 {
		sumKnown += pExec
	}
	if pCancel >= 0 {
		sumKnown += pCancel
	}
	if pReplace >= 0 {
		sumKnown += pReplace
	}
	remainder := 100 - sumKnown

	if pExec < 0 {
		pExec = remainder
	}
	if pCancel < 0 {
		pCancel = remainder
	}
	if pReplace < 0 {
		pReplace = remainder
	}

	if pExec+pCancel+pReplace != 100 {
		return 0, 0, 0, fmt.Errorf("itchygen: --prob-exec + --prob-cancel + --prob-replace must sum to 100")
	}
	return pExec, pCancel, pReplace, nil
}
